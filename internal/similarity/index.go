// Package similarity builds a TF-IDF vector space over catalog documents and
// scores documents against query vectors by cosine similarity.
//
// Weights follow the usual smoothed form: raw term count times
// ln((1+n)/(1+df)) + 1, with every vector L2-normalized. The vocabulary and
// weights are fixed by Build; an Index is read-only afterwards and safe for
// concurrent use.
package similarity

import (
	"errors"
	"math"
	"sort"
)

// ErrEmptyVocabulary is returned when no document contains a term that
// survives stop-word removal.
var ErrEmptyVocabulary = errors.New("empty vocabulary: documents contain only stop words")

// Index is an immutable TF-IDF model over a fixed set of documents.
type Index struct {
	ids     []string
	pos     map[string]int
	vocab   map[string]int
	terms   []string
	idf     []float64
	vectors []Vector
}

// Build fits the vocabulary and IDF weights on texts and computes one vector
// per text. ids[i] identifies texts[i]; both slices must have the same length.
func Build(ids, texts []string) (*Index, error) {
	if len(ids) != len(texts) {
		return nil, errors.New("similarity: ids and texts differ in length")
	}

	tokenized := make([][]string, len(texts))
	df := make(map[string]int)
	for i, text := range texts {
		toks := Tokenize(text)
		tokenized[i] = toks
		seen := make(map[string]bool, len(toks))
		for _, tok := range toks {
			if !seen[tok] {
				seen[tok] = true
				df[tok]++
			}
		}
	}
	if len(df) == 0 {
		return nil, ErrEmptyVocabulary
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	n := float64(len(texts))
	idx := &Index{
		ids:     append([]string(nil), ids...),
		pos:     make(map[string]int, len(ids)),
		vocab:   make(map[string]int, len(terms)),
		terms:   terms,
		idf:     make([]float64, len(terms)),
		vectors: make([]Vector, len(texts)),
	}
	for i, term := range terms {
		idx.vocab[term] = i
		idx.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	for i, id := range ids {
		idx.pos[id] = i
		idx.vectors[i] = idx.weigh(tokenized[i])
	}
	return idx, nil
}

// VectorOf projects text into the index space. Terms outside the vocabulary
// are ignored, so the result may be the zero vector.
func (x *Index) VectorOf(text string) Vector {
	return x.weigh(Tokenize(text))
}

// ItemVector returns the stored vector of a document.
func (x *Index) ItemVector(id string) (Vector, bool) {
	i, ok := x.pos[id]
	if !ok {
		return Vector{}, false
	}
	return x.vectors[i], true
}

// ScoreAll returns the cosine similarity of v against every indexed document.
func (x *Index) ScoreAll(v Vector) map[string]float64 {
	out := make(map[string]float64, len(x.ids))
	for i, s := range x.Scores(v) {
		out[x.ids[i]] = s
	}
	return out
}

// Scores returns the cosine similarity of v against every indexed document,
// in the order the documents were given to Build.
func (x *Index) Scores(v Vector) []float64 {
	out := make([]float64, len(x.vectors))
	for i, dv := range x.vectors {
		out[i] = Cosine(v, dv)
	}
	return out
}

// Len returns the number of indexed documents.
func (x *Index) Len() int { return len(x.ids) }

// VocabularySize returns the number of distinct terms.
func (x *Index) VocabularySize() int { return len(x.terms) }

// Terms returns the vocabulary in index order. The slice must not be modified.
func (x *Index) Terms() []string { return x.terms }

func (x *Index) weigh(tokens []string) Vector {
	counts := make(map[int]float64)
	for _, tok := range tokens {
		if i, ok := x.vocab[tok]; ok {
			counts[i]++
		}
	}
	if len(counts) == 0 {
		return Vector{}
	}

	v := Vector{
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for i := range counts {
		v.Indices = append(v.Indices, i)
	}
	sort.Ints(v.Indices)

	var sum float64
	for _, i := range v.Indices {
		w := counts[i] * x.idf[i]
		v.Values = append(v.Values, w)
		sum += w * w
	}
	norm := math.Sqrt(sum)
	for k := range v.Values {
		v.Values[k] /= norm
	}
	return v
}
