package similarity

import (
	"errors"
	"math"
	"testing"
)

const eps = 1e-9

func buildTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Build(
		[]string{"1", "2", "3"},
		[]string{
			"Intro to Python python programming",
			"Advanced Python python advanced",
			"Cooking Basics food",
		},
	)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return idx
}

func TestBuild_Vocabulary(t *testing.T) {
	idx := buildTestIndex(t)
	want := []string{"advanced", "basics", "cooking", "food", "intro", "programming", "python"}
	terms := idx.Terms()
	if len(terms) != len(want) {
		t.Fatalf("terms = %v, want %v", terms, want)
	}
	for i := range want {
		if terms[i] != want[i] {
			t.Errorf("terms[%d] = %q, want %q", i, terms[i], want[i])
		}
	}
}

func TestBuild_EmptyVocabulary(t *testing.T) {
	_, err := Build([]string{"1"}, []string{"the and of"})
	if !errors.Is(err, ErrEmptyVocabulary) {
		t.Fatalf("err = %v, want ErrEmptyVocabulary", err)
	}
}

func TestBuild_LengthMismatch(t *testing.T) {
	if _, err := Build([]string{"1"}, nil); err == nil {
		t.Fatal("expected error for mismatched input")
	}
}

func TestItemVector_IsUnitLength(t *testing.T) {
	idx := buildTestIndex(t)
	for _, id := range []string{"1", "2", "3"} {
		v, ok := idx.ItemVector(id)
		if !ok {
			t.Fatalf("ItemVector(%q) not found", id)
		}
		if math.Abs(v.Norm()-1) > eps {
			t.Errorf("norm(%s) = %v, want 1", id, v.Norm())
		}
	}
	if _, ok := idx.ItemVector("missing"); ok {
		t.Error("ItemVector(missing) found")
	}
}

func TestScoreAll_SelfSimilarityIsMaximum(t *testing.T) {
	idx := buildTestIndex(t)
	for _, id := range []string{"1", "2", "3"} {
		v, _ := idx.ItemVector(id)
		scores := idx.ScoreAll(v)
		if math.Abs(scores[id]-1) > eps {
			t.Errorf("self score of %s = %v, want 1", id, scores[id])
		}
		for other, s := range scores {
			if s > scores[id]+eps {
				t.Errorf("score(%s vs %s) = %v exceeds self score %v", id, other, s, scores[id])
			}
		}
	}
}

func TestScoreAll_SharedVocabularyRanksHigher(t *testing.T) {
	idx := buildTestIndex(t)
	scores := idx.ScoreAll(idx.VectorOf("Intro to Python python programming"))
	if scores["2"] <= scores["3"] {
		t.Errorf("score(2) = %v, want > score(3) = %v", scores["2"], scores["3"])
	}
	if scores["3"] != 0 {
		t.Errorf("score(3) = %v, want 0 (no shared terms)", scores["3"])
	}
}

func TestVectorOf_OutOfVocabulary(t *testing.T) {
	idx := buildTestIndex(t)
	v := idx.VectorOf("quantum chromodynamics")
	if !v.IsZero() {
		t.Fatalf("VectorOf(unknown) = %+v, want zero vector", v)
	}
	for id, s := range idx.ScoreAll(v) {
		if s != 0 {
			t.Errorf("score(%s) = %v, want 0 for zero query", id, s)
		}
	}
}

func TestScores_Deterministic(t *testing.T) {
	a := buildTestIndex(t)
	b := buildTestIndex(t)
	q := "python food programming"
	sa := a.Scores(a.VectorOf(q))
	sb := b.Scores(b.VectorOf(q))
	for i := range sa {
		if sa[i] != sb[i] {
			t.Errorf("scores[%d] differ: %v vs %v", i, sa[i], sb[i])
		}
	}
}

func TestCosine_SymmetricAndScaleInvariant(t *testing.T) {
	idx := buildTestIndex(t)
	a := idx.VectorOf("python programming food")
	b := idx.VectorOf("advanced python cooking")

	ab, ba := Cosine(a, b), Cosine(b, a)
	if math.Abs(ab-ba) > eps {
		t.Errorf("Cosine not symmetric: %v vs %v", ab, ba)
	}
	for _, k := range []float64{0.5, 3, 1000} {
		if got := Cosine(a.Scale(k), b); math.Abs(got-ab) > eps {
			t.Errorf("Cosine(a*%v, b) = %v, want %v", k, got, ab)
		}
	}
}

func TestCosine_ZeroVector(t *testing.T) {
	v := Vector{Indices: []int{0, 2}, Values: []float64{1, 2}}
	if got := Cosine(Vector{}, v); got != 0 {
		t.Errorf("Cosine(zero, v) = %v, want 0", got)
	}
	if got := Cosine(v, Vector{}); got != 0 {
		t.Errorf("Cosine(v, zero) = %v, want 0", got)
	}
}

func TestDot_SparseMerge(t *testing.T) {
	a := Vector{Indices: []int{0, 3, 5}, Values: []float64{1, 2, 3}}
	b := Vector{Indices: []int{1, 3, 5, 9}, Values: []float64{7, 4, 1, 8}}
	if got := Dot(a, b); got != 11 {
		t.Errorf("Dot = %v, want 11", got)
	}
}

func weightOf(t *testing.T, idx *Index, v Vector, term string) float64 {
	t.Helper()
	col, ok := idx.vocab[term]
	if !ok {
		t.Fatalf("term %q not in vocabulary", term)
	}
	for k, i := range v.Indices {
		if i == col {
			return v.Values[k]
		}
	}
	return 0
}

func TestBuild_ReferenceWeights(t *testing.T) {
	idx := buildTestIndex(t)

	pythonIDF := math.Log(4.0/3.0) + 1
	if got := idx.idf[idx.vocab["python"]]; math.Abs(got-pythonIDF) > eps {
		t.Errorf("idf(python) = %v, want %v", got, pythonIDF)
	}
	if got, want := idx.idf[idx.vocab["food"]], math.Log(2)+1; math.Abs(got-want) > eps {
		t.Errorf("idf(food) = %v, want %v", got, want)
	}

	// "python" occurs twice in item 1, so its raw count doubles the weight.
	v, _ := idx.ItemVector("1")
	if got := weightOf(t, idx, v, "python"); math.Abs(got-0.7323591428422148) > 1e-6 {
		t.Errorf("weight(1, python) = %v, want 0.732359", got)
	}
}

func TestScoreAll_ReferenceScores(t *testing.T) {
	idx := buildTestIndex(t)
	scores := idx.ScoreAll(idx.VectorOf("Intro to Python python programming"))

	want := map[string]float64{"1": 1, "2": 0.44333251451753725, "3": 0}
	for id, w := range want {
		if math.Abs(scores[id]-w) > 1e-6 {
			t.Errorf("score(%s) = %v, want %v", id, scores[id], w)
		}
	}
}
