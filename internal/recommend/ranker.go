package recommend

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/learnnova/coursematch/internal/catalog"
	"github.com/learnnova/coursematch/internal/metrics"
	"github.com/learnnova/coursematch/internal/similarity"
	"github.com/learnnova/coursematch/internal/source"
)

// DefaultTopN is the number of recommendations returned when none is configured.
const DefaultTopN = 5

// Recommendation is a single ranked catalog item.
type Recommendation struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// Ranker scores the catalog for individual users. It holds only immutable
// data and is safe for concurrent use.
type Ranker struct {
	table *catalog.Table
	index *similarity.Index
	users map[string]source.User
	topN  int
}

// NewRanker builds a Ranker over a normalized catalog, its index, and a user
// snapshot. The first user wins when usernames repeat. topN <= 0 means DefaultTopN.
func NewRanker(table *catalog.Table, index *similarity.Index, users []source.User, topN int) *Ranker {
	if topN <= 0 {
		topN = DefaultTopN
	}
	byName := make(map[string]source.User, len(users))
	for _, u := range users {
		if _, ok := byName[u.Username]; !ok {
			byName[u.Username] = u
		}
	}
	return &Ranker{table: table, index: index, users: byName, topN: topN}
}

// RecommendForUser returns up to topN catalog items ordered by similarity to
// the items the user liked. Liked items themselves are not excluded.
// Failures are *Error values with a user-level cause.
func (r *Ranker) RecommendForUser(username string) ([]Recommendation, error) {
	recs, err := r.recommend(username)
	metrics.RecordRecommendation(string(CauseOf(err)))
	return recs, err
}

func (r *Ranker) recommend(username string) ([]Recommendation, error) {
	user, ok := r.users[username]
	if !ok {
		return nil, newError(CauseUserNotFound, nil, "User '%s' not found", username)
	}
	if len(user.Feedback) == 0 {
		return nil, newError(CauseNoFeedback, nil, "No feedback found for '%s'", username)
	}

	liked := make(map[string]bool)
	for _, fb := range user.Feedback {
		if fb.Liked {
			liked[fb.ItemID] = true
		}
	}
	if len(liked) == 0 {
		return nil, newError(CauseNoLikedItems, nil, "No liked courses for '%s'", username)
	}

	// Resolve in catalog order so the pseudo-document is stable.
	var texts []string
	for _, doc := range r.table.Documents() {
		if liked[doc.ID] {
			texts = append(texts, doc.Text)
		}
	}
	if len(texts) == 0 {
		return nil, newError(CauseLikedItemsUnresolved, nil, "Liked courses for '%s' not found in catalog", username)
	}

	query := r.index.VectorOf(strings.Join(texts, " "))
	scores := r.index.Scores(query)

	docs := r.table.Documents()
	order := make([]int, len(docs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	n := r.topN
	if n > len(order) {
		n = len(order)
	}
	out := make([]Recommendation, n)
	for i := 0; i < n; i++ {
		d := docs[order[i]]
		out[i] = Recommendation{ID: d.ID, Title: d.Title, Score: scores[order[i]]}
	}
	return out, nil
}

// Outcome is one user's result from RecommendMany.
type Outcome struct {
	Username        string
	Recommendations []Recommendation
	Err             error
}

// RecommendMany ranks several users in parallel, at most limit at a time.
// Per-user failures are reported in the matching Outcome; the returned error
// is non-nil only if ctx is cancelled.
func (r *Ranker) RecommendMany(ctx context.Context, usernames []string, limit int) ([]Outcome, error) {
	out := make([]Outcome, len(usernames))
	g, gCtx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, name := range usernames {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			recs, err := r.RecommendForUser(name)
			out[i] = Outcome{Username: name, Recommendations: recs, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Stats describes the loaded catalog.
type Stats struct {
	KeptItems      int `json:"kept_items"`
	Users          int `json:"users"`
	VocabularySize int `json:"vocabulary_size"`
}

// Stats returns counts for the loaded catalog and users.
func (r *Ranker) Stats() Stats {
	return Stats{
		KeptItems:      r.table.Len(),
		Users:          len(r.users),
		VocabularySize: r.index.VocabularySize(),
	}
}
