package recommend

import (
	"context"
	"errors"
	"testing"

	"github.com/learnnova/coursematch/internal/catalog"
	"github.com/learnnova/coursematch/internal/source"
)

func TestEngine_Recommend(t *testing.T) {
	src := source.NewMemory(pythonCatalog(), []source.User{{Username: "alice", Feedback: liked("1")}})
	e := NewEngine(src, Options{})

	recs, err := e.Recommend(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(recs) != 3 || recs[1].ID != "2" {
		t.Errorf("recs = %+v", recs)
	}
}

func TestEngine_Load_CatalogErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   *source.Memory
		cause Cause
		inner error
	}{
		{
			name:  "unavailable",
			src:   &source.Memory{Err: errors.New("dial tcp: connection refused")},
			cause: CauseDataSourceUnavailable,
			inner: source.ErrUnavailable,
		},
		{
			name:  "no items",
			src:   source.NewMemory(nil, []source.User{{Username: "alice"}}),
			cause: CauseEmptyCatalog,
			inner: catalog.ErrNoItems,
		},
		{
			name:  "no usable text",
			src:   source.NewMemory([]catalog.Item{{ID: "1"}, {ID: "2", Title: " "}}, nil),
			cause: CauseEmptyCatalog,
			inner: catalog.ErrNoUsableText,
		},
		{
			name:  "stop words only",
			src:   source.NewMemory([]catalog.Item{{ID: "1", Title: "The"}}, nil),
			cause: CauseEmptyCatalog,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewEngine(tt.src, Options{}).Load(context.Background())
			if r != nil {
				t.Error("expected nil ranker")
			}
			if got := CauseOf(err); got != tt.cause {
				t.Fatalf("cause = %q, want %q (err = %v)", got, tt.cause, err)
			}
			if !CauseOf(err).CatalogLevel() {
				t.Errorf("cause %s not catalog level", CauseOf(err))
			}
			if tt.inner != nil && !errors.Is(err, tt.inner) {
				t.Errorf("err = %v, want wrapping %v", err, tt.inner)
			}
		})
	}
}

func TestEngine_RecommendMany_SharesOneLoad(t *testing.T) {
	src := &countingSource{Memory: source.NewMemory(pythonCatalog(), []source.User{
		{Username: "alice", Feedback: liked("1")},
		{Username: "bob"},
	})}
	out, err := NewEngine(src, Options{Concurrency: 2}).RecommendMany(context.Background(), []string{"alice", "bob"})
	if err != nil {
		t.Fatalf("RecommendMany: %v", err)
	}
	if src.items != 1 || src.users != 1 {
		t.Errorf("fetches = %d items, %d users; want 1 each", src.items, src.users)
	}
	if CauseOf(out[1].Err) != CauseNoFeedback {
		t.Errorf("bob err = %v, want NoFeedback", out[1].Err)
	}
}

type countingSource struct {
	*source.Memory
	items, users int
}

func (c *countingSource) FetchItems(ctx context.Context) ([]catalog.Item, error) {
	c.items++
	return c.Memory.FetchItems(ctx)
}

func (c *countingSource) FetchUsers(ctx context.Context) ([]source.User, error) {
	c.users++
	return c.Memory.FetchUsers(ctx)
}
