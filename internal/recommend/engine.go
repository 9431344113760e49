// Package recommend ranks catalog items for a user by TF-IDF similarity to
// the items that user liked.
//
// An Engine fetches a fresh catalog and user snapshot from its data source,
// normalizes and indexes the catalog, and hands back a Ranker. Catalog-level
// failures surface from Load; user-level failures from Ranker methods. All
// failures are *Error values carrying a Cause.
package recommend

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/learnnova/coursematch/internal/catalog"
	"github.com/learnnova/coursematch/internal/metrics"
	"github.com/learnnova/coursematch/internal/similarity"
	"github.com/learnnova/coursematch/internal/source"
)

// Options configures an Engine.
type Options struct {
	TopN        int // results per user; <= 0 means DefaultTopN
	Concurrency int // parallel users in RecommendMany; <= 0 means unbounded
	Logger      *slog.Logger
}

// Engine builds Rankers from a data source.
type Engine struct {
	src    source.DataSource
	opts   Options
	logger *slog.Logger
}

// NewEngine creates an Engine reading from src.
func NewEngine(src source.DataSource, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{src: src, opts: opts, logger: logger}
}

// Load fetches the catalog and users, then builds the normalized table and
// similarity index. The returned Ranker reflects the snapshot at call time.
func (e *Engine) Load(ctx context.Context) (*Ranker, error) {
	start := time.Now()
	runID := uuid.New().String()
	log := e.logger.With("run_id", runID)

	var (
		items []catalog.Item
		users []source.User
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = e.src.FetchItems(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		users, err = e.src.FetchUsers(gCtx)
		return err
	})
	if err := g.Wait(); err != nil {
		metrics.RecordCatalogError(string(CauseDataSourceUnavailable))
		log.Error("fetching snapshots failed", "error", err)
		if !errors.Is(err, source.ErrUnavailable) {
			err = errors.Join(source.ErrUnavailable, err)
		}
		return nil, newError(CauseDataSourceUnavailable, err, "Data source connection failed: %v", err)
	}

	table, err := catalog.Normalize(items)
	if err != nil {
		metrics.RecordCatalogError(string(CauseEmptyCatalog))
		if errors.Is(err, catalog.ErrNoItems) {
			return nil, newError(CauseEmptyCatalog, err, "No courses found")
		}
		return nil, newError(CauseEmptyCatalog, err, "No valid course text found")
	}

	index, err := similarity.Build(table.IDs(), table.Texts())
	if err != nil {
		metrics.RecordCatalogError(string(CauseEmptyCatalog))
		return nil, newError(CauseEmptyCatalog, err, "No valid course text found")
	}

	elapsed := time.Since(start)
	metrics.RecordCatalogLoad(elapsed, table.Len(), index.VocabularySize())
	log.Debug("catalog loaded",
		"items", len(items),
		"kept_items", table.Len(),
		"users", len(users),
		"vocabulary", index.VocabularySize(),
		"duration_ms", elapsed.Milliseconds(),
	)

	return NewRanker(table, index, users, e.opts.TopN), nil
}

// Recommend loads a fresh snapshot and ranks the catalog for one user.
func (e *Engine) Recommend(ctx context.Context, username string) ([]Recommendation, error) {
	r, err := e.Load(ctx)
	if err != nil {
		return nil, err
	}
	return r.RecommendForUser(username)
}

// RecommendMany loads one snapshot and ranks it for every username.
func (e *Engine) RecommendMany(ctx context.Context, usernames []string) ([]Outcome, error) {
	r, err := e.Load(ctx)
	if err != nil {
		return nil, err
	}
	return r.RecommendMany(ctx, usernames, e.opts.Concurrency)
}
