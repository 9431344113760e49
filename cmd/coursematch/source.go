package main

import (
	"context"
	"fmt"

	"github.com/learnnova/coursematch/internal/config"
	"github.com/learnnova/coursematch/internal/mongostore"
	"github.com/learnnova/coursematch/internal/recommend"
	"github.com/learnnova/coursematch/internal/source"
	"github.com/learnnova/coursematch/internal/storage"
)

// openSource constructs the data source selected by source.driver. The
// returned close function releases it.
func openSource(ctx context.Context, cfg config.Config) (source.DataSource, func() error, error) {
	switch cfg.Source.Driver {
	case config.DriverSQLite:
		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: opening storage: %w", source.ErrUnavailable, err)
		}
		return store, store.Close, nil
	case config.DriverMongo:
		store, err := mongostore.Open(ctx, cfg.Source.MongoURI, cfg.Source.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		return store, func() error { return store.Close(context.Background()) }, nil
	case config.DriverFile:
		return source.NewFile(cfg.Source.SnapshotPath), func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown source driver %q", cfg.Source.Driver)
}

func newEngine(src source.DataSource, cfg config.Config) *recommend.Engine {
	return recommend.NewEngine(src, recommend.Options{
		TopN:        cfg.Recommend.TopN,
		Concurrency: cfg.Recommend.Concurrency,
	})
}
