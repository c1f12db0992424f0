// Package bookmatch recommends books whose aggregate rating profile is close
// to a given title.
//
// Example usage:
//
//	cfg, err := config.Load()
//	app, err := bookmatch.Open(ctx, cfg, prometheus.DefaultRegisterer)
//	defer app.Close()
//	res, err := app.Engine.Recommend(ctx, "The Lovely Bones: A Novel", 3)
//	for _, e := range res.Entries {
//	    fmt.Println(e) // "Title by Author"
//	}
package bookmatch

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hubenschmidt/go-bookmatch/catalog"
	"github.com/hubenschmidt/go-bookmatch/config"
	"github.com/hubenschmidt/go-bookmatch/core"
	"github.com/hubenschmidt/go-bookmatch/engine"
	"github.com/hubenschmidt/go-bookmatch/ingest"
	"github.com/hubenschmidt/go-bookmatch/logging"
	"github.com/hubenschmidt/go-bookmatch/monitor"
	"github.com/hubenschmidt/go-bookmatch/store"
	"github.com/hubenschmidt/go-bookmatch/vector"
)

// Engine aliases
type (
	Engine       = engine.Engine
	EngineConfig = engine.Config
	Result       = engine.Result
	DisplayEntry = engine.DisplayEntry
	Stats        = engine.Stats
)

// Catalog aliases
type (
	Record       = catalog.Record
	CatalogStore = store.CatalogStore
)

// Errors
var (
	ErrIngestion      = core.ErrIngestion
	ErrNotFound       = core.ErrNotFound
	ErrInvalidQuery   = core.ErrInvalidQuery
	ErrStaleReference = core.ErrStaleReference
)

// NormalizeTitle is the title key used for lookups.
func NormalizeTitle(title string) string {
	return catalog.NormalizeTitle(title)
}

// NewStore opens the catalog store a DSN selects.
func NewStore(dsn string) (CatalogStore, error) {
	return store.NewStore(dsn)
}

// App is a wired engine with its store.
type App struct {
	Engine *Engine
	Store  CatalogStore
}

// Open configures logging, opens the store, builds the engine and brings
// its index up (see Engine.Bootstrap). reg may be nil to skip metrics.
func Open(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) (*App, error) {
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	st, err := store.NewStore(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open catalog store: %w", err)
	}
	logging.Info().Str("backend", store.Backend(cfg.Database.DSN)).Msg("catalog store ready")

	var recorder monitor.Recorder = monitor.NewNoOpRecorder()
	if reg != nil {
		recorder = monitor.NewPrometheusRecorder(reg)
	}

	eng, err := engine.New(engine.Config{
		Store: st,
		Source: ingest.FileSource{
			BooksPath:   cfg.Ingest.BooksPath,
			RatingsPath: cfg.Ingest.RatingsPath,
			Comma:       cfg.Ingest.Comma(),
		},
		K:          cfg.Index.K,
		MaxResults: cfg.Recommend.MaxResults,
		Weights:    vector.Weights(cfg.Index.IndexWeights()),
		Recorder:   recorder,
	})
	if err != nil {
		st.Close()
		return nil, err
	}

	if err := eng.Bootstrap(ctx, cfg.Ingest.RebuildOnStartup); err != nil {
		st.Close()
		return nil, fmt.Errorf("bootstrap engine: %w", err)
	}
	return &App{Engine: eng, Store: st}, nil
}

func (a *App) Close() error {
	return a.Store.Close()
}
