// Package engine ties the catalog store and the similarity index together
// and answers recommendation queries.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/hubenschmidt/go-bookmatch/catalog"
	"github.com/hubenschmidt/go-bookmatch/core"
	"github.com/hubenschmidt/go-bookmatch/ingest"
	"github.com/hubenschmidt/go-bookmatch/logging"
	"github.com/hubenschmidt/go-bookmatch/monitor"
	"github.com/hubenschmidt/go-bookmatch/store"
	"github.com/hubenschmidt/go-bookmatch/vector"
)

const (
	DefaultK          = 10
	DefaultMaxResults = 3

	reindexAttempts = 3
)

type Config struct {
	Store      store.CatalogStore
	Source     ingest.Source // used by Rebuild
	K          int           // neighbors examined per query, default 10
	MaxResults int           // default 3
	Weights    vector.Weights
	Recorder   monitor.Recorder
}

type Engine struct {
	store      store.CatalogStore
	source     ingest.Source
	k          int
	maxResults int
	weights    vector.Weights
	recorder   monitor.Recorder
	log        zerolog.Logger

	handle     vector.Handle
	rebuildMu  sync.Mutex
	lastReport atomic.Pointer[RebuildReport]
}

func New(cfg Config) (*Engine, error) {
	if cfg.Store == nil {
		return nil, errors.New("engine: store is required")
	}

	k := cfg.K
	if k <= 0 {
		k = DefaultK
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	weights := cfg.Weights
	if weights == (vector.Weights{}) {
		weights = vector.UnitWeights
	}
	recorder := cfg.Recorder
	if recorder == nil {
		recorder = monitor.NewNoOpRecorder()
	}

	return &Engine{
		store:      cfg.Store,
		source:     cfg.Source,
		k:          k,
		maxResults: maxResults,
		weights:    weights,
		recorder:   recorder,
		log:        logging.Component("engine"),
	}, nil
}

// Bootstrap prepares the engine at startup: a full rebuild when forced or
// when the store is empty, otherwise an index over the persisted catalog.
func (e *Engine) Bootstrap(ctx context.Context, forceRebuild bool) error {
	n, err := e.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count catalog: %w", err)
	}
	if forceRebuild || n == 0 {
		e.log.Info().Bool("forced", forceRebuild).Int("stored", n).Msg("rebuilding catalog")
		_, err := e.Rebuild(ctx)
		return err
	}
	e.log.Info().Int("stored", n).Msg("indexing persisted catalog")
	return e.Reindex(ctx)
}

// Rebuild ingests the configured source, replaces the store and publishes a
// new index.
func (e *Engine) Rebuild(ctx context.Context) (RebuildReport, error) {
	if e.source == nil {
		return RebuildReport{}, errors.New("rebuild: no ingest source configured")
	}
	return e.RebuildFrom(ctx, e.source)
}

// RebuildFrom is Rebuild with an explicit source. Any failure leaves the
// previous catalog and index serving.
func (e *Engine) RebuildFrom(ctx context.Context, src ingest.Source) (RebuildReport, error) {
	e.rebuildMu.Lock()
	defer e.rebuildMu.Unlock()

	start := time.Now()
	report, err := e.rebuild(ctx, src)
	elapsed := time.Since(start)
	e.recorder.Rebuild(err == nil, elapsed)
	if err != nil {
		e.log.Error().Err(err).Dur("elapsed", elapsed).Msg("rebuild failed")
		return RebuildReport{}, err
	}

	report.Duration = elapsed
	report.FinishedAt = time.Now()
	e.lastReport.Store(&report)

	e.log.Info().
		Int("records", report.Records).
		Int("unrated_books", report.UnratedBooks).
		Int("unknown_ratings", report.UnknownRatings).
		Int("duplicate_ids", report.DuplicateIDs).
		Int("imputed_years", report.ImputedYears).
		Str("index_version", report.IndexVersion).
		Dur("elapsed", elapsed).
		Msg("rebuild complete")
	return report, nil
}

func (e *Engine) rebuild(ctx context.Context, src ingest.Source) (RebuildReport, error) {
	records, norm, err := ingest.Build(ctx, src)
	if err != nil {
		return RebuildReport{}, fmt.Errorf("rebuild: %w", err)
	}
	if len(records) == 0 {
		return RebuildReport{}, core.Ingestionf("rebuild", "dataset produced no catalog records")
	}

	if err := e.store.Put(ctx, records); err != nil {
		return RebuildReport{}, fmt.Errorf("rebuild: store catalog: %w", err)
	}

	// The store already holds the new generation here. Until an index over
	// it is published, neighbors of the old index may be stale references.
	var ix *vector.Index
	for attempt := 1; ; attempt++ {
		ix, err = e.reindex(ctx)
		if err == nil {
			break
		}
		if attempt == reindexAttempts || ctx.Err() != nil {
			return RebuildReport{}, fmt.Errorf("rebuild: %w", err)
		}
		e.log.Warn().Err(err).Int("attempt", attempt).Msg("reindex after store replace failed, retrying")
	}
	return RebuildReport{NormalizeReport: norm, IndexVersion: ix.Version()}, nil
}

// Reindex rebuilds the similarity index from the current store contents.
func (e *Engine) Reindex(ctx context.Context) error {
	e.rebuildMu.Lock()
	defer e.rebuildMu.Unlock()
	_, err := e.reindex(ctx)
	return err
}

func (e *Engine) reindex(ctx context.Context) (*vector.Index, error) {
	records, err := e.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	entries := make([]vector.Entry, len(records))
	for i, r := range records {
		entries[i] = vector.Entry{ID: r.ID, Vector: vector.Build(r)}
	}
	ix := vector.NewIndex(entries, vector.WithWeights(e.weights))

	prev := e.handle.Swap(ix)
	e.recorder.CatalogSize(len(records))
	e.recorder.IndexSize(ix.Len())
	e.log.Debug().
		Int("entries", ix.Len()).
		Str("version", ix.Version()).
		Str("replaced", prev.Version()).
		Msg("index published")
	return ix, nil
}

// Stats reports catalog and index sizes.
func (e *Engine) Stats(ctx context.Context) (Stats, error) {
	n, err := e.store.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count catalog: %w", err)
	}
	ix := e.handle.Load()
	return Stats{
		CatalogSize:  n,
		IndexSize:    ix.Len(),
		IndexVersion: ix.Version(),
		IndexBuiltAt: ix.BuiltAt(),
		K:            e.k,
		LastRebuild:  e.lastReport.Load(),
	}, nil
}

// Book returns the catalog record for id.
func (e *Engine) Book(ctx context.Context, id string) (catalog.Record, error) {
	return e.store.GetByID(ctx, id)
}
