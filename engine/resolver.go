package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hubenschmidt/go-bookmatch/catalog"
	"github.com/hubenschmidt/go-bookmatch/core"
	"github.com/hubenschmidt/go-bookmatch/monitor"
	"github.com/hubenschmidt/go-bookmatch/store"
	"github.com/hubenschmidt/go-bookmatch/vector"
)

type titleAuthor struct {
	title, author string
}

// Recommend resolves rawTitle to a catalog record and returns up to
// maxResults comparable books, nearest first. maxResults <= 0 uses the
// configured default.
//
// The index is asked for k+1 neighbors because the queried book is its own
// nearest neighbor and is dropped. Books sharing a title and author with an
// earlier result are skipped. A neighbor the store no longer knows is
// logged and skipped.
func (e *Engine) Recommend(ctx context.Context, rawTitle string, maxResults int) (Result, error) {
	start := time.Now()
	res, outcome, err := e.recommend(ctx, rawTitle, maxResults)
	e.recorder.Recommendation(outcome, time.Since(start))
	return res, err
}

func (e *Engine) recommend(ctx context.Context, rawTitle string, maxResults int) (Result, string, error) {
	if maxResults <= 0 {
		maxResults = e.maxResults
	}
	res := Result{Query: rawTitle, Entries: []DisplayEntry{}}

	title := catalog.NormalizeTitle(rawTitle)
	if title == "" {
		res.NoMatch = true
		return res, monitor.OutcomeNoMatch, nil
	}

	match, err := e.store.GetByNormalizedTitle(ctx, title)
	if errors.Is(err, store.ErrNotFound) {
		res.NoMatch = true
		return res, monitor.OutcomeNoMatch, nil
	}
	if err != nil {
		return Result{}, monitor.OutcomeError, fmt.Errorf("resolve title %q: %w", rawTitle, err)
	}
	matched := entryOf(match, 0)
	res.Matched = &matched

	neighbors, err := e.handle.Query(vector.Build(match), e.k+1)
	if err != nil {
		return Result{}, monitor.OutcomeError, fmt.Errorf("recommend %q: %w", rawTitle, err)
	}

	seen := make(map[titleAuthor]struct{}, maxResults)
	for _, n := range neighbors {
		if len(res.Entries) == maxResults {
			break
		}
		if n.ID == match.ID {
			continue
		}

		r, err := e.store.GetByID(ctx, n.ID)
		if errors.Is(err, store.ErrNotFound) {
			e.recorder.StaleReference()
			e.log.Warn().
				Err(core.NewOpError("engine.recommend", n.ID, core.ErrStaleReference)).
				Str("query_id", match.ID).
				Msg("index neighbor missing from catalog")
			continue
		}
		if err != nil {
			return Result{}, monitor.OutcomeError, fmt.Errorf("load neighbor %s: %w", n.ID, err)
		}

		key := titleAuthor{r.Title, r.Author}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		res.Entries = append(res.Entries, entryOf(r, n.Distance))
	}

	if len(res.Entries) == 0 {
		return res, monitor.OutcomeEmpty, nil
	}
	return res, monitor.OutcomeOK, nil
}
