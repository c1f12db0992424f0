// Package store persists the normalized book catalog.
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hubenschmidt/go-bookmatch/catalog"
	"github.com/hubenschmidt/go-bookmatch/core"
)

// ErrNotFound is returned when no record matches an id or title.
var ErrNotFound = fmt.Errorf("book %w", core.ErrNotFound)

// CatalogStore maps book ids to records and resolves normalized titles.
//
// Put replaces the whole catalog atomically: concurrent readers see either
// the previous set or the new one, never a mix. When several records share a
// normalized title, GetByNormalizedTitle returns the one with the most
// ratings, ties going to the record that came first in the Put slice.
type CatalogStore interface {
	Put(ctx context.Context, records []catalog.Record) error
	GetByID(ctx context.Context, id string) (catalog.Record, error)
	GetByNormalizedTitle(ctx context.Context, title string) (catalog.Record, error)
	All(ctx context.Context) ([]catalog.Record, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// validate rejects batches a relational backend would refuse, so every
// backend fails the same way.
func validate(records []catalog.Record) error {
	seen := make(map[string]struct{}, len(records))
	for i, r := range records {
		if strings.TrimSpace(r.ID) == "" {
			return fmt.Errorf("record %d: empty id", i)
		}
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("record %d: duplicate id %q", i, r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	return nil
}

// resolveTitles picks the winning record index for every normalized title.
func resolveTitles(records []catalog.Record) map[string]int {
	winners := make(map[string]int, len(records))
	for i, r := range records {
		cur, ok := winners[r.NormalizedTitle]
		if !ok || r.NumRatings > records[cur].NumRatings {
			winners[r.NormalizedTitle] = i
		}
	}
	return winners
}

func sortedCopy(records []catalog.Record) []catalog.Record {
	out := append([]catalog.Record(nil), records...)
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}
