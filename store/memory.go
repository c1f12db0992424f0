package store

import (
	"context"
	"sync/atomic"

	"github.com/hubenschmidt/go-bookmatch/catalog"
)

type memorySnapshot struct {
	records []catalog.Record // sorted by id
	byID    map[string]int
	byTitle map[string]int // index into records
}

// MemoryStore keeps the catalog in process memory. Put publishes a new
// snapshot with one pointer swap.
type MemoryStore struct {
	snap atomic.Pointer[memorySnapshot]
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	s.snap.Store(&memorySnapshot{byID: map[string]int{}, byTitle: map[string]int{}})
	return s
}

func (s *MemoryStore) Put(ctx context.Context, records []catalog.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validate(records); err != nil {
		return err
	}

	sorted := sortedCopy(records)
	byID := make(map[string]int, len(sorted))
	for i, r := range sorted {
		byID[r.ID] = i
	}
	byTitle := make(map[string]int, len(sorted))
	for title, idx := range resolveTitles(records) {
		byTitle[title] = byID[records[idx].ID]
	}

	s.snap.Store(&memorySnapshot{records: sorted, byID: byID, byTitle: byTitle})
	return nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (catalog.Record, error) {
	snap := s.snap.Load()
	i, ok := snap.byID[id]
	if !ok {
		return catalog.Record{}, ErrNotFound
	}
	return snap.records[i], nil
}

func (s *MemoryStore) GetByNormalizedTitle(ctx context.Context, title string) (catalog.Record, error) {
	snap := s.snap.Load()
	i, ok := snap.byTitle[title]
	if !ok {
		return catalog.Record{}, ErrNotFound
	}
	return snap.records[i], nil
}

func (s *MemoryStore) All(ctx context.Context) ([]catalog.Record, error) {
	snap := s.snap.Load()
	return append([]catalog.Record(nil), snap.records...), nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	return len(s.snap.Load().records), nil
}

func (s *MemoryStore) Close() error {
	return nil
}
