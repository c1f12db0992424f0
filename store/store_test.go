package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubenschmidt/go-bookmatch/catalog"
	"github.com/hubenschmidt/go-bookmatch/core"
)

func rec(id, title, author string, numRatings int) catalog.Record {
	return catalog.Record{
		ID:              id,
		Title:           title,
		Author:          author,
		Year:            2000,
		Publisher:       "Pub",
		AvgRating:       5,
		NumRatings:      numRatings,
		StdRating:       1.5,
		NormalizedTitle: catalog.NormalizeTitle(title),
	}
}

func backends(t *testing.T) map[string]func(t *testing.T) CatalogStore {
	t.Helper()
	b := map[string]func(t *testing.T) CatalogStore{
		"memory": func(t *testing.T) CatalogStore {
			return NewMemoryStore()
		},
		"sqlite": func(t *testing.T) CatalogStore {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "books.db"))
			require.NoError(t, err)
			return s
		},
		"badger": func(t *testing.T) CatalogStore {
			db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
			require.NoError(t, err)
			s, err := OpenBadgerStore(db)
			require.NoError(t, err)
			return s
		},
	}
	if dsn := os.Getenv("BOOKMATCH_TEST_POSTGRES_DSN"); dsn != "" {
		b["postgres"] = func(t *testing.T) CatalogStore {
			s, err := NewPostgresStore(dsn)
			require.NoError(t, err)
			require.NoError(t, s.Put(context.Background(), nil))
			return s
		}
	}
	return b
}

func forEachBackend(t *testing.T, fn func(t *testing.T, s CatalogStore)) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			t.Cleanup(func() { s.Close() })
			fn(t, s)
		})
	}
}

func TestEmptyStore(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s CatalogStore) {
		ctx := context.Background()

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)

		all, err := s.All(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)

		_, err = s.GetByID(ctx, "x")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.True(t, errors.Is(err, core.ErrNotFound))

		_, err = s.GetByNormalizedTitle(ctx, "dune")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPutAndGet(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s CatalogStore) {
		ctx := context.Background()
		records := []catalog.Record{
			rec("b", "Emma", "Jane Austen", 4),
			rec("a", "Dune", "Frank Herbert", 10),
			rec("c", "Harry Potter: Book 1", "J. K. Rowling", 30),
		}
		require.NoError(t, s.Put(ctx, records))

		got, err := s.GetByID(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, records[1], got)

		got, err = s.GetByNormalizedTitle(ctx, "harry potter book 1")
		require.NoError(t, err)
		assert.Equal(t, "c", got.ID)

		_, err = s.GetByNormalizedTitle(ctx, "Dune")
		assert.ErrorIs(t, err, ErrNotFound, "lookup is exact on the normalized key")

		all, err := s.All(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{"a", "b", "c"}, []string{all[0].ID, all[1].ID, all[2].ID})

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})
}

func TestTitleCollision(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s CatalogStore) {
		ctx := context.Background()
		records := []catalog.Record{
			rec("3", "Wuthering Heights", "Emily Bronte", 5),
			rec("1", "Wuthering Heights.", "Emily Bronte", 12),
			rec("2", "wuthering heights", "E. Bronte", 12),
			rec("4", "Jane Eyre", "Charlotte Bronte", 1),
		}
		require.NoError(t, s.Put(ctx, records))

		got, err := s.GetByNormalizedTitle(ctx, "wuthering heights")
		require.NoError(t, err)
		assert.Equal(t, "1", got.ID, "most ratings wins, first in the batch breaks ties")

		for _, id := range []string{"1", "2", "3"} {
			_, err := s.GetByID(ctx, id)
			assert.NoError(t, err, "colliding record %s stays addressable", id)
		}
	})
}

func TestPutReplaces(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s CatalogStore) {
		ctx := context.Background()
		require.NoError(t, s.Put(ctx, []catalog.Record{rec("a", "Dune", "Frank Herbert", 1)}))
		require.NoError(t, s.Put(ctx, []catalog.Record{rec("b", "Emma", "Jane Austen", 2)}))
		require.NoError(t, s.Put(ctx, []catalog.Record{
			rec("c", "Persuasion", "Jane Austen", 2),
			rec("d", "Beloved", "Toni Morrison", 2),
		}))

		_, err := s.GetByID(ctx, "a")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.GetByNormalizedTitle(ctx, "emma")
		assert.ErrorIs(t, err, ErrNotFound)

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})
}

func TestPutRejectsInvalidBatch(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s CatalogStore) {
		ctx := context.Background()
		require.NoError(t, s.Put(ctx, []catalog.Record{rec("a", "Dune", "Frank Herbert", 1)}))

		err := s.Put(ctx, []catalog.Record{
			rec("x", "One", "A", 1),
			rec("x", "Two", "B", 1),
		})
		require.Error(t, err)

		err = s.Put(ctx, []catalog.Record{rec(" ", "Blank", "A", 1)})
		require.Error(t, err)

		got, err := s.GetByID(ctx, "a")
		require.NoError(t, err, "failed Put leaves the previous catalog in place")
		assert.Equal(t, "Dune", got.Title)
	})
}

func TestConcurrentReadsDuringPut(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s CatalogStore) {
		ctx := context.Background()
		gen := func(author string) []catalog.Record {
			return []catalog.Record{
				rec("a", "Dune", author, 1),
				rec("b", "Emma", author, 1),
			}
		}
		require.NoError(t, s.Put(ctx, gen("old")))

		var wg sync.WaitGroup
		stop := make(chan struct{})
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					select {
					case <-stop:
						return
					default:
					}
					all, err := s.All(ctx)
					if !assert.NoError(t, err) {
						return
					}
					if !assert.Len(t, all, 2) {
						return
					}
					assert.Equal(t, all[0].Author, all[1].Author, "reader saw a mixed catalog")
				}
			}()
		}

		for i := 0; i < 10; i++ {
			author := "old"
			if i%2 == 0 {
				author = "new"
			}
			require.NoError(t, s.Put(ctx, gen(author)))
		}
		close(stop)
		wg.Wait()
	})
}

func TestBadgerReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewBadgerStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, []catalog.Record{rec("a", "Dune", "Frank Herbert", 1)}))
	require.NoError(t, s.Put(ctx, []catalog.Record{rec("b", "Emma", "Jane Austen", 1)}))
	require.NoError(t, s.Close())

	s, err = NewBadgerStore(dir)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetByNormalizedTitle(ctx, "emma")
	require.NoError(t, err)
	assert.Equal(t, "b", got.ID)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestResolveTitles(t *testing.T) {
	records := []catalog.Record{
		rec("1", "A", "x", 3),
		rec("2", "A", "y", 7),
		rec("3", "A", "z", 7),
		rec("4", "B", "x", 0),
	}
	winners := resolveTitles(records)
	assert.Equal(t, map[string]int{"a": 1, "b": 3}, winners)
}

func TestNewStoreBackend(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{"", "sqlite"},
		{"data/books.db", "sqlite"},
		{"postgres://u:p@localhost/books", "postgres"},
		{"postgresql://localhost/books", "postgres"},
		{"badger:///var/lib/bookmatch", "badger"},
		{"memory://", "memory"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Backend(tt.dsn), tt.dsn)
	}

	s, err := NewStore("memory://")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = NewStore(filepath.Join(t.TempDir(), "x.db"))
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &SQLiteStore{}, s)
}
