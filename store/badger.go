package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/hubenschmidt/go-bookmatch/catalog"
	"github.com/hubenschmidt/go-bookmatch/logging"
)

// Key layout. Every Put writes a fresh generation and then flips
// meta:current to it in one transaction; the generation before the previous
// one is dropped.
//
//	meta:current                   -> generation id
//	meta:previous                  -> generation id
//	gen:<g>:book:<isbn>            -> JSON record
//	gen:<g>:title:<cleaned title>  -> isbn of the winning record
//	gen:<g>:count                  -> decimal record count
const (
	currentKey  = "meta:current"
	previousKey = "meta:previous"
	genPrefix   = "gen:"
)

func genKey(gen, suffix string) []byte {
	return []byte(genPrefix + gen + ":" + suffix)
}

// BadgerStore implements CatalogStore on an embedded BadgerDB.
type BadgerStore struct {
	db *badger.DB
	mu sync.Mutex // serializes Put
}

// NewBadgerStore opens (or creates) a BadgerDB catalog in dir. An empty dir
// keeps the catalog in memory.
func NewBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(logging.NewBadgerLogger())
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return OpenBadgerStore(db)
}

// OpenBadgerStore wraps an already opened database and removes generations
// left behind by an interrupted Put.
func OpenBadgerStore(db *badger.DB) (*BadgerStore, error) {
	s := &BadgerStore{db: db}
	if err := s.sweep(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sweep generations: %w", err)
	}
	return s, nil
}

func (s *BadgerStore) Put(ctx context.Context, records []catalog.Record) error {
	if err := validate(records); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	gen := uuid.NewString()
	if err := s.writeGeneration(ctx, gen, records); err != nil {
		s.dropGeneration(gen)
		return err
	}

	var stale string
	err := s.db.Update(func(txn *badger.Txn) error {
		cur, err := readString(txn, currentKey)
		if err != nil {
			return err
		}
		stale, err = readString(txn, previousKey)
		if err != nil {
			return err
		}
		if cur != "" {
			if err := txn.Set([]byte(previousKey), []byte(cur)); err != nil {
				return fmt.Errorf("set previous generation: %w", err)
			}
		}
		return txn.Set([]byte(currentKey), []byte(gen))
	})
	if err != nil {
		s.dropGeneration(gen)
		return fmt.Errorf("publish generation: %w", err)
	}

	if stale != "" {
		s.dropGeneration(stale)
	}
	return nil
}

func (s *BadgerStore) writeGeneration(ctx context.Context, gen string, records []catalog.Record) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for i, r := range records {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal book %s: %w", r.ID, err)
		}
		if err := wb.Set(genKey(gen, "book:"+r.ID), data); err != nil {
			return fmt.Errorf("set book %s: %w", r.ID, err)
		}
	}

	for title, idx := range resolveTitles(records) {
		if err := wb.Set(genKey(gen, "title:"+title), []byte(records[idx].ID)); err != nil {
			return fmt.Errorf("set title %q: %w", title, err)
		}
	}

	if err := wb.Set(genKey(gen, "count"), []byte(strconv.Itoa(len(records)))); err != nil {
		return fmt.Errorf("set count: %w", err)
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush generation: %w", err)
	}
	return nil
}

func (s *BadgerStore) dropGeneration(gen string) {
	if err := s.db.DropPrefix([]byte(genPrefix + gen + ":")); err != nil {
		logging.Warn().Err(err).Str("generation", gen).Msg("drop catalog generation failed")
	}
}

// sweep drops every generation that is neither current nor previous.
func (s *BadgerStore) sweep() error {
	keep := map[string]bool{}
	var found []string

	err := s.db.View(func(txn *badger.Txn) error {
		for _, k := range []string{currentKey, previousKey} {
			g, err := readString(txn, k)
			if err != nil {
				return err
			}
			if g != "" {
				keep[g] = true
			}
		}

		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(genPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); {
			rest := bytes.TrimPrefix(it.Item().Key(), prefix)
			end := bytes.IndexByte(rest, ':')
			if end < 0 {
				it.Next()
				continue
			}
			gen := string(rest[:end])
			found = append(found, gen)
			// skip the rest of this generation
			it.Seek([]byte(genPrefix + gen + ";"))
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, gen := range found {
		if !keep[gen] {
			if err := s.db.DropPrefix([]byte(genPrefix + gen + ":")); err != nil {
				return fmt.Errorf("drop generation %s: %w", gen, err)
			}
		}
	}
	return nil
}

func readString(txn *badger.Txn, key string) (string, error) {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return string(val), nil
}

func getRecord(txn *badger.Txn, gen, id string) (catalog.Record, error) {
	var r catalog.Record
	item, err := txn.Get(genKey(gen, "book:"+id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return r, ErrNotFound
	}
	if err != nil {
		return r, fmt.Errorf("get book: %w", err)
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &r)
	})
	if err != nil {
		return r, fmt.Errorf("decode book %s: %w", id, err)
	}
	return r, nil
}

func (s *BadgerStore) GetByID(ctx context.Context, id string) (catalog.Record, error) {
	var r catalog.Record
	err := s.db.View(func(txn *badger.Txn) error {
		gen, err := readString(txn, currentKey)
		if err != nil {
			return err
		}
		if gen == "" {
			return ErrNotFound
		}
		r, err = getRecord(txn, gen, id)
		return err
	})
	return r, err
}

func (s *BadgerStore) GetByNormalizedTitle(ctx context.Context, title string) (catalog.Record, error) {
	var r catalog.Record
	err := s.db.View(func(txn *badger.Txn) error {
		gen, err := readString(txn, currentKey)
		if err != nil {
			return err
		}
		if gen == "" {
			return ErrNotFound
		}
		id, err := readString(txn, genPrefix+gen+":title:"+title)
		if err != nil {
			return err
		}
		if id == "" {
			return ErrNotFound
		}
		r, err = getRecord(txn, gen, id)
		return err
	})
	return r, err
}

func (s *BadgerStore) All(ctx context.Context) ([]catalog.Record, error) {
	var records []catalog.Record
	err := s.db.View(func(txn *badger.Txn) error {
		gen, err := readString(txn, currentKey)
		if err != nil || gen == "" {
			return err
		}

		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := genKey(gen, "book:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var r catalog.Record
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			})
			if err != nil {
				return fmt.Errorf("decode book: %w", err)
			}
			records = append(records, r)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return records, nil
}

func (s *BadgerStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.View(func(txn *badger.Txn) error {
		gen, err := readString(txn, currentKey)
		if err != nil || gen == "" {
			return err
		}
		raw, err := readString(txn, genPrefix+gen+":count")
		if err != nil || raw == "" {
			return err
		}
		n, err = strconv.Atoi(raw)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return n, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
