package store

import (
	"fmt"
	"strings"
)

const defaultSQLitePath = "data/bookmatch.db"

// NewStore creates a catalog store based on the DSN.
// - Empty DSN: SQLite at data/bookmatch.db
// - postgres:// or postgresql://: PostgreSQL
// - badger://<dir>: BadgerDB directory
// - memory://: process memory, lost on exit
// - Anything else: SQLite at the specified path
func NewStore(dsn string) (CatalogStore, error) {
	switch {
	case dsn == "":
		return NewSQLiteStore(defaultSQLitePath)
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		s, err := NewPostgresStore(dsn)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return s, nil
	case strings.HasPrefix(dsn, "badger://"):
		s, err := NewBadgerStore(strings.TrimPrefix(dsn, "badger://"))
		if err != nil {
			return nil, fmt.Errorf("badger: %w", err)
		}
		return s, nil
	case strings.HasPrefix(dsn, "memory://"):
		return NewMemoryStore(), nil
	}
	return NewSQLiteStore(dsn)
}

// Backend names the storage engine a DSN selects.
func Backend(dsn string) string {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres"
	case strings.HasPrefix(dsn, "badger://"):
		return "badger"
	case strings.HasPrefix(dsn, "memory://"):
		return "memory"
	}
	return "sqlite"
}
