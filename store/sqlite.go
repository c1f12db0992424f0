package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hubenschmidt/go-bookmatch/store/migrations"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements CatalogStore using SQLite.
type SQLiteStore struct {
	sqlStore
}

// NewSQLiteStore opens (or creates) the SQLite database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		path = defaultSQLitePath
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", withPragmas(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := runMigrations(db, migrations.SQLite, "sqlite/001_init.sql"); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{sqlStore{
		db: db,
		q: queries{
			insert: `INSERT INTO books (
				isbn, seq, book_title, book_author, year_of_publication, publisher,
				avg_rating, num_ratings, std_rating, cleaned_book_title
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			byID: `SELECT ` + bookColumns + ` FROM books WHERE isbn = ?`,
			byTitle: `SELECT ` + bookColumns + ` FROM books WHERE cleaned_book_title = ?
				ORDER BY num_ratings DESC, seq ASC LIMIT 1`,
			all: `SELECT ` + bookColumns + ` FROM books ORDER BY isbn`,
		},
	}}, nil
}

// withPragmas enables WAL and a busy timeout on every pooled connection so
// readers are not blocked by a replacing Put.
func withPragmas(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}
