package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hubenschmidt/go-bookmatch/store/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore implements CatalogStore using PostgreSQL.
type PostgresStore struct {
	sqlStore
}

// NewPostgresStore connects to dsn and applies the schema.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := runMigrations(db, migrations.Postgres, "postgres/001_init.sql"); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{sqlStore{
		db: db,
		q: queries{
			insert: `INSERT INTO books (
				isbn, seq, book_title, book_author, year_of_publication, publisher,
				avg_rating, num_ratings, std_rating, cleaned_book_title
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			byID: `SELECT ` + bookColumns + ` FROM books WHERE isbn = $1`,
			byTitle: `SELECT ` + bookColumns + ` FROM books WHERE cleaned_book_title = $1
				ORDER BY num_ratings DESC, seq ASC LIMIT 1`,
			all: `SELECT ` + bookColumns + ` FROM books ORDER BY isbn COLLATE "C"`,
		},
	}}, nil
}
