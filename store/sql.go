package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/hubenschmidt/go-bookmatch/catalog"
)

const bookColumns = `isbn, book_title, book_author, year_of_publication, publisher,
	avg_rating, num_ratings, std_rating, cleaned_book_title`

// queries holds the dialect-specific statements of a SQL backend.
type queries struct {
	insert  string
	byID    string
	byTitle string
	all     string
}

// sqlStore implements CatalogStore on database/sql. The SQLite and
// PostgreSQL backends differ only in driver, placeholders and schema.
type sqlStore struct {
	db *sql.DB
	q  queries
}

func runMigrations(db *sql.DB, files fs.FS, name string) error {
	data, err := fs.ReadFile(files, name)
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	_, err = db.Exec(string(data))
	if err != nil {
		return fmt.Errorf("exec migration: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (catalog.Record, error) {
	var r catalog.Record
	err := row.Scan(
		&r.ID, &r.Title, &r.Author, &r.Year, &r.Publisher,
		&r.AvgRating, &r.NumRatings, &r.StdRating, &r.NormalizedTitle,
	)
	return r, err
}

// Put replaces every row inside one transaction. The seq column records the
// position in records and breaks title collisions.
func (s *sqlStore) Put(ctx context.Context, records []catalog.Record) error {
	if err := validate(records); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM books`); err != nil {
		return fmt.Errorf("clear books: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.q.insert)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		_, err := stmt.ExecContext(ctx,
			r.ID, i, r.Title, r.Author, r.Year, r.Publisher,
			r.AvgRating, r.NumRatings, r.StdRating, r.NormalizedTitle,
		)
		if err != nil {
			return fmt.Errorf("insert book %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit books: %w", err)
	}
	return nil
}

func (s *sqlStore) GetByID(ctx context.Context, id string) (catalog.Record, error) {
	r, err := scanRecord(s.db.QueryRowContext(ctx, s.q.byID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return r, ErrNotFound
	}
	if err != nil {
		return r, fmt.Errorf("query book: %w", err)
	}
	return r, nil
}

func (s *sqlStore) GetByNormalizedTitle(ctx context.Context, title string) (catalog.Record, error) {
	r, err := scanRecord(s.db.QueryRowContext(ctx, s.q.byTitle, title))
	if errors.Is(err, sql.ErrNoRows) {
		return r, ErrNotFound
	}
	if err != nil {
		return r, fmt.Errorf("query book by title: %w", err)
	}
	return r, nil
}

func (s *sqlStore) All(ctx context.Context) ([]catalog.Record, error) {
	rows, err := s.db.QueryContext(ctx, s.q.all)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	var records []catalog.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *sqlStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return n, nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}
