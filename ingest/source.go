package ingest

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/hubenschmidt/go-bookmatch/catalog"
	"github.com/hubenschmidt/go-bookmatch/core"
)

// Dataset is the raw input of one catalog rebuild.
type Dataset struct {
	Books   []catalog.BookMetadata
	Ratings []catalog.Observation
}

// Source loads a Dataset.
type Source interface {
	Load(ctx context.Context) (Dataset, error)
}

// FileSource reads the metadata and rating files from disk.
type FileSource struct {
	BooksPath   string
	RatingsPath string
	Comma       rune // default ','
}

// Load reads both files concurrently; either failing fails the load.
func (s FileSource) Load(ctx context.Context) (Dataset, error) {
	var ds Dataset
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		f, err := openInput("ingest.books", s.BooksPath)
		if err != nil {
			return err
		}
		defer f.Close()
		ds.Books, err = ReadBooks(gctx, bufio.NewReader(f), s.Comma)
		return err
	})
	g.Go(func() error {
		f, err := openInput("ingest.ratings", s.RatingsPath)
		if err != nil {
			return err
		}
		defer f.Close()
		ds.Ratings, err = ReadRatings(gctx, bufio.NewReader(f), s.Comma)
		return err
	})

	if err := g.Wait(); err != nil {
		return Dataset{}, err
	}
	return ds, nil
}

func openInput(op, path string) (*os.File, error) {
	if path == "" {
		return nil, core.Ingestionf(op, "no input path configured")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, core.Ingestionf(op, "open %s: %v", path, err)
	}
	return f, nil
}

// StaticSource serves an in-memory Dataset.
type StaticSource Dataset

func (s StaticSource) Load(ctx context.Context) (Dataset, error) {
	if err := ctx.Err(); err != nil {
		return Dataset{}, err
	}
	return Dataset(s), nil
}

// Build loads the dataset and normalizes it into catalog records.
func Build(ctx context.Context, src Source) ([]catalog.Record, catalog.NormalizeReport, error) {
	ds, err := src.Load(ctx)
	if err != nil {
		return nil, catalog.NormalizeReport{}, fmt.Errorf("load dataset: %w", err)
	}
	records, report, err := catalog.Normalize(ds.Books, catalog.Aggregate(ds.Ratings))
	if err != nil {
		return nil, report, fmt.Errorf("normalize catalog: %w", err)
	}
	return records, report, nil
}
