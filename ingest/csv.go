// Package ingest reads the raw book metadata and rating datasets.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/hubenschmidt/go-bookmatch/catalog"
	"github.com/hubenschmidt/go-bookmatch/core"
)

// Column aliases, matched against normalized header names.
var (
	idColumns        = []string{"isbn", "id", "book_id"}
	titleColumns     = []string{"book_title", "title"}
	authorColumns    = []string{"book_author", "author"}
	yearColumns      = []string{"year_of_publication", "year", "publication_year"}
	publisherColumns = []string{"publisher"}
	ratingColumns    = []string{"book_rating", "rating"}
)

const ctxCheckEvery = 4096

func newReader(r io.Reader, comma rune) *csv.Reader {
	cr := csv.NewReader(r)
	if comma != 0 {
		cr.Comma = comma
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true
	return cr
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.NewReplacer("-", "_", " ", "_").Replace(h)
	return h
}

type header map[string]int

func readHeader(cr *csv.Reader, op string) (header, error) {
	row, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, core.Ingestionf(op, "empty input")
	}
	if err != nil {
		return nil, core.Ingestionf(op, "read header: %v", err)
	}
	h := make(header, len(row))
	for i, name := range row {
		h[normalizeHeader(name)] = i
	}
	return h, nil
}

func (h header) find(op string, required bool, aliases ...string) (int, error) {
	for _, a := range aliases {
		if i, ok := h[a]; ok {
			return i, nil
		}
	}
	if required {
		return -1, core.Ingestionf(op, "missing column %q", aliases[0])
	}
	return -1, nil
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// ReadBooks parses the metadata dataset. Columns beyond the five it needs
// are ignored; publisher is optional.
func ReadBooks(ctx context.Context, r io.Reader, comma rune) ([]catalog.BookMetadata, error) {
	const op = "ingest.books"
	cr := newReader(r, comma)
	h, err := readHeader(cr, op)
	if err != nil {
		return nil, err
	}

	idCol, err := h.find(op, true, idColumns...)
	if err != nil {
		return nil, err
	}
	titleCol, err := h.find(op, true, titleColumns...)
	if err != nil {
		return nil, err
	}
	authorCol, err := h.find(op, true, authorColumns...)
	if err != nil {
		return nil, err
	}
	yearCol, err := h.find(op, true, yearColumns...)
	if err != nil {
		return nil, err
	}
	publisherCol, _ := h.find(op, false, publisherColumns...)

	var books []catalog.BookMetadata
	for line := 2; ; line++ {
		if line%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("read books: %w", err)
			}
		}
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, core.Ingestionf(op, "line %d: %v", line, err)
		}
		if idCol >= len(row) {
			return nil, core.Ingestionf(op, "line %d: missing id field", line)
		}
		books = append(books, catalog.BookMetadata{
			ID:        row[idCol],
			Title:     field(row, titleCol),
			Author:    field(row, authorCol),
			Year:      field(row, yearCol),
			Publisher: field(row, publisherCol),
		})
	}
	return books, nil
}

// ReadRatings parses the rating dataset. A rating that is not a number
// fails the whole read.
func ReadRatings(ctx context.Context, r io.Reader, comma rune) ([]catalog.Observation, error) {
	const op = "ingest.ratings"
	cr := newReader(r, comma)
	h, err := readHeader(cr, op)
	if err != nil {
		return nil, err
	}

	idCol, err := h.find(op, true, idColumns...)
	if err != nil {
		return nil, err
	}
	ratingCol, err := h.find(op, true, ratingColumns...)
	if err != nil {
		return nil, err
	}

	var obs []catalog.Observation
	for line := 2; ; line++ {
		if line%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("read ratings: %w", err)
			}
		}
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, core.Ingestionf(op, "line %d: %v", line, err)
		}

		id := strings.TrimSpace(field(row, idCol))
		if id == "" {
			return nil, core.Ingestionf(op, "line %d: missing id", line)
		}
		raw := strings.TrimSpace(field(row, ratingCol))
		rating, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(rating) || math.IsInf(rating, 0) {
			return nil, core.Ingestionf(op, "line %d: rating %q is not a number", line, raw)
		}
		obs = append(obs, catalog.Observation{ID: id, Rating: rating})
	}
	return obs, nil
}
