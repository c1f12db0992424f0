package engine

import (
	"time"

	"github.com/hubenschmidt/go-bookmatch/catalog"
)

// DisplayEntry is one recommended book.
type DisplayEntry struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Author   string  `json:"author"`
	Distance float64 `json:"distance"`
}

// String renders "Title by Author".
func (d DisplayEntry) String() string {
	return d.Title + " by " + d.Author
}

func entryOf(r catalog.Record, distance float64) DisplayEntry {
	return DisplayEntry{ID: r.ID, Title: r.Title, Author: r.Author, Distance: distance}
}

// Result is the answer to one recommendation query. NoMatch means the title
// resolved to no catalog record; an empty Entries with NoMatch false means
// the title matched but no comparable book remained.
type Result struct {
	Query   string         `json:"query"`
	NoMatch bool           `json:"no_match"`
	Matched *DisplayEntry  `json:"matched,omitempty"`
	Entries []DisplayEntry `json:"entries"`
}

// RebuildReport summarizes one catalog rebuild.
type RebuildReport struct {
	catalog.NormalizeReport
	IndexVersion string        `json:"index_version"`
	Duration     time.Duration `json:"duration"`
	FinishedAt   time.Time     `json:"finished_at"`
}

// Stats describes the live catalog and index.
type Stats struct {
	CatalogSize  int            `json:"catalog_size"`
	IndexSize    int            `json:"index_size"`
	IndexVersion string         `json:"index_version,omitempty"`
	IndexBuiltAt time.Time      `json:"index_built_at"`
	K            int            `json:"k"`
	LastRebuild  *RebuildReport `json:"last_rebuild,omitempty"`
}
