// Package catalog turns raw rating observations and book metadata into
// canonical catalog records.
package catalog

import (
	"fmt"
	"strings"
)

// Record is the canonical representation of one title with its aggregated
// rating statistics.
type Record struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Author          string  `json:"author"`
	Year            int     `json:"year"`
	Publisher       string  `json:"publisher"`
	AvgRating       float64 `json:"avg_rating"`
	NumRatings      int     `json:"num_ratings"`
	StdRating       float64 `json:"std_rating"`
	NormalizedTitle string  `json:"normalized_title"`
}

// Display renders the record the way recommendation lists show it.
func (r Record) Display() string {
	return fmt.Sprintf("%s by %s", r.Title, r.Author)
}

// titlePunctuation is the fixed class stripped from titles before lookup.
var titlePunctuation = strings.NewReplacer(
	".", "",
	",", "",
	":", "",
	";", "",
	"(", "",
	")", "",
	"'", "",
	`"`, "",
)

// NormalizeTitle returns the lookup key for a title: punctuation removed,
// surrounding whitespace trimmed, lowercased. Applying it twice is a no-op.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(titlePunctuation.Replace(title)))
}
