package catalog

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/hubenschmidt/go-bookmatch/core"
)

// BookMetadata is one raw metadata row. Year is kept as the source text
// because it is coerced during normalization.
type BookMetadata struct {
	ID        string
	Title     string
	Author    string
	Year      string
	Publisher string
}

// NormalizeReport counts what normalization kept, dropped and imputed.
type NormalizeReport struct {
	Records        int `json:"records"`
	UnratedBooks   int `json:"unrated_books"`   // metadata rows without any rating
	UnknownRatings int `json:"unknown_ratings"` // rated ids without metadata
	DuplicateIDs   int `json:"duplicate_ids"`
	ImputedYears   int `json:"imputed_years"`
	MedianYear     int `json:"median_year"`
}

// Normalize inner-joins metadata with rating statistics and produces records
// sorted by id. Years that do not parse are replaced by the median of the
// years that did.
func Normalize(books []BookMetadata, stats map[string]RatingStats) ([]Record, NormalizeReport, error) {
	var report NormalizeReport

	seen := make(map[string]struct{}, len(books))
	joined := make([]BookMetadata, 0, len(books))
	for i, b := range books {
		id := strings.TrimSpace(b.ID)
		if id == "" {
			return nil, report, core.Ingestionf("normalize", "metadata row %d has no id", i+1)
		}
		if _, dup := seen[id]; dup {
			report.DuplicateIDs++
			continue
		}
		seen[id] = struct{}{}

		if _, rated := stats[id]; !rated {
			report.UnratedBooks++
			continue
		}
		b.ID = id
		joined = append(joined, b)
	}
	for id := range stats {
		if _, ok := seen[id]; !ok {
			report.UnknownRatings++
		}
	}

	years := make([]float64, len(joined))
	parsed := make([]bool, len(joined))
	valid := make([]float64, 0, len(joined))
	for i, b := range joined {
		if y, ok := parseYear(b.Year); ok {
			years[i] = y
			parsed[i] = true
			valid = append(valid, y)
		}
	}

	if len(valid) < len(joined) {
		if len(valid) == 0 {
			return nil, report, core.Ingestionf("normalize", "no parseable publication year among %d records", len(joined))
		}
		median := medianOf(valid)
		report.MedianYear = int(median)
		for i := range joined {
			if !parsed[i] {
				years[i] = median
				report.ImputedYears++
			}
		}
	}

	records := make([]Record, 0, len(joined))
	for i, b := range joined {
		s := stats[b.ID]
		records = append(records, Record{
			ID:              b.ID,
			Title:           b.Title,
			Author:          b.Author,
			Year:            int(years[i]),
			Publisher:       b.Publisher,
			AvgRating:       s.Mean,
			NumRatings:      s.Count,
			StdRating:       s.Std,
			NormalizedTitle: NormalizeTitle(b.Title),
		})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].ID < records[j].ID
	})
	report.Records = len(records)
	return records, report, nil
}

// maxYear bounds the magnitude of a parsed year; anything larger is imputed.
const maxYear = 9999

// parseYear accepts integers and finite decimal numbers ("1999.0") with a
// magnitude of at most maxYear.
func parseYear(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.Abs(f) > maxYear {
		return 0, false
	}
	return f, true
}

func medianOf(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
