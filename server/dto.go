package server

import (
	"github.com/hubenschmidt/go-bookmatch/catalog"
	"github.com/hubenschmidt/go-bookmatch/engine"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// RecommendParams are the query parameters of GET /recommend.
type RecommendParams struct {
	Title string `validate:"required,max=512"`
	Max   int    `validate:"gte=0,lte=50"`
}

type Recommendation struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Author   string  `json:"author"`
	Distance float64 `json:"distance"`
	Display  string  `json:"display"`
}

type RecommendResponse struct {
	Query           string           `json:"query"`
	Matched         *Recommendation  `json:"matched,omitempty"`
	Recommendations []Recommendation `json:"recommendations"`
}

func toRecommendation(d engine.DisplayEntry) Recommendation {
	return Recommendation{
		ID:       d.ID,
		Title:    d.Title,
		Author:   d.Author,
		Distance: d.Distance,
		Display:  d.String(),
	}
}

func newRecommendResponse(res engine.Result) RecommendResponse {
	out := RecommendResponse{
		Query:           res.Query,
		Recommendations: make([]Recommendation, 0, len(res.Entries)),
	}
	if res.Matched != nil {
		m := toRecommendation(*res.Matched)
		out.Matched = &m
	}
	for _, e := range res.Entries {
		out.Recommendations = append(out.Recommendations, toRecommendation(e))
	}
	return out
}

// BookResponse is GET /books/{id}.
type BookResponse struct {
	catalog.Record
	Display string `json:"display"`
}
