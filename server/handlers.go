package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/hubenschmidt/go-bookmatch/core"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := RecommendParams{Title: strings.TrimSpace(q.Get("title"))}
	if raw := q.Get("max"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "max must be an integer")
			return
		}
		params.Max = n
	}
	if err := s.validate.Struct(params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid query: "+err.Error())
		return
	}

	res, err := s.engine.Recommend(r.Context(), params.Title, params.Max)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	if res.NoMatch {
		writeError(w, http.StatusNotFound, "book not found")
		return
	}
	writeJSON(w, http.StatusOK, newRecommendResponse(res))
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	rec, err := s.engine.Book(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BookResponse{Record: rec, Display: rec.Display()})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.engine.Stats(r.Context())
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	// detached from the request so a client disconnect does not abort it
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.rebuildTimeout)
	defer cancel()

	report, err := s.engine.Rebuild(ctx)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "book not found")
	case errors.Is(err, core.ErrInvalidQuery):
		writeError(w, http.StatusServiceUnavailable, "recommendations unavailable: index not ready")
	case errors.Is(err, core.ErrIngestion):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.log.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
