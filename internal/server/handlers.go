package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/UnknownOlympus/paperroute/internal/app"
	"github.com/UnknownOlympus/paperroute/internal/models"
	"github.com/UnknownOlympus/paperroute/internal/service"
	"github.com/go-chi/chi/v5"
)

type progressResponse struct {
	Completed []string     `json:"completed"`
	Stats     models.Stats `json:"stats"`
}

type toggleResponse struct {
	ID        string       `json:"id"`
	Completed bool         `json:"completed"`
	Stats     models.Stats `json:"stats"`
}

type refreshResponse struct {
	Changed bool   `json:"changed"`
	Source  string `json:"source"`
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	view, err := s.backend.View()
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleMarkers(w http.ResponseWriter, r *http.Request) {
	markers, err := s.backend.Markers()
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, r, http.StatusOK, markers)
}

func (s *Server) handleDelivery(w http.ResponseWriter, r *http.Request) {
	delivery, err := s.backend.Delivery(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, r, http.StatusOK, delivery)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, r, http.StatusOK, progressResponse{
		Completed: s.backend.Completed(),
		Stats:     s.backend.Stats(),
	})
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	done, err := s.backend.Toggle(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, r, http.StatusOK, toggleResponse{ID: id, Completed: done, Stats: s.backend.Stats()})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.Reset(r.Context()); err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, r, http.StatusOK, progressResponse{Completed: []string{}, Stats: s.backend.Stats()})
}

// handleRefresh reloads the route and requests a geocoding pass without waiting for it.
// The pass is skipped when one is already running.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if !s.refresh.Allow() {
		s.respondJSON(w, r, http.StatusTooManyRequests, map[string]string{"error": "refresh requested too often"})
		return
	}

	result, err := s.backend.Load(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	go func() {
		stats, ok := s.backend.Geocode(s.ctx)
		if ok {
			s.log.InfoContext(s.ctx, "Background geocoding finished", "new", stats.Resolved, "failed", stats.Failed)
		}
	}()

	s.respondJSON(w, r, http.StatusOK, refreshResponse{Changed: result.Changed, Source: result.Source})
}

func (s *Server) respondJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.ErrorContext(r.Context(), "Failed to write response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, app.ErrUnknownDelivery):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrDataUnavailable):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		s.log.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
	}

	s.respondJSON(w, r, status, map[string]string{"error": err.Error()})
}
