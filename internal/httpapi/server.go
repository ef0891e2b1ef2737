package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"weather-widget/internal/forecast"
	"weather-widget/internal/models"
	"weather-widget/internal/owm"
	"weather-widget/internal/widget"
)

const maxBodyBytes = 4 << 10

type Server struct {
	svc      *widget.Service
	sessions *widget.Sessions
}

func NewServer(svc *widget.Service, sessions *widget.Sessions) *Server {
	return &Server{svc: svc, sessions: sessions}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/weather", s.handleWeather)

	r.Route("/widget/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Get("/{id}", s.handleGetSession)
		r.Post("/{id}/search", s.handleSearch)
		r.Put("/{id}/unit", s.handleSetUnit)
		r.Post("/{id}/unit/toggle", s.handleToggleUnit)
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps domain errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var ve *widget.ValidationError
	var le *widget.LookupError
	switch {
	case errors.As(err, &ve):
		writeErrorMessage(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, widget.ErrSessionNotFound):
		writeErrorMessage(w, http.StatusNotFound, "session not found")
	case errors.Is(err, widget.ErrSuperseded):
		writeErrorMessage(w, http.StatusConflict, widget.ErrSuperseded.Error())
	case errors.Is(err, owm.ErrCityNotFound):
		writeErrorMessage(w, http.StatusNotFound, "city not found")
	case errors.Is(err, context.DeadlineExceeded):
		writeErrorMessage(w, http.StatusGatewayTimeout, "lookup timed out")
	case errors.As(err, &le):
		writeErrorMessage(w, http.StatusBadGateway, "lookup failed")
	default:
		slog.Error("request failed", "error", err)
		writeErrorMessage(w, http.StatusInternalServerError, "internal error")
	}
}

type lookupResponse struct {
	Model models.DisplayModel `json:"model"`
	View  widget.View         `json:"view"`
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	unit, ok := forecast.ParseUnit(r.URL.Query().Get("units"))
	if !ok {
		writeErrorMessage(w, http.StatusBadRequest, "units must be metric or imperial")
		return
	}

	model, err := s.svc.Lookup(r.Context(), r.URL.Query().Get("city"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lookupResponse{
		Model: model,
		View:  widget.Render(&model, unit == forecast.Celsius),
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	v, err := s.sessions.Create(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	v, err := s.sessions.View(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		City string `json:"city"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	v, err := s.sessions.Search(r.Context(), chi.URLParam(r, "id"), body.City)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleSetUnit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Celsius *bool  `json:"celsius"`
		Units   string `json:"units"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var useCelsius bool
	switch {
	case body.Celsius != nil:
		useCelsius = *body.Celsius
	case strings.TrimSpace(body.Units) != "":
		unit, ok := forecast.ParseUnit(body.Units)
		if !ok {
			writeErrorMessage(w, http.StatusBadRequest, "units must be metric or imperial")
			return
		}
		useCelsius = unit == forecast.Celsius
	default:
		writeErrorMessage(w, http.StatusBadRequest, "celsius or units is required")
		return
	}

	v, err := s.sessions.SetUnit(r.Context(), chi.URLParam(r, "id"), useCelsius)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleToggleUnit(w http.ResponseWriter, r *http.Request) {
	v, err := s.sessions.ToggleUnit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
