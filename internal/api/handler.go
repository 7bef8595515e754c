package api

import (
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"hsi_service/internal/core"
	"hsi_service/internal/domain/model"
)

const (
	msgNotInitialized = "Monthly prediction service not available. Please run the prediction model first."
	msgNoObservations = "Historical observation data not available"
)

type Handler struct {
	predictions   *core.PredictionService
	observations  *core.ObservationService
	harbourRadius float64
}

// NewHandler wires the HTTP boundary. observations may be nil when the
// observation directory is absent; its routes then answer 503.
func NewHandler(predictions *core.PredictionService, observations *core.ObservationService, harbourRadiusKm float64) *Handler {
	return &Handler{
		predictions:   predictions,
		observations:  observations,
		harbourRadius: harbourRadiusKm,
	}
}

// Register adds every route to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	const prefix = "/api/monthly-predictions"

	mux.HandleFunc("GET "+prefix+"/metadata", h.requireReady(h.Metadata))
	mux.HandleFunc("GET "+prefix+"/available", h.requireReady(h.Available))
	mux.HandleFunc("GET "+prefix+"/yearly-stats/{year}", h.requireReady(h.YearlyStats))
	mux.HandleFunc("GET "+prefix+"/stats/{year}/{month}", h.requireReady(h.MonthStats))
	mux.HandleFunc("GET "+prefix+"/history/{year}/{month}", h.requireReady(h.StatsHistory))
	mux.HandleFunc("GET "+prefix+"/point", h.requireReady(h.Point))
	mux.HandleFunc("GET "+prefix+"/trend", h.requireReady(h.Trend))
	mux.HandleFunc("GET "+prefix+"/bounds", h.requireReady(h.Bounds))
	mux.HandleFunc("GET "+prefix+"/oceanography", h.requireReady(h.Oceanography))
	mux.HandleFunc("GET "+prefix+"/harbours", h.Harbours)
	mux.HandleFunc("GET "+prefix+"/health", h.requireReady(h.PredictionHealth))
	mux.HandleFunc("GET "+prefix+"/{year}/{month}", h.requireReady(h.Prediction))

	mux.HandleFunc("GET /api/hsi/available", h.requireObservations(h.ObservationsAvailable))
	mux.HandleFunc("GET /api/hsi/stats", h.requireObservations(h.ObservationStats))
	mux.HandleFunc("GET /api/hsi", h.requireObservations(h.Observations))
	mux.HandleFunc("GET /api/metadata", h.requireObservations(h.ObservationMetadata))
	mux.HandleFunc("GET /api/biogeography/data", h.requireObservations(h.Biogeography))
	mux.HandleFunc("GET /api/health", h.Health)
}

// requireReady rejects requests until the catalog is initialized.
func (h *Handler) requireReady(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.predictions.Ready() {
			writeError(w, http.StatusServiceUnavailable, msgNotInitialized)
			return
		}
		next(w, r)
	}
}

func (h *Handler) requireObservations(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.observations == nil {
			writeError(w, http.StatusServiceUnavailable, msgNoObservations)
			return
		}
		next(w, r)
	}
}

type envelope struct {
	Success  bool        `json:"success"`
	Data     interface{} `json:"data,omitempty"`
	Metadata interface{} `json:"metadata,omitempty"`
	Error    string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[api] error encoding response: %v", err)
	}
}

func writeData(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Error: message})
}

// writeServiceError maps a service error to its status code. fallback is
// used for errors of no known kind.
func writeServiceError(w http.ResponseWriter, err error, fallback int) {
	status := fallback
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrNotReady), errors.Is(err, model.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		log.Printf("[api] request failed: %v", err)
	}
	writeError(w, status, err.Error())
}

func parseInt(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	return n, err == nil
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

type healthResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Health reports that the process is serving, whatever the catalog state.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Success:   true,
		Message:   "API is running",
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// PredictionHealth is only reachable once the catalog is ready.
func (h *Handler) PredictionHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Success:   true,
		Message:   "Monthly prediction service is running",
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}
