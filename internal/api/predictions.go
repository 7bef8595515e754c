package api

import (
	"net/http"
)

func (h *Handler) Metadata(w http.ResponseWriter, r *http.Request) {
	metadata, err := h.predictions.Metadata()
	if err != nil {
		writeServiceError(w, err, http.StatusInternalServerError)
		return
	}
	writeData(w, metadata)
}

func (h *Handler) Available(w http.ResponseWriter, r *http.Request) {
	available, err := h.predictions.AvailableMonths()
	if err != nil {
		writeServiceError(w, err, http.StatusInternalServerError)
		return
	}
	writeData(w, available)
}

func (h *Handler) Prediction(w http.ResponseWriter, r *http.Request) {
	year, okYear := parseInt(r.PathValue("year"))
	month, okMonth := parseInt(r.PathValue("month"))
	if !okYear || !okMonth {
		writeError(w, http.StatusBadRequest, "Invalid year or month")
		return
	}
	if month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "Month must be between 1 and 12")
		return
	}

	prediction, err := h.predictions.GetPrediction(r.Context(), year, month)
	if err != nil {
		writeServiceError(w, err, http.StatusNotFound)
		return
	}
	writeData(w, prediction)
}

func (h *Handler) MonthStats(w http.ResponseWriter, r *http.Request) {
	year, okYear := parseInt(r.PathValue("year"))
	month, okMonth := parseInt(r.PathValue("month"))
	if !okYear || !okMonth {
		writeError(w, http.StatusBadRequest, "Invalid year or month")
		return
	}

	stats, err := h.predictions.GetPredictionStats(r.Context(), year, month)
	if err != nil {
		writeServiceError(w, err, http.StatusNotFound)
		return
	}
	writeData(w, stats)
}

func (h *Handler) YearlyStats(w http.ResponseWriter, r *http.Request) {
	year, ok := parseInt(r.PathValue("year"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid year")
		return
	}

	stats, err := h.predictions.GetYearlyStats(r.Context(), year)
	if err != nil {
		writeServiceError(w, err, http.StatusInternalServerError)
		return
	}
	writeData(w, stats)
}

func (h *Handler) Point(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("lat") == "" || q.Get("lon") == "" || q.Get("year") == "" || q.Get("month") == "" {
		writeError(w, http.StatusBadRequest, "Missing required parameters: lat, lon, year, month")
		return
	}

	lat, okLat := parseFloat(q.Get("lat"))
	lon, okLon := parseFloat(q.Get("lon"))
	year, okYear := parseInt(q.Get("year"))
	month, okMonth := parseInt(q.Get("month"))
	if !okLat || !okLon || !okYear || !okMonth {
		writeError(w, http.StatusBadRequest, "Invalid coordinates or date")
		return
	}

	point, err := h.predictions.GetPredictionAtPoint(r.Context(), lat, lon, year, month)
	if err != nil {
		writeServiceError(w, err, http.StatusNotFound)
		return
	}
	writeData(w, point)
}

func (h *Handler) Trend(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("lat") == "" || q.Get("lon") == "" || q.Get("year") == "" {
		writeError(w, http.StatusBadRequest, "Missing required parameters: lat, lon, year")
		return
	}

	lat, okLat := parseFloat(q.Get("lat"))
	lon, okLon := parseFloat(q.Get("lon"))
	year, okYear := parseInt(q.Get("year"))
	if !okLat || !okLon || !okYear {
		writeError(w, http.StatusBadRequest, "Invalid coordinates or year")
		return
	}

	trend, err := h.predictions.GetTrendAtPoint(r.Context(), lat, lon, year)
	if err != nil {
		writeServiceError(w, err, http.StatusInternalServerError)
		return
	}
	writeData(w, trend)
}

func (h *Handler) Bounds(w http.ResponseWriter, r *http.Request) {
	bounds, err := h.predictions.SpatialBounds()
	if err != nil {
		writeServiceError(w, err, http.StatusInternalServerError)
		return
	}
	writeData(w, bounds)
}

func (h *Handler) Oceanography(w http.ResponseWriter, r *http.Request) {
	info, err := h.predictions.OceanographicInfo()
	if err != nil {
		writeServiceError(w, err, http.StatusInternalServerError)
		return
	}
	writeData(w, info)
}

func (h *Handler) StatsHistory(w http.ResponseWriter, r *http.Request) {
	year, okYear := parseInt(r.PathValue("year"))
	month, okMonth := parseInt(r.PathValue("month"))
	if !okYear || !okMonth {
		writeError(w, http.StatusBadRequest, "Invalid year or month")
		return
	}

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, ok := parseInt(s)
		if !ok || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	history, err := h.predictions.StatsHistory(r.Context(), year, month, limit)
	if err != nil {
		writeServiceError(w, err, http.StatusInternalServerError)
		return
	}
	writeData(w, history)
}

// Harbours does not depend on the catalog and is served before it is ready.
func (h *Handler) Harbours(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("lat") == "" || q.Get("lon") == "" {
		writeError(w, http.StatusBadRequest, "Missing required parameters: lat, lon")
		return
	}

	lat, okLat := parseFloat(q.Get("lat"))
	lon, okLon := parseFloat(q.Get("lon"))
	if !okLat || !okLon || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		writeError(w, http.StatusBadRequest, "Invalid coordinates")
		return
	}

	radius := h.harbourRadius
	if s := q.Get("radius"); s != "" {
		var ok bool
		if radius, ok = parseFloat(s); !ok || radius <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid radius")
			return
		}
	}

	harbours, err := h.predictions.HarboursNear(r.Context(), lat, lon, radius)
	if err != nil {
		writeServiceError(w, err, http.StatusBadGateway)
		return
	}
	writeData(w, harbours)
}
