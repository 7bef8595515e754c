package api

import (
	"net/http"

	"hsi_service/internal/core"
	"hsi_service/internal/domain/model"
)

const (
	defaultBiogeographyYear  = 2024
	defaultBiogeographyMonth = 1
)

func (h *Handler) ObservationsAvailable(w http.ResponseWriter, r *http.Request) {
	writeData(w, h.observations.Availability())
}

func (h *Handler) ObservationMetadata(w http.ResponseWriter, r *http.Request) {
	writeData(w, h.observations.Metadata())
}

type observationMonth struct {
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	YearMonth string `json:"yearMonth"`
}

// observationQuery reads either year and month or a single yearMonth
// ("YYYY-MM") parameter. It writes the 400 response itself.
func (h *Handler) observationQuery(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	q := r.URL.Query()

	if ym := q.Get("yearMonth"); ym != "" {
		year, month, err := core.ParseYearMonth(ym)
		if err != nil {
			writeServiceError(w, err, http.StatusBadRequest)
			return 0, 0, false
		}
		return year, month, true
	}

	if q.Get("year") == "" || q.Get("month") == "" {
		writeError(w, http.StatusBadRequest, "Missing required parameters: year and month")
		return 0, 0, false
	}
	year, okYear := parseInt(q.Get("year"))
	month, okMonth := parseInt(q.Get("month"))
	if !okYear {
		writeError(w, http.StatusBadRequest, "Invalid year")
		return 0, 0, false
	}
	if !okMonth {
		writeError(w, http.StatusBadRequest, "Invalid month. Must be between 1 and 12")
		return 0, 0, false
	}
	if err := h.observations.ValidateMonth(year, month); err != nil {
		writeServiceError(w, err, http.StatusBadRequest)
		return 0, 0, false
	}
	return year, month, true
}

func (h *Handler) Observations(w http.ResponseWriter, r *http.Request) {
	var (
		collection *model.FeatureCollection
		year       int
		month      int
		err        error
	)

	if ym := r.URL.Query().Get("yearMonth"); ym != "" {
		collection, err = h.observations.GetHSIDataByString(r.Context(), ym)
		if err == nil {
			year, month, _ = core.ParseYearMonth(ym)
		}
	} else {
		var ok bool
		if year, month, ok = h.observationQuery(w, r); !ok {
			return
		}
		collection, err = h.observations.GetHSIData(r.Context(), year, month)
	}
	if err != nil {
		writeServiceError(w, err, http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Data:    collection,
		Metadata: observationMonth{
			Year:      year,
			Month:     month,
			YearMonth: model.YearMonth(year, month),
		},
	})
}

func (h *Handler) ObservationStats(w http.ResponseWriter, r *http.Request) {
	year, month, ok := h.observationQuery(w, r)
	if !ok {
		return
	}

	stats, err := h.observations.GetStats(r.Context(), year, month)
	if err != nil {
		writeServiceError(w, err, http.StatusNotFound)
		return
	}
	writeData(w, stats)
}

func (h *Handler) Biogeography(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, month := defaultBiogeographyYear, defaultBiogeographyMonth
	if s := q.Get("year"); s != "" {
		var ok bool
		if year, ok = parseInt(s); !ok {
			writeError(w, http.StatusBadRequest, "Invalid year")
			return
		}
	}
	if s := q.Get("month"); s != "" {
		var ok bool
		if month, ok = parseInt(s); !ok {
			writeError(w, http.StatusBadRequest, "Invalid month")
			return
		}
	}

	summary, err := h.observations.Biogeography(r.Context(), year, month)
	if err != nil {
		writeServiceError(w, err, http.StatusInternalServerError)
		return
	}
	writeData(w, summary)
}
