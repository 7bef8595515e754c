package model

import (
	"bytes"
	"encoding/json"
)

// ModelMetadata is the per-year metadata.json written by the prediction
// pipeline. Known fields are decoded, the source document is kept so
// the metadata endpoint returns it untouched.
type ModelMetadata struct {
	ModelType       string `json:"model_type,omitempty"`
	RegressionModel struct {
		R2Score *float64 `json:"r2_score,omitempty"`
	} `json:"regression_model"`
	TrainingData struct {
		TotalMonths *int `json:"total_months,omitempty"`
	} `json:"training_data"`
	GridInfo                json.RawMessage `json:"grid_info,omitempty"`
	OceanographicParameters json.RawMessage `json:"oceanographic_parameters,omitempty"`

	raw json.RawMessage
}

func (m *ModelMetadata) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		*m = ModelMetadata{}
		return nil
	}
	type plain ModelMetadata
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*m = ModelMetadata(p)
	m.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (m ModelMetadata) MarshalJSON() ([]byte, error) {
	if len(m.raw) == 0 {
		return []byte("{}"), nil
	}
	return m.raw, nil
}

// Empty reports whether no metadata document was loaded. A document that
// is the literal null counts as none.
func (m ModelMetadata) Empty() bool {
	return len(m.raw) == 0
}

// Bounds returns grid_info, or an empty object.
func (m ModelMetadata) Bounds() json.RawMessage {
	return orEmptyObject(m.GridInfo)
}

// Oceanography returns oceanographic_parameters, or an empty object.
func (m ModelMetadata) Oceanography() json.RawMessage {
	return orEmptyObject(m.OceanographicParameters)
}

// isNull reports whether data is the JSON literal null.
func isNull(data []byte) bool {
	return string(bytes.TrimSpace(data)) == "null"
}

func orEmptyObject(v json.RawMessage) json.RawMessage {
	if len(v) == 0 || isNull(v) {
		return json.RawMessage("{}")
	}
	return v
}

// ObservationMetadata is the shared metadata.json of the historical
// observation directory.
type ObservationMetadata struct {
	AvailableData []json.RawMessage `json:"available_data"`
	TotalMonths   int               `json:"total_months"`
	DataRange     json.RawMessage   `json:"data_range,omitempty"`
	SpatialBounds json.RawMessage   `json:"spatial_bounds,omitempty"`

	raw json.RawMessage
}

func (m *ObservationMetadata) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		*m = ObservationMetadata{}
		return nil
	}
	type plain ObservationMetadata
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*m = ObservationMetadata(p)
	m.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (m ObservationMetadata) MarshalJSON() ([]byte, error) {
	if len(m.raw) == 0 {
		return []byte("{}"), nil
	}
	return m.raw, nil
}

// ObservationAvailability is the /api/hsi/available payload.
type ObservationAvailability struct {
	Available []json.RawMessage `json:"available"`
	Total     int               `json:"total"`
	DateRange json.RawMessage   `json:"dateRange"`
	Bounds    json.RawMessage   `json:"bounds"`
}

func (m ObservationMetadata) Availability() ObservationAvailability {
	available := m.AvailableData
	if available == nil {
		available = []json.RawMessage{}
	}
	return ObservationAvailability{
		Available: available,
		Total:     m.TotalMonths,
		DateRange: orEmptyObject(m.DataRange),
		Bounds:    orEmptyObject(m.SpatialBounds),
	}
}

// ParameterSummary is the rounded mean/min/max of one parameter.
type ParameterSummary struct {
	Mean float64 `json:"mean"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

type Biogeography struct {
	Timestamp  string                      `json:"timestamp"`
	YearMonth  string                      `json:"yearMonth"`
	Parameters map[string]ParameterSummary `json:"parameters"`
	DataPoints int                         `json:"dataPoints"`
}
