package model

import "fmt"

// FeatureCollection is one month of spatial samples as stored on disk.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

type Feature struct {
	Type       string     `json:"type"`
	Geometry   Geometry   `json:"geometry"`
	Properties Properties `json:"properties"`
}

// Geometry carries a GeoJSON point, coordinates are [lon, lat].
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// Properties holds the oceanographic parameters of a sample.
// A nil field means the value was absent or null in the source file.
type Properties struct {
	HSI      *float64 `json:"hsi"`
	SST      *float64 `json:"sst,omitempty"`
	ChlorA   *float64 `json:"chlor_a,omitempty"`
	Salinity *float64 `json:"salinity,omitempty"`
	Depth    *float64 `json:"depth,omitempty"`
}

// Point returns the sample position. ok is false when the geometry
// does not carry at least a lon/lat pair.
func (f Feature) Point() (lon, lat float64, ok bool) {
	if len(f.Geometry.Coordinates) < 2 {
		return 0, 0, false
	}
	return f.Geometry.Coordinates[0], f.Geometry.Coordinates[1], true
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// YearMonth formats the "YYYY-MM" key used in responses.
func YearMonth(year, month int) string {
	return fmt.Sprintf("%d-%02d", year, month)
}

// Prediction is a single month of predictions plus its summary.
type Prediction struct {
	Year     int                `json:"year"`
	Month    int                `json:"month"`
	Date     string             `json:"date"`
	Data     *FeatureCollection `json:"data"`
	Metadata PredictionSummary  `json:"metadata"`
}

type PredictionSummary struct {
	FeaturesCount int    `json:"features_count"`
	ModelType     string `json:"model_type,omitempty"`
}

// Statistics are the descriptive statistics of the hsi values of one month.
type Statistics struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
	Q25    float64 `json:"q25"`
	Q75    float64 `json:"q75"`
}

type CategoryCount struct {
	Count      int    `json:"count"`
	Percentage string `json:"percentage"`
}

type Categories struct {
	High   CategoryCount `json:"high"`
	Medium CategoryCount `json:"medium"`
	Low    CategoryCount `json:"low"`
}

// MonthStats is either a full statistics result or a value-level error.
// Exactly one of Statistics or Error is set.
type MonthStats struct {
	Year       int         `json:"year"`
	Month      int         `json:"month"`
	Date       string      `json:"date,omitempty"`
	Statistics *Statistics `json:"statistics,omitempty"`
	Categories *Categories `json:"categories,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// OK reports whether the month produced statistics.
func (s MonthStats) OK() bool {
	return s.Statistics != nil
}

type YearlyStats struct {
	Year         int                `json:"year"`
	TotalMonths  int                `json:"total_months"`
	MonthlyStats map[int]MonthStats `json:"monthly_stats"`
}

type ClosestPoint struct {
	Coordinates     []float64 `json:"coordinates"`
	DistanceDegrees float64   `json:"distance_degrees"`
	HSI             *float64  `json:"hsi"`
}

type PointPrediction struct {
	Year                 int          `json:"year"`
	Month                int          `json:"month"`
	RequestedCoordinates Coordinates  `json:"requested_coordinates"`
	ClosestPoint         ClosestPoint `json:"closest_point"`
}

type TrendPoint struct {
	Month       int       `json:"month"`
	HSI         *float64  `json:"hsi"`
	Coordinates []float64 `json:"coordinates"`
}

// TrendSummary fields are nil when no month produced an hsi value.
type TrendSummary struct {
	Mean *float64 `json:"mean"`
	Min  *float64 `json:"min"`
	Max  *float64 `json:"max"`
}

type SkippedMonth struct {
	Month  int    `json:"month"`
	Reason string `json:"reason"`
}

type Trend struct {
	Year          int            `json:"year"`
	Coordinates   Coordinates    `json:"coordinates"`
	Trend         []TrendPoint   `json:"trend"`
	Summary       TrendSummary   `json:"summary"`
	SkippedMonths []SkippedMonth `json:"skipped_months"`
}

// MonthRef identifies one available month.
type MonthRef struct {
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Key   string `json:"key"`
}

type ModelInfo struct {
	Type           string   `json:"type,omitempty"`
	R2Score        *float64 `json:"r2_score,omitempty"`
	TrainingMonths *int     `json:"training_months,omitempty"`
}

// AvailableMonths carries the multi-year listing and the legacy
// single-year fields kept for older clients.
type AvailableMonths struct {
	AvailableYears []int              `json:"available_years"`
	MonthsByYear   map[int][]MonthRef `json:"months_by_year"`
	TotalMonths    int                `json:"total_months"`

	Year   int        `json:"year"`
	Months []MonthRef `json:"months"`
	Total  int        `json:"total"`

	ModelInfo ModelInfo `json:"model_info"`
}
