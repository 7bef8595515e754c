package model

import "time"

// Dataset sources a statistics snapshot can come from.
const (
	SourcePrediction  = "prediction"
	SourceObservation = "observation"
)

// StatsSnapshot is a computed MonthStats flattened for storage.
type StatsSnapshot struct {
	ID          string    `db:"id" json:"id"`
	Source      string    `db:"source" json:"source"`
	Year        int       `db:"year" json:"year"`
	Month       int       `db:"month" json:"month"`
	Count       int       `db:"value_count" json:"count"`
	Min         float64   `db:"min_value" json:"min"`
	Max         float64   `db:"max_value" json:"max"`
	Mean        float64   `db:"mean_value" json:"mean"`
	Median      float64   `db:"median_value" json:"median"`
	Std         float64   `db:"std_value" json:"std"`
	Q25         float64   `db:"q25_value" json:"q25"`
	Q75         float64   `db:"q75_value" json:"q75"`
	HighCount   int       `db:"high_count" json:"high_count"`
	MediumCount int       `db:"medium_count" json:"medium_count"`
	LowCount    int       `db:"low_count" json:"low_count"`
	RecordedAt  time.Time `db:"-" json:"recorded_at"`
}
