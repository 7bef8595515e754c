package core

import (
	"hsi_service/internal/domain/model"
)

// TemporalAnalyzer folds per-month point lookups into a yearly trend.
// Months are added in ascending order; a failed month is skipped with
// its reason and never aborts the trend.
type TemporalAnalyzer struct {
	points  []model.TrendPoint
	skipped []model.SkippedMonth
}

func (a *TemporalAnalyzer) Add(month int, point *model.PointPrediction, err error) {
	if err != nil {
		a.skipped = append(a.skipped, model.SkippedMonth{Month: month, Reason: err.Error()})
		return
	}
	a.points = append(a.points, model.TrendPoint{
		Month:       month,
		HSI:         point.ClosestPoint.HSI,
		Coordinates: point.ClosestPoint.Coordinates,
	})
}

// Trend builds the result. Points with a null hsi stay in the series but
// are left out of the summary; with no values every summary field is nil.
func (a *TemporalAnalyzer) Trend(year int, coords model.Coordinates) *model.Trend {
	trend := &model.Trend{
		Year:          year,
		Coordinates:   coords,
		Trend:         a.points,
		SkippedMonths: a.skipped,
	}
	if trend.Trend == nil {
		trend.Trend = []model.TrendPoint{}
	}
	if trend.SkippedMonths == nil {
		trend.SkippedMonths = []model.SkippedMonth{}
	}

	var sum float64
	var count int
	var minV, maxV float64
	for _, p := range a.points {
		if p.HSI == nil {
			continue
		}
		v := *p.HSI
		if count == 0 || v < minV {
			minV = v
		}
		if count == 0 || v > maxV {
			maxV = v
		}
		sum += v
		count++
	}

	if count > 0 {
		mean := sum / float64(count)
		trend.Summary = model.TrendSummary{Mean: &mean, Min: &minV, Max: &maxV}
	}
	return trend
}
