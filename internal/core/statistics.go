package core

import (
	"fmt"
	"math"
	"sort"

	"hsi_service/internal/domain/model"
)

// HSI category thresholds: high >= 0.75, medium in [0.45, 0.75), low < 0.45.
const (
	HighThreshold   = 0.75
	MediumThreshold = 0.45
)

const (
	errNoFeatures = "No features in prediction"
	errNoValidHSI = "No valid HSI values"
)

type Category int

const (
	CategoryLow Category = iota
	CategoryMedium
	CategoryHigh
)

func (c Category) String() string {
	switch c {
	case CategoryHigh:
		return "high"
	case CategoryMedium:
		return "medium"
	default:
		return "low"
	}
}

func Categorize(hsi float64) Category {
	switch {
	case hsi >= HighThreshold:
		return CategoryHigh
	case hsi >= MediumThreshold:
		return CategoryMedium
	default:
		return CategoryLow
	}
}

// extractHSI returns the non-null hsi values in feature order.
func extractHSI(features []model.Feature) []float64 {
	values := make([]float64, 0, len(features))
	for _, f := range features {
		if f.Properties.HSI != nil {
			values = append(values, *f.Properties.HSI)
		}
	}
	return values
}

// Describe computes the descriptive statistics of values. ok is false
// for an empty input. The median is the upper median sorted[n/2] and the
// quartiles are nearest-rank, std is the population deviation.
func Describe(values []float64) (stats model.Statistics, categories model.Categories, ok bool) {
	n := len(values)
	if n == 0 {
		return stats, categories, false
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(n)

	var squares float64
	for _, v := range sorted {
		squares += (v - mean) * (v - mean)
	}

	stats = model.Statistics{
		Count:  n,
		Min:    sorted[0],
		Max:    sorted[n-1],
		Mean:   mean,
		Median: sorted[n/2],
		Std:    math.Sqrt(squares / float64(n)),
		Q25:    sorted[int(math.Floor(float64(n)*0.25))],
		Q75:    sorted[int(math.Floor(float64(n)*0.75))],
	}

	var high, medium, low int
	for _, v := range sorted {
		switch Categorize(v) {
		case CategoryHigh:
			high++
		case CategoryMedium:
			medium++
		default:
			low++
		}
	}
	categories = model.Categories{
		High:   categoryCount(high, n),
		Medium: categoryCount(medium, n),
		Low:    categoryCount(low, n),
	}
	return stats, categories, true
}

func categoryCount(count, total int) model.CategoryCount {
	return model.CategoryCount{
		Count:      count,
		Percentage: fmt.Sprintf("%.2f", float64(count)/float64(total)*100),
	}
}

// MonthStatistics describes the hsi values of one collection. An empty
// month is reported through the Error field, not as a Go error.
func MonthStatistics(year, month int, collection *model.FeatureCollection) model.MonthStats {
	if len(collection.Features) == 0 {
		return model.MonthStats{Year: year, Month: month, Error: errNoFeatures}
	}

	stats, categories, ok := Describe(extractHSI(collection.Features))
	if !ok {
		return model.MonthStats{Year: year, Month: month, Error: errNoValidHSI}
	}

	return model.MonthStats{
		Year:       year,
		Month:      month,
		Date:       model.YearMonth(year, month),
		Statistics: &stats,
		Categories: &categories,
	}
}
