package core

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"hsi_service/internal/domain/model"
	"hsi_service/internal/domain/repository"
)

// timestampLayout matches the millisecond ISO-8601 form used in responses.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// ObservationService serves the historical hsi_<YYYY>_<MM>.geojson files.
type ObservationService struct {
	catalog  *repository.ObservationCatalog
	reader   *repository.CollectionReader
	recorder repository.StatsRecorder
}

func NewObservationService(
	catalog *repository.ObservationCatalog,
	reader *repository.CollectionReader,
	recorder repository.StatsRecorder,
) *ObservationService {
	return &ObservationService{
		catalog:  catalog,
		reader:   reader,
		recorder: recorder,
	}
}

func (s *ObservationService) Availability() model.ObservationAvailability {
	return s.catalog.Metadata.Availability()
}

func (s *ObservationService) Metadata() model.ObservationMetadata {
	return s.catalog.Metadata
}

// ValidateMonth checks a requested year and month against the catalog.
func (s *ObservationService) ValidateMonth(year, month int) error {
	years := s.catalog.Years()
	if len(years) == 0 {
		return model.NotFoundf("No observation data available")
	}
	if year < years[0] || year > years[len(years)-1] {
		return model.InvalidInputf("Invalid year. Must be between %d and %d", years[0], years[len(years)-1])
	}
	if month < 1 || month > 12 {
		return model.InvalidInputf("Invalid month. Must be between 1 and 12")
	}
	return nil
}

// GetHSIData loads the observations of one month.
func (s *ObservationService) GetHSIData(ctx context.Context, year, month int) (*model.FeatureCollection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.catalog.Path(year, month)
	if err != nil {
		return nil, err
	}
	collection, err := s.reader.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load GeoJSON: %w", err)
	}
	return collection, nil
}

// GetHSIDataByString loads a month given as "YYYY-MM".
func (s *ObservationService) GetHSIDataByString(ctx context.Context, yearMonth string) (*model.FeatureCollection, error) {
	year, month, err := ParseYearMonth(yearMonth)
	if err != nil {
		return nil, err
	}
	return s.GetHSIData(ctx, year, month)
}

// ParseYearMonth splits a "YYYY-MM" key.
func ParseYearMonth(yearMonth string) (int, int, error) {
	yearPart, monthPart, ok := strings.Cut(yearMonth, "-")
	if ok {
		year, yerr := strconv.Atoi(yearPart)
		month, merr := strconv.Atoi(monthPart)
		if yerr == nil && merr == nil && month >= 1 && month <= 12 {
			return year, month, nil
		}
	}
	return 0, 0, model.InvalidInputf("Invalid year-month format: %s", yearMonth)
}

// GetStats runs the statistics engine over one observation month.
func (s *ObservationService) GetStats(ctx context.Context, year, month int) (model.MonthStats, error) {
	collection, err := s.GetHSIData(ctx, year, month)
	if err != nil {
		return model.MonthStats{}, err
	}
	stats := MonthStatistics(year, month, collection)
	record(ctx, s.recorder, model.SourceObservation, stats)
	return stats, nil
}

// Biogeography summarizes every oceanographic parameter of one month,
// rounded to two decimals. A parameter with no values reports zeros.
func (s *ObservationService) Biogeography(ctx context.Context, year, month int) (*model.Biogeography, error) {
	collection, err := s.GetHSIData(ctx, year, month)
	if err != nil {
		return nil, err
	}

	params := map[string][]float64{
		"hsi":      nil,
		"sst":      nil,
		"chlor_a":  nil,
		"salinity": nil,
		"depth":    nil,
	}
	add := func(name string, v *float64) {
		if v != nil {
			params[name] = append(params[name], *v)
		}
	}
	for _, f := range collection.Features {
		p := f.Properties
		add("hsi", p.HSI)
		add("sst", p.SST)
		add("chlor_a", p.ChlorA)
		add("salinity", p.Salinity)
		add("depth", p.Depth)
	}

	summary := make(map[string]model.ParameterSummary, len(params))
	for name, values := range params {
		summary[name] = summarize(values)
	}

	return &model.Biogeography{
		Timestamp:  time.Now().UTC().Format(timestampLayout),
		YearMonth:  model.YearMonth(year, month),
		Parameters: summary,
		DataPoints: len(collection.Features),
	}, nil
}

func summarize(values []float64) model.ParameterSummary {
	if len(values) == 0 {
		return model.ParameterSummary{}
	}
	minV, maxV := values[0], values[0]
	var sum float64
	for _, v := range values {
		sum += v
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}
	return model.ParameterSummary{
		Mean: round2(sum / float64(len(values))),
		Min:  round2(minV),
		Max:  round2(maxV),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
