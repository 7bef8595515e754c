package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"hsi_service/internal/domain/model"
	"hsi_service/internal/domain/repository"
)

const (
	defaultStatsWorkers = 4
	defaultHistoryLimit = 20
)

// catalogState is either uninitialized or ready.
type catalogState interface {
	isCatalogState()
}

type uninitialized struct {
	reason string
}

type ready struct {
	catalog *repository.Catalog
}

func (uninitialized) isCatalogState() {}
func (ready) isCatalogState()         {}

type PredictionService struct {
	root     string
	reader   *repository.CollectionReader
	recorder repository.StatsRecorder
	history  StatsHistory
	harbours HarbourSource
	workers  int
	scan     func(root string) (*repository.Catalog, error)

	mu    sync.RWMutex
	state catalogState
}

// NewPredictionService returns an uninitialized service over root.
// recorder, history and harbours are optional.
func NewPredictionService(
	root string,
	reader *repository.CollectionReader,
	recorder repository.StatsRecorder,
	history StatsHistory,
	harbours HarbourSource,
) *PredictionService {
	return &PredictionService{
		root:     root,
		reader:   reader,
		recorder: recorder,
		history:  history,
		harbours: harbours,
		workers:  defaultStatsWorkers,
		scan:     repository.ScanPredictions,
		state:    uninitialized{reason: "initialization has not run"},
	}
}

// Initialize scans the predictions directory. It reports false instead
// of failing when nothing usable was found; the service then stays
// uninitialized and may be initialized again later. Once ready, further
// calls do nothing. The scan runs without the state lock held.
func (s *PredictionService) Initialize(ctx context.Context) bool {
	if s.Ready() {
		return true
	}
	if err := ctx.Err(); err != nil {
		s.setUninitialized(err.Error())
		return false
	}

	catalog, err := s.scan(s.root)
	if err != nil {
		log.Printf("[catalog] monthly predictions unavailable: %v", err)
		s.setUninitialized(err.Error())
		return false
	}

	s.mu.Lock()
	if _, ok := s.state.(ready); ok {
		s.mu.Unlock()
		return true
	}
	s.state = ready{catalog: catalog}
	s.mu.Unlock()

	log.Printf("[catalog] monthly prediction service initialized, years: %v", catalog.Years())
	for _, p := range catalog.Partitions() {
		log.Printf("[catalog]   %d: %d months loaded", p.Year, len(p.Months))
	}
	return true
}

// setUninitialized records why the last attempt failed, unless a
// concurrent attempt already succeeded.
func (s *PredictionService) setUninitialized(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.(ready); !ok {
		s.state = uninitialized{reason: reason}
	}
}

// KeepInitializing retries Initialize every interval until the catalog
// is ready or ctx is done.
func (s *PredictionService) KeepInitializing(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for !s.Initialize(ctx) {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Ready reports whether the catalog has been built.
func (s *PredictionService) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.state.(ready)
	return ok
}

func (s *PredictionService) catalog() (*repository.Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch st := s.state.(type) {
	case ready:
		return st.catalog, nil
	case uninitialized:
		return nil, fmt.Errorf("%w: %s", model.ErrNotReady, st.reason)
	default:
		return nil, model.ErrNotReady
	}
}

// Metadata returns the metadata of the latest year, empty when that year
// has no metadata.json.
func (s *PredictionService) Metadata() (model.ModelMetadata, error) {
	catalog, err := s.catalog()
	if err != nil {
		return model.ModelMetadata{}, err
	}
	latest, _ := catalog.Latest()
	return latest.Metadata, nil
}

func (s *PredictionService) AvailableMonths() (*model.AvailableMonths, error) {
	catalog, err := s.catalog()
	if err != nil {
		return nil, err
	}

	result := &model.AvailableMonths{
		AvailableYears: catalog.Years(),
		MonthsByYear:   make(map[int][]model.MonthRef, catalog.Len()),
		TotalMonths:    catalog.TotalMonths(),
	}
	for _, p := range catalog.Partitions() {
		refs := make([]model.MonthRef, 0, len(p.Months))
		for _, m := range p.SortedMonths() {
			refs = append(refs, model.MonthRef{Year: p.Year, Month: m, Key: model.YearMonth(p.Year, m)})
		}
		result.MonthsByYear[p.Year] = refs
	}

	// single-year fields describe the earliest year
	first := result.AvailableYears[0]
	result.Year = first
	result.Months = result.MonthsByYear[first]
	result.Total = len(result.Months)

	latest, _ := catalog.Latest()
	result.ModelInfo = model.ModelInfo{
		Type:           latest.Metadata.ModelType,
		R2Score:        latest.Metadata.RegressionModel.R2Score,
		TrainingMonths: latest.Metadata.TrainingData.TotalMonths,
	}
	return result, nil
}

func (s *PredictionService) GetPrediction(ctx context.Context, year, month int) (*model.Prediction, error) {
	catalog, err := s.catalog()
	if err != nil {
		return nil, err
	}
	return s.loadPrediction(ctx, catalog, year, month)
}

func (s *PredictionService) loadPrediction(ctx context.Context, catalog *repository.Catalog, year, month int) (*model.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := catalog.Path(year, month)
	if err != nil {
		return nil, err
	}
	collection, err := s.reader.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load prediction %s: %w", model.YearMonth(year, month), err)
	}

	var modelType string
	if p, ok := catalog.Year(year); ok {
		modelType = p.Metadata.ModelType
	}
	return &model.Prediction{
		Year:  year,
		Month: month,
		Date:  model.YearMonth(year, month),
		Data:  collection,
		Metadata: model.PredictionSummary{
			FeaturesCount: len(collection.Features),
			ModelType:     modelType,
		},
	}, nil
}

// GetPredictionStats computes the statistics of one month. A month with
// no usable values is returned as an error entry, not as an error.
func (s *PredictionService) GetPredictionStats(ctx context.Context, year, month int) (model.MonthStats, error) {
	catalog, err := s.catalog()
	if err != nil {
		return model.MonthStats{}, err
	}
	return s.monthStats(ctx, catalog, year, month)
}

func (s *PredictionService) monthStats(ctx context.Context, catalog *repository.Catalog, year, month int) (model.MonthStats, error) {
	prediction, err := s.loadPrediction(ctx, catalog, year, month)
	if err != nil {
		return model.MonthStats{}, err
	}
	stats := MonthStatistics(year, month, prediction.Data)
	record(ctx, s.recorder, model.SourcePrediction, stats)
	return stats, nil
}

// GetYearlyStats evaluates every month of year. A month that fails is
// reported as an error entry and does not abort the others.
func (s *PredictionService) GetYearlyStats(ctx context.Context, year int) (*model.YearlyStats, error) {
	catalog, err := s.catalog()
	if err != nil {
		return nil, err
	}
	partition, ok := catalog.Year(year)
	if !ok {
		return nil, model.NotFoundf("No predictions available for year %d", year)
	}

	months := partition.SortedMonths()
	results := make([]model.MonthStats, len(months))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, month := range months {
		g.Go(func() error {
			stats, err := s.monthStats(gctx, catalog, year, month)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				log.Printf("[stats] %s failed: %v", model.YearMonth(year, month), err)
				stats = model.MonthStats{Year: year, Month: month, Error: err.Error()}
			}
			results[i] = stats
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	yearly := &model.YearlyStats{
		Year:         year,
		TotalMonths:  len(months),
		MonthlyStats: make(map[int]model.MonthStats, len(months)),
	}
	for _, stats := range results {
		yearly.MonthlyStats[stats.Month] = stats
	}
	return yearly, nil
}

// GetPredictionAtPoint returns the sample nearest to (lat, lon) in the
// given month.
func (s *PredictionService) GetPredictionAtPoint(ctx context.Context, lat, lon float64, year, month int) (*model.PointPrediction, error) {
	catalog, err := s.catalog()
	if err != nil {
		return nil, err
	}
	return s.pointPrediction(ctx, catalog, lat, lon, year, month)
}

func (s *PredictionService) pointPrediction(ctx context.Context, catalog *repository.Catalog, lat, lon float64, year, month int) (*model.PointPrediction, error) {
	prediction, err := s.loadPrediction(ctx, catalog, year, month)
	if err != nil {
		return nil, err
	}

	analyzer := SpatialAnalyzer{}
	idx, dist, ok := analyzer.Nearest(prediction.Data.Features, lat, lon)
	if !ok {
		return nil, model.NotFoundf("No prediction found near coordinates")
	}
	closest := prediction.Data.Features[idx]

	return &model.PointPrediction{
		Year:                 year,
		Month:                month,
		RequestedCoordinates: model.Coordinates{Lat: lat, Lon: lon},
		ClosestPoint: model.ClosestPoint{
			Coordinates:     closest.Geometry.Coordinates,
			DistanceDegrees: dist,
			HSI:             closest.Properties.HSI,
		},
	}, nil
}

// GetTrendAtPoint collects the nearest sample of every month of year.
// Months that fail are listed in SkippedMonths.
func (s *PredictionService) GetTrendAtPoint(ctx context.Context, lat, lon float64, year int) (*model.Trend, error) {
	catalog, err := s.catalog()
	if err != nil {
		return nil, err
	}
	partition, ok := catalog.Year(year)
	if !ok {
		return nil, model.NotFoundf("No predictions available for year %d", year)
	}

	analyzer := TemporalAnalyzer{}
	for _, month := range partition.SortedMonths() {
		point, err := s.pointPrediction(ctx, catalog, lat, lon, year, month)
		if err != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		analyzer.Add(month, point, err)
	}
	return analyzer.Trend(year, model.Coordinates{Lat: lat, Lon: lon}), nil
}

// SpatialBounds returns the grid descriptor of the latest metadata.
func (s *PredictionService) SpatialBounds() (json.RawMessage, error) {
	metadata, err := s.Metadata()
	if err != nil {
		return nil, err
	}
	return metadata.Bounds(), nil
}

func (s *PredictionService) OceanographicInfo() (json.RawMessage, error) {
	metadata, err := s.Metadata()
	if err != nil {
		return nil, err
	}
	return metadata.Oceanography(), nil
}

// StatsHistory lists the recorded statistics of a month, newest first.
func (s *PredictionService) StatsHistory(ctx context.Context, year, month, limit int) ([]model.StatsSnapshot, error) {
	if s.history == nil {
		return nil, fmt.Errorf("stats history: %w", model.ErrUnavailable)
	}
	if _, err := s.catalog(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.history.History(ctx, model.SourcePrediction, year, month, limit)
}

// HarboursNear returns the harbours within radiusKm of (lat, lon),
// nearest first.
func (s *PredictionService) HarboursNear(ctx context.Context, lat, lon, radiusKm float64) (*model.HarbourSearch, error) {
	if s.harbours == nil {
		return nil, fmt.Errorf("harbour lookup: %w", model.ErrUnavailable)
	}
	if radiusKm <= 0 {
		return nil, model.InvalidInputf("radius must be positive")
	}

	analyzer := SpatialAnalyzer{}
	origin := model.Coordinates{Lat: lat, Lon: lon}
	found, err := s.harbours.GetHarbours(ctx, analyzer.BoundsAround(lat, lon, radiusKm))
	if err != nil {
		return nil, fmt.Errorf("failed to get harbours: %w", err)
	}

	return &model.HarbourSearch{
		Origin:   origin,
		RadiusKm: radiusKm,
		Harbours: analyzer.WithinRadius(found, origin, radiusKm),
	}, nil
}
