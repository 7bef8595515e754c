package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"hsi_service/internal/domain/model"
	"hsi_service/internal/domain/repository"
)

const fixtureMetadata = `{
	"model_type": "RandomForest",
	"regression_model": {"r2_score": 0.87},
	"training_data": {"total_months": 36},
	"grid_info": {"lat_min": -12},
	"oceanographic_parameters": {"sst": "Sea surface temperature"}
}`

// newPredictionFixture lays out two usable years: 2025 with months 1, 2
// and a corrupt month 4, and 2024 with month 12. monthly_2022 is empty
// and 2024 also holds a file belonging to 2023.
func newPredictionFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	writeCollection(t, predictionPath(root, 2025, 1),
		pointFeature(115, -8, "0.2"),
		pointFeature(116, -9, "0.5"),
		pointFeature(117, -10, "0.5"),
		pointFeature(118, -11, "0.9"),
	)
	writeCollection(t, predictionPath(root, 2025, 2),
		pointFeature(115, -8, "0.6"),
		pointFeature(116, -9, "null"),
	)
	writeFile(t, predictionPath(root, 2025, 4), "{not json")
	writeFile(t, filepath.Join(root, "monthly_2025", "metadata.json"), fixtureMetadata)

	writeCollection(t, predictionPath(root, 2024, 12), pointFeature(115, -8, "0.3"))
	writeCollection(t, filepath.Join(root, "monthly_2024", "hsi_prediction_2023_05.geojson"), pointFeature(115, -8, "0.3"))

	if err := os.MkdirAll(filepath.Join(root, "monthly_2022"), 0755); err != nil {
		t.Fatal(err)
	}
	return root
}

func newTestService(t *testing.T, root string, recorder repository.StatsRecorder, history StatsHistory, harbours HarbourSource) *PredictionService {
	t.Helper()
	reader, err := repository.NewCollectionReader(0)
	if err != nil {
		t.Fatal(err)
	}
	return NewPredictionService(root, reader, recorder, history, harbours)
}

func readyService(t *testing.T) (*PredictionService, *captureRecorder) {
	t.Helper()
	recorder := &captureRecorder{}
	svc := newTestService(t, newPredictionFixture(t), recorder, nil, nil)
	if !svc.Initialize(context.Background()) {
		t.Fatal("Initialize returned false")
	}
	return svc, recorder
}

func TestServiceNotReady(t *testing.T) {
	svc := newTestService(t, filepath.Join(t.TempDir(), "missing"), nil, nil, nil)

	if svc.Initialize(context.Background()) {
		t.Fatal("expected Initialize to fail on a missing directory")
	}
	if svc.Ready() {
		t.Error("service must not be ready")
	}

	ctx := context.Background()
	if _, err := svc.GetPrediction(ctx, 2025, 1); !errors.Is(err, model.ErrNotReady) {
		t.Errorf("GetPrediction: got %v", err)
	}
	if _, err := svc.Metadata(); !errors.Is(err, model.ErrNotReady) {
		t.Errorf("Metadata: got %v", err)
	}
	if _, err := svc.AvailableMonths(); !errors.Is(err, model.ErrNotReady) {
		t.Errorf("AvailableMonths: got %v", err)
	}
	if _, err := svc.GetTrendAtPoint(ctx, 0, 0, 2025); !errors.Is(err, model.ErrNotReady) {
		t.Errorf("GetTrendAtPoint: got %v", err)
	}
}

func TestInitializeWithoutUsableYears(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "monthly_2025"), 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(root, "monthly_2025", "notes.txt"), "x")

	svc := newTestService(t, root, nil, nil, nil)
	if svc.Initialize(context.Background()) {
		t.Error("expected Initialize to fail without prediction files")
	}
}

func TestInitializeRetry(t *testing.T) {
	root := filepath.Join(t.TempDir(), "predictions")
	svc := newTestService(t, root, nil, nil, nil)

	if svc.Initialize(context.Background()) {
		t.Fatal("expected first Initialize to fail")
	}

	writeCollection(t, predictionPath(root, 2025, 1), pointFeature(115, -8, "0.5"))
	if !svc.Initialize(context.Background()) {
		t.Fatal("expected second Initialize to succeed")
	}
	if !svc.Initialize(context.Background()) {
		t.Error("Initialize on a ready service must report true")
	}
}

func TestReadyDuringScan(t *testing.T) {
	root := newPredictionFixture(t)
	svc := newTestService(t, root, nil, nil, nil)

	entered := make(chan struct{})
	release := make(chan struct{})
	svc.scan = func(root string) (*repository.Catalog, error) {
		close(entered)
		<-release
		return repository.ScanPredictions(root)
	}

	done := make(chan bool)
	go func() { done <- svc.Initialize(context.Background()) }()
	<-entered

	answered := make(chan bool)
	go func() { answered <- svc.Ready() }()
	select {
	case isReady := <-answered:
		if isReady {
			t.Error("service reported ready before the scan finished")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Ready blocked while the catalog was being scanned")
	}
	if _, err := svc.AvailableMonths(); !errors.Is(err, model.ErrNotReady) {
		t.Errorf("AvailableMonths during scan: got %v", err)
	}

	close(release)
	if !<-done {
		t.Fatal("Initialize returned false")
	}
	if !svc.Ready() {
		t.Error("service should be ready after the scan")
	}
}

func TestKeepInitializing(t *testing.T) {
	root := filepath.Join(t.TempDir(), "predictions")
	svc := newTestService(t, root, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		svc.KeepInitializing(ctx, 10*time.Millisecond)
		close(done)
	}()

	writeCollection(t, predictionPath(root, 2025, 1), pointFeature(115, -8, "0.5"))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("catalog was not initialized in time")
	}
	if !svc.Ready() {
		t.Error("service should be ready")
	}
}

func TestMinimalCatalog(t *testing.T) {
	root := t.TempDir()
	writeCollection(t, predictionPath(root, 2025, 1), pointFeature(115, -8, "0.5"))

	svc := newTestService(t, root, nil, nil, nil)
	if !svc.Initialize(context.Background()) {
		t.Fatal("Initialize returned false")
	}

	available, err := svc.AvailableMonths()
	if err != nil {
		t.Fatal(err)
	}
	if len(available.AvailableYears) != 1 || available.AvailableYears[0] != 2025 {
		t.Errorf("years: got %v", available.AvailableYears)
	}
	if len(available.MonthsByYear[2025]) != 1 {
		t.Errorf("months: got %v", available.MonthsByYear[2025])
	}

	// missing metadata.json is an empty record
	metadata, err := svc.Metadata()
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if !metadata.Empty() {
		t.Error("expected empty metadata")
	}
	bounds, err := svc.SpatialBounds()
	if err != nil || string(bounds) != "{}" {
		t.Errorf("bounds: got %s, %v", bounds, err)
	}
}

func TestNullMetadataDocument(t *testing.T) {
	root := t.TempDir()
	writeCollection(t, predictionPath(root, 2025, 1), pointFeature(115, -8, "0.5"))
	writeFile(t, filepath.Join(root, "monthly_2025", "metadata.json"), "null")

	svc := newTestService(t, root, nil, nil, nil)
	if !svc.Initialize(context.Background()) {
		t.Fatal("Initialize returned false")
	}

	metadata, err := svc.Metadata()
	if err != nil {
		t.Fatal(err)
	}
	if !metadata.Empty() {
		t.Error("a null metadata document should be empty")
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "{}" {
		t.Errorf("metadata: got %s", data)
	}
}

func TestAvailableMonths(t *testing.T) {
	svc, _ := readyService(t)

	available, err := svc.AvailableMonths()
	if err != nil {
		t.Fatal(err)
	}

	if len(available.AvailableYears) != 2 || available.AvailableYears[0] != 2024 || available.AvailableYears[1] != 2025 {
		t.Errorf("years: got %v", available.AvailableYears)
	}
	if available.TotalMonths != 4 {
		t.Errorf("total months: got %d", available.TotalMonths)
	}

	months := available.MonthsByYear[2025]
	if len(months) != 3 || months[0].Key != "2025-01" || months[2].Month != 4 {
		t.Errorf("2025 months: got %+v", months)
	}
	if len(available.MonthsByYear[2024]) != 1 {
		t.Errorf("mismatched file was not ignored: %+v", available.MonthsByYear[2024])
	}

	if available.Year != 2024 || available.Total != 1 {
		t.Errorf("single-year fields: year %d total %d", available.Year, available.Total)
	}

	info := available.ModelInfo
	if info.Type != "RandomForest" || info.R2Score == nil || *info.R2Score != 0.87 || info.TrainingMonths == nil || *info.TrainingMonths != 36 {
		t.Errorf("model info: got %+v", info)
	}
}

func TestMetadataPassthrough(t *testing.T) {
	svc, _ := readyService(t)

	metadata, err := svc.Metadata()
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["model_type"] != "RandomForest" {
		t.Errorf("model_type: got %v", decoded["model_type"])
	}

	bounds, _ := svc.SpatialBounds()
	if got := compactJSON(t, bounds); got != `{"lat_min":-12}` {
		t.Errorf("bounds: got %s", got)
	}
	ocean, _ := svc.OceanographicInfo()
	if got := compactJSON(t, ocean); got != `{"sst":"Sea surface temperature"}` {
		t.Errorf("oceanography: got %s", got)
	}
}

func compactJSON(t *testing.T, data []byte) string {
	t.Helper()
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		t.Fatalf("compact %s: %v", data, err)
	}
	return buf.String()
}

func TestGetPrediction(t *testing.T) {
	svc, _ := readyService(t)
	ctx := context.Background()

	prediction, err := svc.GetPrediction(ctx, 2025, 1)
	if err != nil {
		t.Fatal(err)
	}
	if prediction.Date != "2025-01" || prediction.Metadata.FeaturesCount != 4 || prediction.Metadata.ModelType != "RandomForest" {
		t.Errorf("unexpected prediction: %+v", prediction)
	}

	_, err = svc.GetPrediction(ctx, 2025, 3)
	if !errors.Is(err, model.ErrNotFound) || err.Error() != "Prediction not found for 2025-03" {
		t.Errorf("missing month: got %v", err)
	}
	_, err = svc.GetPrediction(ctx, 2030, 1)
	if !errors.Is(err, model.ErrNotFound) || err.Error() != "No predictions available for year 2030" {
		t.Errorf("missing year: got %v", err)
	}
	if _, err := svc.GetPrediction(ctx, 2025, 4); err == nil || errors.Is(err, model.ErrNotFound) {
		t.Errorf("corrupt month: got %v", err)
	}
}

func TestGetPredictionStats(t *testing.T) {
	svc, recorder := readyService(t)

	stats, err := svc.GetPredictionStats(context.Background(), 2025, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !stats.OK() || stats.Statistics.Count != 4 || stats.Categories.Medium.Percentage != "50.00" {
		t.Errorf("unexpected stats: %+v", stats)
	}

	snapshots := recorder.recorded()
	if len(snapshots) != 1 {
		t.Fatalf("got %d snapshots, want 1", len(snapshots))
	}
	s := snapshots[0]
	if s.Source != model.SourcePrediction || s.Year != 2025 || s.Month != 1 || s.Count != 4 || s.MediumCount != 2 || s.ID == "" {
		t.Errorf("unexpected snapshot: %+v", s)
	}
}

func TestRecorderFailureDoesNotFailStats(t *testing.T) {
	recorder := &captureRecorder{err: errors.New("database is down")}
	svc := newTestService(t, newPredictionFixture(t), recorder, nil, nil)
	svc.Initialize(context.Background())

	if _, err := svc.GetPredictionStats(context.Background(), 2025, 2); err != nil {
		t.Fatalf("recorder error leaked: %v", err)
	}
}

func TestGetYearlyStats(t *testing.T) {
	svc, recorder := readyService(t)
	ctx := context.Background()

	yearly, err := svc.GetYearlyStats(ctx, 2025)
	if err != nil {
		t.Fatal(err)
	}
	if yearly.TotalMonths != 3 || len(yearly.MonthlyStats) != 3 {
		t.Fatalf("unexpected months: %+v", yearly)
	}
	if !yearly.MonthlyStats[1].OK() || !yearly.MonthlyStats[2].OK() {
		t.Error("months 1 and 2 should have statistics")
	}
	corrupt := yearly.MonthlyStats[4]
	if corrupt.OK() || corrupt.Error == "" || corrupt.Month != 4 {
		t.Errorf("corrupt month should be an error entry: %+v", corrupt)
	}
	if got := len(recorder.recorded()); got != 2 {
		t.Errorf("got %d snapshots, want 2", got)
	}

	if _, err := svc.GetYearlyStats(ctx, 2022); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("empty year: got %v", err)
	}
}

func TestGetYearlyStatsNullMonth(t *testing.T) {
	root := t.TempDir()
	writeCollection(t, predictionPath(root, 2025, 1),
		pointFeature(115, -8, "0.2"),
		pointFeature(116, -9, "0.9"),
	)
	writeCollection(t, predictionPath(root, 2025, 2), pointFeature(115, -8, "0.5"))
	writeCollection(t, predictionPath(root, 2025, 3),
		pointFeature(115, -8, "null"),
		pointFeature(116, -9, "null"),
	)
	svc := newTestService(t, root, nil, nil, nil)
	if !svc.Initialize(context.Background()) {
		t.Fatal("Initialize returned false")
	}

	yearly, err := svc.GetYearlyStats(context.Background(), 2025)
	if err != nil {
		t.Fatal(err)
	}
	if yearly.TotalMonths != 3 {
		t.Fatalf("total months: got %d", yearly.TotalMonths)
	}
	if !yearly.MonthlyStats[1].OK() || !yearly.MonthlyStats[2].OK() {
		t.Errorf("months 1 and 2 should keep their statistics: %+v", yearly.MonthlyStats)
	}

	want := model.MonthStats{Year: 2025, Month: 3, Error: "No valid HSI values"}
	if got := yearly.MonthlyStats[3]; got != want {
		t.Errorf("null month: got %+v, want %+v", got, want)
	}
	data, err := json.Marshal(yearly.MonthlyStats[3])
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"year":2025,"month":3,"error":"No valid HSI values"}` {
		t.Errorf("null month encoding: got %s", data)
	}
}

func TestGetPredictionAtPoint(t *testing.T) {
	svc, _ := readyService(t)

	point, err := svc.GetPredictionAtPoint(context.Background(), -8.9, 116.1, 2025, 1)
	if err != nil {
		t.Fatal(err)
	}
	cp := point.ClosestPoint
	if len(cp.Coordinates) != 2 || cp.Coordinates[0] != 116 || cp.Coordinates[1] != -9 {
		t.Errorf("coordinates: got %v", cp.Coordinates)
	}
	if cp.HSI == nil || *cp.HSI != 0.5 {
		t.Errorf("hsi: got %v", cp.HSI)
	}
	if point.RequestedCoordinates != (model.Coordinates{Lat: -8.9, Lon: 116.1}) {
		t.Errorf("requested: got %+v", point.RequestedCoordinates)
	}

	again, _ := svc.GetPredictionAtPoint(context.Background(), -8.9, 116.1, 2025, 1)
	if again.ClosestPoint.DistanceDegrees != cp.DistanceDegrees {
		t.Error("repeated lookup returned a different point")
	}
}

func TestGetPredictionAtPointNoFeatures(t *testing.T) {
	root := t.TempDir()
	writeCollection(t, predictionPath(root, 2025, 1))
	svc := newTestService(t, root, nil, nil, nil)
	svc.Initialize(context.Background())

	_, err := svc.GetPredictionAtPoint(context.Background(), 0, 0, 2025, 1)
	if !errors.Is(err, model.ErrNotFound) || err.Error() != "No prediction found near coordinates" {
		t.Errorf("got %v", err)
	}
}

func TestGetTrendAtPoint(t *testing.T) {
	svc, _ := readyService(t)

	trend, err := svc.GetTrendAtPoint(context.Background(), -8, 115, 2025)
	if err != nil {
		t.Fatal(err)
	}
	if len(trend.Trend) != 2 || trend.Trend[0].Month != 1 || trend.Trend[1].Month != 2 {
		t.Fatalf("trend: got %+v", trend.Trend)
	}
	if len(trend.SkippedMonths) != 1 || trend.SkippedMonths[0].Month != 4 {
		t.Errorf("skipped: got %+v", trend.SkippedMonths)
	}
	if trend.Summary.Mean == nil || !approx(*trend.Summary.Mean, 0.4) {
		t.Errorf("mean: got %v", trend.Summary.Mean)
	}

	missing, err := svc.GetTrendAtPoint(context.Background(), -8, 115, 2030)
	if !errors.Is(err, model.ErrNotFound) || err.Error() != "No predictions available for year 2030" {
		t.Errorf("missing year: got %+v, %v", missing, err)
	}
	// monthly_2022 holds no files and is not part of the catalog
	if _, err := svc.GetTrendAtPoint(context.Background(), -8, 115, 2022); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("empty year: got %v", err)
	}
}

type stubHarbours struct {
	harbours []model.Harbour
	bounds   model.Bounds
}

func (s *stubHarbours) GetHarbours(ctx context.Context, bounds model.Bounds) ([]model.Harbour, error) {
	s.bounds = bounds
	return s.harbours, nil
}

func TestHarboursNear(t *testing.T) {
	source := &stubHarbours{harbours: []model.Harbour{
		{ID: 1, Name: "Benoa", Lat: -8.5, Lon: 115},
		{ID: 2, Name: "Far", Lat: -12, Lon: 115},
		{ID: 3, Name: "Serangan", Lat: -8.1, Lon: 115},
	}}
	svc := newTestService(t, t.TempDir(), nil, nil, source)

	result, err := svc.HarboursNear(context.Background(), -8, 115, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Harbours) != 2 || result.Harbours[0].Name != "Serangan" {
		t.Errorf("harbours: got %+v", result.Harbours)
	}
	if source.bounds.MinLat >= -8 || source.bounds.MaxLat <= -8 {
		t.Errorf("query bounds do not contain origin: %+v", source.bounds)
	}

	if _, err := svc.HarboursNear(context.Background(), -8, 115, 0); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("zero radius: got %v", err)
	}

	unconfigured := newTestService(t, t.TempDir(), nil, nil, nil)
	if _, err := unconfigured.HarboursNear(context.Background(), -8, 115, 10); !errors.Is(err, model.ErrUnavailable) {
		t.Errorf("unconfigured: got %v", err)
	}
}

type stubHistory struct {
	source string
	limit  int
}

func (s *stubHistory) History(ctx context.Context, source string, year, month, limit int) ([]model.StatsSnapshot, error) {
	s.source = source
	s.limit = limit
	return []model.StatsSnapshot{{Source: source, Year: year, Month: month}}, nil
}

func TestStatsHistory(t *testing.T) {
	history := &stubHistory{}
	svc := newTestService(t, newPredictionFixture(t), nil, history, nil)
	svc.Initialize(context.Background())

	snapshots, err := svc.StatsHistory(context.Background(), 2025, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(snapshots) != 1 || history.source != model.SourcePrediction || history.limit != defaultHistoryLimit {
		t.Errorf("unexpected history call: %+v %+v", snapshots, history)
	}

	unconfigured, _ := readyService(t)
	if _, err := unconfigured.StatsHistory(context.Background(), 2025, 1, 5); !errors.Is(err, model.ErrUnavailable) {
		t.Errorf("unconfigured: got %v", err)
	}
}
