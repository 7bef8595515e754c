package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"hsi_service/internal/domain/model"
)

// pointFeature renders one GeoJSON point; hsi is a JSON literal such as
// "0.5" or "null".
func pointFeature(lon, lat float64, hsi string) string {
	return fmt.Sprintf(`{"type":"Feature","geometry":{"type":"Point","coordinates":[%g,%g]},"properties":{"hsi":%s}}`, lon, lat, hsi)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func writeCollection(t *testing.T, path string, features ...string) {
	t.Helper()
	writeFile(t, path, `{"type":"FeatureCollection","features":[`+strings.Join(features, ",")+`]}`)
}

func predictionPath(root string, year, month int) string {
	return filepath.Join(root, fmt.Sprintf("monthly_%d", year), fmt.Sprintf("hsi_prediction_%d_%02d.geojson", year, month))
}

type captureRecorder struct {
	mu        sync.Mutex
	snapshots []model.StatsSnapshot
	err       error
}

func (r *captureRecorder) Record(ctx context.Context, s model.StatsSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, s)
	return r.err
}

func (r *captureRecorder) recorded() []model.StatsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.StatsSnapshot(nil), r.snapshots...)
}

func floatPtr(v float64) *float64 {
	return &v
}
