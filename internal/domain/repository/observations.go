package repository

import (
	"fmt"
	"os"
	"path/filepath"

	"hsi_service/internal/domain/model"
)

// ObservationCatalog indexes the historical hsi_<YYYY>_<MM>.geojson files
// kept side by side in one directory with a single shared metadata.json.
// Partitions are derived from file names instead of directories.
type ObservationCatalog struct {
	*Catalog
	Metadata model.ObservationMetadata
}

// ScanObservations indexes dir. Unlike the prediction scan, an empty
// directory is valid; a missing one is not.
func ScanObservations(dir string) (*ObservationCatalog, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("data directory not found: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("data path %s is not a directory", dir)
	}

	files, err := scanMonthFiles(dir, observationPattern)
	if err != nil {
		return nil, err
	}

	catalog := newCatalog(dir)
	for key, path := range files {
		p, ok := catalog.Year(key.year)
		if !ok {
			p = &YearPartition{Year: key.year, Dir: dir, Months: make(map[int]string)}
			catalog.add(p)
		}
		p.Months[key.month] = path
	}

	metadata, err := loadMetadata[model.ObservationMetadata](filepath.Join(dir, metadataFile))
	if err != nil {
		return nil, err
	}

	return &ObservationCatalog{Catalog: catalog, Metadata: metadata}, nil
}

// Path resolves an observation file, using the historical error wording.
func (c *ObservationCatalog) Path(year, month int) (string, error) {
	if p, ok := c.Year(year); ok {
		if path, ok := p.Months[month]; ok {
			return path, nil
		}
	}
	return "", model.NotFoundf("GeoJSON file not found for %s", model.YearMonth(year, month))
}
