package repository

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/google/btree"

	"hsi_service/internal/domain/model"
)

const metadataFile = "metadata.json"

var (
	yearDirPattern        = regexp.MustCompile(`^monthly_(\d{4})$`)
	predictionFilePattern = regexp.MustCompile(`^hsi_prediction_(\d{4})_(\d{2})\.geojson$`)
	observationPattern    = regexp.MustCompile(`^hsi_(\d{4})_(\d{2})\.geojson$`)
)

// ErrEmptyCatalog is returned by a scan that found no usable month file.
var ErrEmptyCatalog = errors.New("no monthly prediction directories found")

// YearPartition is the set of month files of one year.
type YearPartition struct {
	Year     int
	Dir      string
	Months   map[int]string // month -> file path
	Metadata model.ModelMetadata
}

// SortedMonths returns the available months in ascending order.
func (p *YearPartition) SortedMonths() []int {
	months := make([]int, 0, len(p.Months))
	for m := range p.Months {
		months = append(months, m)
	}
	sort.Ints(months)
	return months
}

// Catalog indexes month files by year and month. It is immutable once
// returned by a scan.
type Catalog struct {
	root  string
	years *btree.BTreeG[*YearPartition]
}

func newCatalog(root string) *Catalog {
	return &Catalog{
		root: root,
		years: btree.NewG(8, func(a, b *YearPartition) bool {
			return a.Year < b.Year
		}),
	}
}

func (c *Catalog) Root() string {
	return c.root
}

// Year returns the partition of the given year.
func (c *Catalog) Year(year int) (*YearPartition, bool) {
	return c.years.Get(&YearPartition{Year: year})
}

// Path resolves the file of a year/month pair.
func (c *Catalog) Path(year, month int) (string, error) {
	p, ok := c.Year(year)
	if !ok {
		return "", model.NotFoundf("No predictions available for year %d", year)
	}
	path, ok := p.Months[month]
	if !ok {
		return "", model.NotFoundf("Prediction not found for %s", model.YearMonth(year, month))
	}
	return path, nil
}

// Years returns the available years in ascending order.
func (c *Catalog) Years() []int {
	years := make([]int, 0, c.years.Len())
	c.years.Ascend(func(p *YearPartition) bool {
		years = append(years, p.Year)
		return true
	})
	return years
}

// Partitions returns every partition in ascending year order.
func (c *Catalog) Partitions() []*YearPartition {
	parts := make([]*YearPartition, 0, c.years.Len())
	c.years.Ascend(func(p *YearPartition) bool {
		parts = append(parts, p)
		return true
	})
	return parts
}

// Latest returns the partition with the highest year.
func (c *Catalog) Latest() (*YearPartition, bool) {
	return c.years.Max()
}

func (c *Catalog) TotalMonths() int {
	total := 0
	c.years.Ascend(func(p *YearPartition) bool {
		total += len(p.Months)
		return true
	})
	return total
}

func (c *Catalog) Len() int {
	return c.years.Len()
}

func (c *Catalog) add(p *YearPartition) {
	c.years.ReplaceOrInsert(p)
}

// ScanPredictions walks root for monthly_<YYYY> directories and indexes
// their hsi_prediction_<YYYY>_<MM>.geojson files. A file whose year does
// not match its directory is ignored, a year without valid files is
// dropped.
func ScanPredictions(root string) (*Catalog, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("predictions directory not found: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("predictions path %s is not a directory", root)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read predictions directory: %w", err)
	}

	catalog := newCatalog(root)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		match := yearDirPattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		year, _ := strconv.Atoi(match[1])
		yearDir := filepath.Join(root, entry.Name())

		months, err := scanMonthFiles(yearDir, predictionFilePattern)
		if err != nil {
			return nil, err
		}

		partition := &YearPartition{
			Year:   year,
			Dir:    yearDir,
			Months: make(map[int]string),
		}
		for key, path := range months {
			if key.year != year {
				log.Printf("[catalog] ignoring %s: file year %d does not match directory year %d", path, key.year, year)
				continue
			}
			partition.Months[key.month] = path
		}
		if len(partition.Months) == 0 {
			continue
		}

		metadata, err := loadMetadata[model.ModelMetadata](filepath.Join(yearDir, metadataFile))
		if err != nil {
			return nil, err
		}
		partition.Metadata = metadata

		catalog.add(partition)
	}

	if catalog.Len() == 0 {
		return nil, fmt.Errorf("%w in %s", ErrEmptyCatalog, root)
	}
	return catalog, nil
}

type monthKey struct {
	year  int
	month int
}

// scanMonthFiles lists the files of dir matching pattern, whose first
// and second groups are the year and the month.
func scanMonthFiles(dir string, pattern *regexp.Regexp) (map[monthKey]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	files := make(map[monthKey]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := pattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		year, _ := strconv.Atoi(match[1])
		month, _ := strconv.Atoi(match[2])
		if month < 1 || month > 12 {
			continue
		}
		files[monthKey{year: year, month: month}] = filepath.Join(dir, entry.Name())
	}
	return files, nil
}

// loadMetadata decodes an optional metadata file. A missing file yields
// the zero value.
func loadMetadata[T any](path string) (T, error) {
	var metadata T
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return metadata, nil
	}
	if err != nil {
		return metadata, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &metadata); err != nil {
		return metadata, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return metadata, nil
}
