package repository

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"
	lru "github.com/hashicorp/golang-lru/v2"

	"hsi_service/internal/domain/model"
)

// CollectionReader loads feature collections from disk. With a positive
// cache size it keeps decoded collections in an LRU; an entry is reused
// only while the file's modification time and size are unchanged.
// Cached collections are shared and must not be modified by callers.
type CollectionReader struct {
	cache *lru.Cache[string, cachedCollection]
}

type cachedCollection struct {
	modTime    time.Time
	size       int64
	collection *model.FeatureCollection
}

func NewCollectionReader(cacheSize int) (*CollectionReader, error) {
	r := &CollectionReader{}
	if cacheSize > 0 {
		cache, err := lru.New[string, cachedCollection](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create collection cache: %w", err)
		}
		r.cache = cache
	}
	return r, nil
}

// Read decodes the GeoJSON feature collection stored at path.
func (r *CollectionReader) Read(path string) (*model.FeatureCollection, error) {
	if r.cache == nil {
		return decodeCollection(path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if entry, ok := r.cache.Get(path); ok && entry.modTime.Equal(info.ModTime()) && entry.size == info.Size() {
		return entry.collection, nil
	}

	collection, err := decodeCollection(path)
	if err != nil {
		r.cache.Remove(path)
		return nil, err
	}
	r.cache.Add(path, cachedCollection{
		modTime:    info.ModTime(),
		size:       info.Size(),
		collection: collection,
	})
	return collection, nil
}

// Cached reports how many collections are currently held.
func (r *CollectionReader) Cached() int {
	if r.cache == nil {
		return 0
	}
	return r.cache.Len()
}

func decodeCollection(path string) (*model.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var collection model.FeatureCollection
	if err := json.Unmarshal(data, &collection); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if collection.Features == nil {
		collection.Features = []model.Feature{}
	}
	return &collection, nil
}
