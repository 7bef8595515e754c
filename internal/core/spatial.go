package core

import (
	"math"
	"sort"

	"hsi_service/internal/domain/model"
)

// kmPerDegree is the length of one degree of latitude.
const kmPerDegree = 111.32

type SpatialAnalyzer struct{}

// Nearest returns the index of the feature closest to (lat, lon) and its
// flat Euclidean distance in degrees. Features without a usable point
// geometry are skipped; on equal distance the earlier feature wins.
func (a *SpatialAnalyzer) Nearest(features []model.Feature, lat, lon float64) (int, float64, bool) {
	best := -1
	minDist := math.Inf(1)

	for i, f := range features {
		fLon, fLat, ok := f.Point()
		if !ok {
			continue
		}
		dLat := fLat - lat
		dLon := fLon - lon
		dist := math.Sqrt(dLat*dLat + dLon*dLon)
		if dist < minDist {
			best = i
			minDist = dist
		}
	}

	if best < 0 {
		return -1, 0, false
	}
	return best, minDist, true
}

// BoundsAround returns the box that contains the circle of radiusKm
// around (lat, lon).
func (a *SpatialAnalyzer) BoundsAround(lat, lon, radiusKm float64) model.Bounds {
	dLat := radiusKm / kmPerDegree
	dLon := 180.0
	if c := math.Cos(lat * math.Pi / 180); c > 1e-9 {
		dLon = math.Min(radiusKm/(kmPerDegree*c), 180)
	}
	return model.Bounds{
		MinLat: math.Max(lat-dLat, -90),
		MinLon: math.Max(lon-dLon, -180),
		MaxLat: math.Min(lat+dLat, 90),
		MaxLon: math.Min(lon+dLon, 180),
	}
}

// WithinRadius sets the distance of each harbour to origin, drops those
// farther than radiusKm and sorts the rest nearest first.
func (a *SpatialAnalyzer) WithinRadius(harbours []model.Harbour, origin model.Coordinates, radiusKm float64) []model.Harbour {
	result := make([]model.Harbour, 0, len(harbours))
	for _, h := range harbours {
		h.DistanceKm = haversine(origin.Lat, origin.Lon, h.Lat, h.Lon)
		if h.DistanceKm <= radiusKm {
			result = append(result, h)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].DistanceKm < result[j].DistanceKm
	})
	return result
}

func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371 // Earth radius, km
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}
