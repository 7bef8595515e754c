package model

import "fmt"

// Harbour is a port or fishing harbour taken from OpenStreetMap.
type Harbour struct {
	ID         int64             `json:"id"`
	Type       string            `json:"type"`
	Name       string            `json:"name,omitempty"`
	Lat        float64           `json:"lat"`
	Lon        float64           `json:"lon"`
	Tags       map[string]string `json:"tags,omitempty"`
	DistanceKm float64           `json:"distance_km"` // great-circle distance from the query point
}

type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// BBox formats the bounds in Overpass order: south,west,north,east.
func (b Bounds) BBox() string {
	return fmt.Sprintf("%f,%f,%f,%f", b.MinLat, b.MinLon, b.MaxLat, b.MaxLon)
}

type HarbourSearch struct {
	Origin   Coordinates `json:"origin"`
	RadiusKm float64     `json:"radius_km"`
	Harbours []Harbour   `json:"harbours"`
}
