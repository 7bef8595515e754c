package repository

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/serjvanilla/go-overpass"

	"hsi_service/internal/domain/model"
)

type OverpassRepository struct {
	client  *overpass.Client
	timeout time.Duration
}

func NewOverpassRepository(endpoint string, maxParallel int, timeout time.Duration) *OverpassRepository {
	httpClient := &http.Client{
		Timeout: timeout,
	}
	client := overpass.NewWithSettings(endpoint, maxParallel, httpClient)
	return &OverpassRepository{
		client:  &client,
		timeout: timeout,
	}
}

// GetHarbours returns ports and harbours inside bounds.
func (r *OverpassRepository) GetHarbours(ctx context.Context, bounds model.Bounds) ([]model.Harbour, error) {
	bbox := bounds.BBox()
	query := fmt.Sprintf(`
		[out:json];
		(
			node["harbour"="yes"](%s);
			way["harbour"="yes"](%s);
			node["landuse"="port"](%s);
			way["landuse"="port"](%s);
			node["industrial"="port"](%s);
			way["industrial"="port"](%s);
		);
		out body;
		>;
		out skel qt;
	`, bbox, bbox, bbox, bbox, bbox, bbox)

	result, err := r.executeQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute harbour query: %w", err)
	}

	return convertToHarbours(result), nil
}

func (r *OverpassRepository) executeQuery(ctx context.Context, query string) (*overpass.Result, error) {
	type outcome struct {
		result overpass.Result
		err    error
	}

	// the client has no context support; bound the wait here instead
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		result, err := r.client.Query(query)
		done <- outcome{result: result, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("overpass query aborted: %w", ctx.Err())
	case out := <-done:
		if out.err != nil {
			return nil, fmt.Errorf("overpass query failed: %w", out.err)
		}
		return &out.result, nil
	}
}

// convertToHarbours keeps tagged elements only; the skeleton nodes that
// come back for ways carry no tags and are used for way centroids.
func convertToHarbours(result *overpass.Result) []model.Harbour {
	var harbours []model.Harbour

	for _, node := range result.Nodes {
		if !isHarbour(node.Tags) {
			continue
		}
		harbours = append(harbours, model.Harbour{
			ID:   node.ID,
			Type: string(overpass.ElementTypeNode),
			Name: node.Tags["name"],
			Lat:  node.Lat,
			Lon:  node.Lon,
			Tags: node.Tags,
		})
	}

	for _, way := range result.Ways {
		if !isHarbour(way.Tags) {
			continue
		}
		var lat, lon float64
		count := len(way.Nodes)
		if count > 0 {
			for _, node := range way.Nodes {
				lat += node.Lat
				lon += node.Lon
			}
			lat /= float64(count)
			lon /= float64(count)
		}

		harbours = append(harbours, model.Harbour{
			ID:   way.ID,
			Type: string(overpass.ElementTypeWay),
			Name: way.Tags["name"],
			Lat:  lat,
			Lon:  lon,
			Tags: way.Tags,
		})
	}

	return harbours
}

func isHarbour(tags map[string]string) bool {
	return tags["harbour"] == "yes" || tags["landuse"] == "port" || tags["industrial"] == "port"
}
