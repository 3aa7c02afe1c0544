// Package googlemaps implements ports.DirectionsService with the Google Maps
// Directions API.
package googlemaps

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"googlemaps.github.io/maps"

	"github.com/samirrijal/mapscreen/internal/core/domain"
	"github.com/samirrijal/mapscreen/internal/pkg/metrics"
	"github.com/samirrijal/mapscreen/internal/pkg/telemetry"
)

const provider = "google"

// Directions calls the Directions API.
type Directions struct {
	client *maps.Client
}

// New creates a Directions client. Extra options (e.g. maps.WithBaseURL)
// are passed to the underlying client.
func New(apiKey string, opts ...maps.ClientOption) (*Directions, error) {
	client, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("google maps client: %w", err)
	}
	return &Directions{client: client}, nil
}

// Calculate implements ports.DirectionsService.
func (d *Directions) Calculate(ctx context.Context, req domain.DirectionsRequest) (resp *domain.DirectionsResponse, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "googlemaps.directions")
	defer span.End()
	span.SetAttributes(attribute.String("request.id", req.ID))

	start := time.Now()
	defer func() {
		metrics.ObserveDirections(provider, start, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	mode := maps.TravelModeDriving
	if req.Transport == domain.TransportWalking {
		mode = maps.TravelModeWalking
	}

	routes, _, err := d.client.Directions(ctx, &maps.DirectionsRequest{
		Origin:       latLng(req.Origin),
		Destination:  latLng(req.Destination),
		Mode:         mode,
		Alternatives: true,
	})
	if err != nil {
		if isNoRoute(err) {
			return &domain.DirectionsResponse{}, nil
		}
		return nil, fmt.Errorf("directions: %w", err)
	}

	resp = &domain.DirectionsResponse{Routes: make([]domain.Route, 0, len(routes))}
	for _, r := range routes {
		points, err := r.OverviewPolyline.Decode()
		if err != nil {
			return nil, fmt.Errorf("decode overview polyline: %w", err)
		}
		if len(points) < 2 {
			continue
		}

		coords := make([]domain.GeoPoint, len(points))
		for i, p := range points {
			coords[i] = domain.GeoPoint{Lat: p.Lat, Lon: p.Lng}
		}
		route := domain.Route{Geometry: domain.GeoLineString{Coordinates: coords}}
		for _, leg := range r.Legs {
			if leg == nil {
				continue
			}
			route.DistanceMeters += float64(leg.Distance.Meters)
			route.ExpectedTravelTime += leg.Duration
		}
		resp.Routes = append(resp.Routes, route)
	}
	span.SetAttributes(attribute.Int("routes", len(resp.Routes)))
	return resp, nil
}

func latLng(p domain.GeoPoint) string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lon)
}

func isNoRoute(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "ZERO_RESULTS") || strings.Contains(msg, "NOT_FOUND")
}
