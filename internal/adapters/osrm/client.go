// Package osrm implements ports.DirectionsService against an OSRM routing
// server's route service.
package osrm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/mapscreen/internal/core/domain"
	"github.com/samirrijal/mapscreen/internal/pkg/metrics"
	"github.com/samirrijal/mapscreen/internal/pkg/telemetry"
)

const provider = "osrm"

// ErrUnexpectedStatus is returned for non-200 replies and OSRM error codes
// other than "no route".
var ErrUnexpectedStatus = errors.New("osrm: unexpected response")

// Client calls OSRM's /route/v1 endpoint.
type Client struct {
	baseURL string
	http    *fasthttp.Client
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithDialer overrides how connections are opened.
func WithDialer(dial fasthttp.DialFunc) Option {
	return func(c *Client) { c.http.Dial = dial }
}

// WithTimeout bounds calls made with a context that has no deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &fasthttp.Client{
			Name:                "mapscreen",
			MaxConnsPerHost:     16,
			ReadTimeout:         30 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: time.Minute,
		},
		timeout: 20 * time.Second,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type routeResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64           `json:"distance"` // meters
		Duration float64           `json:"duration"` // seconds
		Geometry *geojson.Geometry `json:"geometry"`
	} `json:"routes"`
}

// Calculate implements ports.DirectionsService. OSRM only routes by car on
// the public demo server, so every request is treated as driving.
func (c *Client) Calculate(ctx context.Context, req domain.DirectionsRequest) (resp *domain.DirectionsResponse, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "osrm.route")
	defer span.End()
	span.SetAttributes(
		attribute.String("request.id", req.ID),
		attribute.String("transport", string(req.Transport)),
	)

	start := time.Now()
	defer func() {
		metrics.ObserveDirections(provider, start, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/route/v1/driving/%.6f,%.6f;%.6f,%.6f?overview=full&geometries=geojson&alternatives=true",
		c.baseURL, req.Origin.Lon, req.Origin.Lat, req.Destination.Lon, req.Destination.Lat)

	hreq := fasthttp.AcquireRequest()
	hresp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(hreq)
	defer fasthttp.ReleaseResponse(hresp)

	hreq.SetRequestURI(url)
	hreq.Header.SetMethod(fasthttp.MethodGet)
	hreq.Header.Set("Accept", "application/json")

	if deadline, ok := ctx.Deadline(); ok {
		err = c.http.DoDeadline(hreq, hresp, deadline)
	} else {
		err = c.http.DoTimeout(hreq, hresp, c.timeout)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}

	status := hresp.StatusCode()
	span.SetAttributes(attribute.Int("http.status_code", status))

	var body routeResponse
	if jsonErr := json.Unmarshal(hresp.Body(), &body); jsonErr != nil {
		if status != fasthttp.StatusOK {
			return nil, fmt.Errorf("%w: HTTP %d", ErrUnexpectedStatus, status)
		}
		return nil, fmt.Errorf("decode route response: %w", jsonErr)
	}

	switch body.Code {
	case "Ok":
	case "NoRoute", "NoSegment":
		return &domain.DirectionsResponse{}, nil
	default:
		return nil, fmt.Errorf("%w: HTTP %d code %q: %s", ErrUnexpectedStatus, status, body.Code, body.Message)
	}
	if status != fasthttp.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", ErrUnexpectedStatus, status)
	}

	resp = &domain.DirectionsResponse{Routes: make([]domain.Route, 0, len(body.Routes))}
	for _, r := range body.Routes {
		if r.Geometry == nil {
			continue
		}
		line, ok := r.Geometry.Geometry().(orb.LineString)
		if !ok || len(line) < 2 {
			continue
		}
		coords := make([]domain.GeoPoint, len(line))
		for i, p := range line {
			coords[i] = domain.GeoPoint{Lat: p.Lat(), Lon: p.Lon()}
		}
		resp.Routes = append(resp.Routes, domain.Route{
			Geometry:           domain.GeoLineString{Coordinates: coords},
			DistanceMeters:     r.Distance,
			ExpectedTravelTime: time.Duration(r.Duration * float64(time.Second)),
		})
	}
	span.SetAttributes(attribute.Int("routes", len(resp.Routes)))
	return resp, nil
}
