package osrm_test

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/samirrijal/mapscreen/internal/adapters/osrm"
	"github.com/samirrijal/mapscreen/internal/core/domain"
)

func newTestClient(t *testing.T, handler fasthttp.RequestHandler) *osrm.Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = fasthttp.Serve(ln, handler) }()
	t.Cleanup(func() { _ = ln.Close() })

	return osrm.New("http://osrm.test/",
		osrm.WithDialer(func(addr string) (net.Conn, error) { return ln.Dial() }),
		osrm.WithTimeout(2*time.Second),
	)
}

var slcToProvo = domain.DirectionsRequest{
	ID:          "req-1",
	Origin:      domain.GeoPoint{Lat: 40.761870, Lon: -111.890621},
	Destination: domain.GeoPoint{Lat: 40.226319, Lon: -111.660941},
	Transport:   domain.TransportAutomobile,
}

const okBody = `{
  "code": "Ok",
  "routes": [
    {"distance": 71234.5, "duration": 2700,
     "geometry": {"type": "LineString", "coordinates": [[-111.890621, 40.76187], [-111.8, 40.5], [-111.660941, 40.226319]]}},
    {"distance": 80000, "duration": 3100,
     "geometry": {"type": "LineString", "coordinates": [[-111.890621, 40.76187], [-111.660941, 40.226319]]}}
  ]
}`

func TestCalculate_Routes(t *testing.T) {
	var path, query string
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		path = string(ctx.Path())
		query = string(ctx.QueryArgs().QueryString())
		ctx.SetContentType("application/json")
		ctx.SetBodyString(okBody)
	})

	resp, err := c.Calculate(context.Background(), slcToProvo)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}

	if path != "/route/v1/driving/-111.890621,40.761870;-111.660941,40.226319" {
		t.Errorf("unexpected path %q", path)
	}
	for _, want := range []string{"overview=full", "geometries=geojson", "alternatives=true"} {
		if !strings.Contains(query, want) {
			t.Errorf("query %q missing %s", query, want)
		}
	}

	if len(resp.Routes) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(resp.Routes))
	}
	best := resp.Routes[0]
	if len(best.Geometry.Coordinates) != 3 {
		t.Errorf("expected 3 points, got %d", len(best.Geometry.Coordinates))
	}
	if first := best.Geometry.Coordinates[0]; first.Lat != 40.76187 || first.Lon != -111.890621 {
		t.Errorf("coordinates not swapped to lat/lon: %+v", first)
	}
	if best.DistanceMeters != 71234.5 || best.ExpectedTravelTime != 45*time.Minute {
		t.Errorf("unexpected summary: %+v", best)
	}
}

func TestCalculate_NoRoute(t *testing.T) {
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		ctx.SetBodyString(`{"code":"NoRoute","message":"Impossible route between points"}`)
	})

	resp, err := c.Calculate(context.Background(), slcToProvo)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp == nil || len(resp.Routes) != 0 {
		t.Errorf("expected empty response, got %+v", resp)
	}
}

func TestCalculate_ErrorCode(t *testing.T) {
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		ctx.SetBodyString(`{"code":"InvalidQuery","message":"Query string malformed"}`)
	})

	_, err := c.Calculate(context.Background(), slcToProvo)
	if !errors.Is(err, osrm.ErrUnexpectedStatus) {
		t.Errorf("expected ErrUnexpectedStatus, got %v", err)
	}
}

func TestCalculate_ServerError(t *testing.T) {
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusBadGateway)
		ctx.SetBodyString("upstream down")
	})

	_, err := c.Calculate(context.Background(), slcToProvo)
	if !errors.Is(err, osrm.ErrUnexpectedStatus) {
		t.Errorf("expected ErrUnexpectedStatus, got %v", err)
	}
}

func TestCalculate_CancelledContext(t *testing.T) {
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetBodyString(okBody)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Calculate(ctx, slcToProvo); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCalculate_Deadline(t *testing.T) {
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		time.Sleep(200 * time.Millisecond)
		ctx.SetBodyString(okBody)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.Calculate(ctx, slcToProvo); err == nil {
		t.Error("expected timeout error")
	}
}
