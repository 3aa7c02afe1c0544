package http

import (
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/mapscreen/internal/adapters/device"
	"github.com/samirrijal/mapscreen/internal/adapters/eventloop"
	"github.com/samirrijal/mapscreen/internal/adapters/postgres"
	"github.com/samirrijal/mapscreen/internal/adapters/surface"
	"github.com/samirrijal/mapscreen/internal/adapters/valkey"
	"github.com/samirrijal/mapscreen/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
//
// Screen and Surface.Render must only be touched through Loop.
type Dependencies struct {
	Screen  *usecases.MapScreen
	Loop    *eventloop.Loop
	Surface *surface.Surface
	Device  *device.LocationManager
	Journal *usecases.RouteJournal
	NATS    *nats.Conn
	DB      *postgres.DB
	Cache   *valkey.Cache

	// OpenAPIPath locates the API description served under /docs.
	// Defaults to api/openapi.yaml relative to the working directory.
	OpenAPIPath string
}
