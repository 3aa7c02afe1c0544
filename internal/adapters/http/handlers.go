package http

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/mapscreen/internal/adapters/device"
	"github.com/samirrijal/mapscreen/internal/adapters/eventloop"
	"github.com/samirrijal/mapscreen/internal/adapters/surface"
	"github.com/samirrijal/mapscreen/internal/core/domain"
	"github.com/samirrijal/mapscreen/internal/core/usecases"
	"github.com/samirrijal/mapscreen/internal/pkg/metrics"
)

// RouteView is the displayed route in API responses.
type RouteView struct {
	ID     string `json:"id"`
	Points int    `json:"points"`
}

// MapState summarises the screen for clients polling it.
type MapState struct {
	Region            domain.Region     `json:"region"`
	Bounds            domain.Bounds     `json:"bounds"`
	PointSet          string            `json:"point_set"`
	RouteState        domain.RouteState `json:"route_state"`
	Route             *RouteView        `json:"route,omitempty"`
	NetworkActivity   bool              `json:"network_activity"`
	ShowsUserLocation bool              `json:"shows_user_location"`
	Tracking          bool              `json:"tracking"`
	LastSeq           uint64            `json:"last_seq"`
	SurfaceVersion    uint64            `json:"surface_version"`
	Annotations       int               `json:"annotations"`
	Overlays          int               `json:"overlays"`
	Device            device.Status     `json:"device"`
}

// ShowRouteResponse acknowledges a route request.
type ShowRouteResponse struct {
	RequestID string            `json:"request_id"`
	Seq       uint64            `json:"seq"`
	State     domain.RouteState `json:"state"`
}

func loopError(c *fiber.Ctx, err error) error {
	if errors.Is(err, eventloop.ErrClosed) {
		return errUnavailable(c, "map screen is shutting down")
	}
	return errUnavailable(c, err.Error())
}

// readMapState collects the state on the main queue.
func readMapState(ctx context.Context, deps *Dependencies) (MapState, error) {
	var st MapState
	err := deps.Loop.Sync(ctx, func() {
		screen := deps.Screen.Screen()
		st.PointSet = screen.Points.Tag
		st.RouteState = deps.Screen.RouteState()
		if r, ok := deps.Screen.CurrentRoute(); ok {
			st.Route = &RouteView{ID: r.ID, Points: len(r.Coordinates)}
		}
		st.NetworkActivity = deps.Screen.NetworkActivityVisible()
		st.Tracking = deps.Screen.IsTracking()
		st.LastSeq = deps.Screen.LastSeq()
	})
	if err != nil {
		return st, err
	}

	snap := deps.Surface.Snapshot()
	st.Region = snap.Region
	st.Bounds = snap.Region.Bounds()
	st.ShowsUserLocation = snap.ShowsUserLocation
	st.SurfaceVersion = snap.Version
	st.Annotations = snap.Annotations
	st.Overlays = snap.Overlays
	st.Device = deps.Device.Snapshot()
	return st, nil
}

// MapHandler renders the surface as a GeoJSON FeatureCollection.
func MapHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var r surface.Rendering
		if err := deps.Loop.Sync(c.UserContext(), func() { r = deps.Surface.Render() }); err != nil {
			return loopError(c, err)
		}

		data, err := json.Marshal(surface.GeoJSON(r))
		if err != nil {
			return errInternal(c, err.Error())
		}
		c.Set(fiber.HeaderContentType, "application/geo+json")
		c.Set(HeaderSurfaceVersion, strconv.FormatUint(r.Version, 10))
		return c.Send(data)
	}
}

// MapStateHandler returns the screen state.
func MapStateHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := readMapState(c.UserContext(), deps)
		if err != nil {
			return loopError(c, err)
		}
		return c.JSON(st)
	}
}

// ShowRouteHandler is the "show route" user action. The route is drawn
// asynchronously; clients poll /v1/map/state or listen on /ws.
func ShowRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var (
			resp ShowRouteResponse
			err  error
		)
		syncErr := deps.Loop.Sync(c.UserContext(), func() {
			resp.Seq, err = deps.Screen.ShowRoute()
			resp.RequestID = deps.Screen.LastRequestID()
			resp.State = deps.Screen.RouteState()
		})
		if syncErr != nil {
			return loopError(c, syncErr)
		}

		switch {
		case errors.Is(err, usecases.ErrNoUserLocation):
			return errConflict(c, "user location is not known yet")
		case errors.Is(err, usecases.ErrNoDestination):
			return errUnprocessable(c, "no destination configured")
		case errors.Is(err, usecases.ErrTornDown):
			return errUnavailable(c, "map screen is shutting down")
		case err != nil:
			return errInternal(c, err.Error())
		}

		LoggerFromCtx(c.UserContext()).Info("show route requested", "seq", resp.Seq, "directions_request_id", resp.RequestID)
		return c.Status(fiber.StatusAccepted).JSON(resp)
	}
}

// RouteRequestsHandler pages through the route request journal.
func RouteRequestsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Journal == nil {
			return errUnavailable(c, "route journal not configured")
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 20)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 100 {
			limit = 20
		}

		outcomes, total, err := deps.Journal.Recent(c.UserContext(), offset, limit)
		if errors.Is(err, usecases.ErrJournalUnavailable) {
			return errUnavailable(c, err.Error())
		}
		if err != nil {
			return errInternal(c, err.Error())
		}
		if outcomes == nil {
			outcomes = []domain.RouteOutcome{}
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: outcomes, Pagination: pg})
	}
}

type locationRequest struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// DeviceLocationHandler delivers a position fix from the device.
func DeviceLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req locationRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Lat == nil || req.Lon == nil {
			return errBadRequest(c, "lat and lon are required")
		}

		accepted, err := deps.Device.UpdateLocation(domain.GeoPoint{Lat: *req.Lat, Lon: *req.Lon})
		if errors.Is(err, device.ErrInvalidCoordinate) {
			return errBadRequest(c, err.Error())
		}
		if err != nil {
			return errInternal(c, err.Error())
		}
		metrics.DeviceUpdates.WithLabelValues("location", "http").Inc()

		return c.JSON(fiber.Map{"accepted": accepted})
	}
}

type authorizationRequest struct {
	Status domain.AuthorizationStatus `json:"status"`
}

// DeviceAuthorizationHandler delivers the user's answer to the permission prompt.
func DeviceAuthorizationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req authorizationRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := deps.Device.SetAuthorizationStatus(req.Status); err != nil {
			if errors.Is(err, device.ErrInvalidStatus) {
				return errBadRequest(c, "unknown status: "+string(req.Status))
			}
			return errInternal(c, err.Error())
		}
		metrics.DeviceUpdates.WithLabelValues("authorization", "http").Inc()

		return c.JSON(deps.Device.Snapshot())
	}
}
