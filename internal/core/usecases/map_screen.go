package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/mapscreen/internal/core/domain"
	"github.com/samirrijal/mapscreen/internal/core/ports"
	"github.com/samirrijal/mapscreen/internal/pkg/geospatial"
	"github.com/samirrijal/mapscreen/internal/pkg/metrics"
)

var (
	// ErrNoUserLocation is returned by ShowRoute before the first location fix.
	ErrNoUserLocation = errors.New("user location unavailable")
	// ErrNoDestination is returned when the point set is empty.
	ErrNoDestination = errors.New("point set has no destination")
	// ErrTornDown is returned after Teardown.
	ErrTornDown = errors.New("map screen torn down")
)

const defaultRequestTimeout = 30 * time.Second

// Screen is the static content of a map screen.
type Screen struct {
	Region   domain.Region
	Boundary []domain.GeoPoint
	Points   domain.PointSet
}

// MapScreenDeps are the collaborators a MapScreen drives.
type MapScreenDeps struct {
	Surface    ports.DisplaySurface
	Location   ports.LocationService
	Directions ports.DirectionsService
	Main       ports.MainQueue
	Indicator  ports.NetworkActivityIndicator
	Journal    ports.RouteJournal // optional
}

// Option configures a MapScreen.
type Option func(*MapScreen)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *MapScreen) { s.log = l }
}

// WithRequestTimeout bounds each directions request.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *MapScreen) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *MapScreen) { s.now = now }
}

// MapScreen controls one map: it sets up the view, acquires location
// permission and draws a driving route on request.
//
// Every method must be called on the main queue. Directions requests run on
// their own goroutine and hand their result back through the main queue, so
// the route slot and the activity indicator are only touched there.
//
// When "show route" is invoked again before the previous request completes,
// the latest request wins: the superseded request is cancelled and its
// completion, if it still arrives, is ignored.
type MapScreen struct {
	surface    ports.DisplaySurface
	location   ports.LocationService
	directions ports.DirectionsService
	main       ports.MainQueue
	journal    ports.RouteJournal

	screen  Screen
	log     *slog.Logger
	now     func() time.Time
	timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	slot       routeSlot
	activity   networkActivity
	boundaryID string
	tracking   bool
	tornDown   bool

	seq          uint64 // last issued request
	lastReqID    string
	latestDone   bool
	cancelLatest context.CancelFunc
}

// NewMapScreen creates a controller for screen.
func NewMapScreen(deps MapScreenDeps, screen Screen, opts ...Option) *MapScreen {
	ctx, cancel := context.WithCancel(context.Background())
	s := &MapScreen{
		surface:    deps.Surface,
		location:   deps.Location,
		directions: deps.Directions,
		main:       deps.Main,
		journal:    deps.Journal,
		screen:     screen,
		log:        slog.Default(),
		now:        time.Now,
		timeout:    defaultRequestTimeout,
		ctx:        ctx,
		cancel:     cancel,
		latestDone: true,
		activity:   networkActivity{indicator: deps.Indicator},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load sets the region and adds the point annotations and boundary polygon.
func (s *MapScreen) Load() {
	s.surface.SetDelegate(s)
	s.surface.SetRegion(s.screen.Region)

	set := s.screen.Points
	for _, p := range set.Points {
		s.surface.AddAnnotation(domain.Annotation{
			ID:         uuid.NewString(),
			Coordinate: p.Coordinate,
			Title:      set.TitleFor(p),
			Tag:        set.Tag,
		})
	}

	if len(s.screen.Boundary) > 0 {
		s.boundaryID = uuid.NewString()
		s.surface.AddOverlay(domain.Overlay{
			ID:          s.boundaryID,
			Kind:        domain.OverlayPolygon,
			Coordinates: append([]domain.GeoPoint(nil), s.screen.Boundary...),
		})
	}

	s.log.Info("map screen loaded",
		"annotations", len(set.Points),
		"point_set", set.Tag,
		"center_lat", s.screen.Region.Center.Lat,
		"center_lon", s.screen.Region.Center.Lon,
	)
}

// Appear asks for when-in-use location access. Tracking starts right away
// if access was granted earlier, otherwise when AuthorizationChanged reports it.
func (s *MapScreen) Appear() {
	if s.tornDown {
		return
	}
	s.location.SetDelegate(s)
	s.location.SetDesiredAccuracy(domain.AccuracyBest)
	s.location.RequestWhenInUseAuthorization()

	if s.location.AuthorizationStatus().Granted() {
		s.beginTracking()
	}
}

// AuthorizationChanged implements ports.LocationDelegate. A grant starts
// tracking; anything else ends it if it was running, and is otherwise a no-op.
func (s *MapScreen) AuthorizationChanged(status domain.AuthorizationStatus) {
	if s.tornDown {
		return
	}
	if !status.Granted() {
		s.log.Debug("location not authorized", "status", string(status))
		s.endTracking()
		return
	}
	s.beginTracking()
}

// endTracking forgets tracking after access is withdrawn so a later grant
// starts updates again.
func (s *MapScreen) endTracking() {
	if !s.tracking {
		return
	}
	s.tracking = false
	s.location.StopUpdatingLocation()
	s.surface.SetShowsUserLocation(false)
	s.log.Info("location tracking stopped")
}

func (s *MapScreen) beginTracking() {
	if s.tracking {
		return
	}
	s.tracking = true
	s.location.StartUpdatingLocation()
	s.surface.SetShowsUserLocation(true)
	s.log.Info("location tracking started")
}

// ShowRoute requests driving directions from the user's position to the
// first point of interest and returns the request's sequence number. The
// result is applied later on the main queue.
func (s *MapScreen) ShowRoute() (uint64, error) {
	if s.tornDown {
		return 0, ErrTornDown
	}
	if len(s.screen.Points.Points) == 0 {
		return 0, ErrNoDestination
	}
	origin, ok := s.location.CurrentCoordinate()
	if !ok {
		s.log.Warn("show route: user location unavailable")
		return 0, ErrNoUserLocation
	}

	if s.cancelLatest != nil {
		s.cancelLatest()
	}
	s.seq++
	seq := s.seq
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	s.cancelLatest = cancel
	s.latestDone = false

	req := domain.DirectionsRequest{
		ID:          uuid.NewString(),
		Origin:      origin,
		Destination: s.screen.Points.Points[0].Coordinate,
		Transport:   domain.TransportAutomobile,
	}
	s.lastReqID = req.ID
	requestedAt := s.now()
	release := s.activity.hold()

	s.log.Info("directions requested",
		"request_id", req.ID,
		"seq", seq,
		"origin_lat", origin.Lat,
		"origin_lon", origin.Lon,
	)

	go func() {
		resp, err := s.directions.Calculate(ctx, req)
		s.main.Async(func() {
			cancel()
			release()
			s.complete(seq, req, requestedAt, resp, err)
		})
	}()

	return seq, nil
}

func (s *MapScreen) complete(seq uint64, req domain.DirectionsRequest, requestedAt time.Time, resp *domain.DirectionsResponse, err error) {
	outcome := domain.RouteOutcome{
		RequestID:   req.ID,
		Seq:         seq,
		Origin:      req.Origin,
		Destination: req.Destination,
		RequestedAt: requestedAt,
		CompletedAt: s.now(),
	}
	if err != nil {
		outcome.Error = err.Error()
	}

	switch {
	case s.tornDown || seq != s.seq:
		outcome.Outcome = domain.OutcomeStale
		s.log.Info("ignoring superseded directions result", "seq", seq, "latest", s.seq)

	case err != nil || resp == nil:
		s.latestDone = true
		outcome.Outcome = domain.OutcomeFailed
		if err == nil {
			outcome.Error = "no response"
		}
		s.log.Error("directions request failed", "request_id", req.ID, "seq", seq, "error", outcome.Error)

	case len(resp.Routes) == 0:
		s.latestDone = true
		outcome.Outcome = domain.OutcomeNoRoute
		s.log.Warn("no route found", "request_id", req.ID, "seq", seq)

	default:
		s.latestDone = true
		best := resp.Routes[0]
		next := domain.Overlay{
			ID:          uuid.NewString(),
			Kind:        domain.OverlayPolyline,
			Coordinates: best.Geometry.Coordinates,
		}
		prev, replaced := s.slot.Swap(s.surface, next)
		metrics.RouteOverlays.Set(1)

		outcome.Outcome = domain.OutcomeDisplayed
		outcome.PointCount = len(next.Coordinates)
		outcome.DistanceMeters = best.DistanceMeters
		if outcome.DistanceMeters == 0 {
			outcome.DistanceMeters = geospatial.PathLength(next.Coordinates)
		}

		attrs := []any{"request_id", req.ID, "seq", seq, "points", outcome.PointCount, "distance_m", fmt.Sprintf("%.0f", outcome.DistanceMeters)}
		if replaced {
			attrs = append(attrs, "replaced", prev.ID)
		}
		s.log.Info("route displayed", attrs...)
	}

	metrics.DirectionsRequests.WithLabelValues(string(outcome.Outcome)).Inc()
	if s.journal != nil {
		go s.journal.Record(context.WithoutCancel(s.ctx), outcome)
	}
}

// Teardown cancels pending requests and clears the surface. The screen
// ignores everything afterwards.
func (s *MapScreen) Teardown() {
	if s.tornDown {
		return
	}
	s.tornDown = true
	s.cancel()
	s.latestDone = true
	if s.tracking {
		s.location.StopUpdatingLocation()
		s.tracking = false
	}
	s.surface.RemoveAllOverlays()
	s.surface.RemoveAllAnnotations()
	s.slot.Clear()
	metrics.RouteOverlays.Set(0)
	s.log.Info("map screen torn down")
}

// RouteState reports the route slot state.
func (s *MapScreen) RouteState() domain.RouteState {
	switch {
	case !s.latestDone:
		return domain.RouteStatePending
	case s.slot.current != nil:
		return domain.RouteStateDisplayed
	default:
		return domain.RouteStateEmpty
	}
}

// CurrentRoute returns the displayed route overlay, if any.
func (s *MapScreen) CurrentRoute() (domain.Overlay, bool) {
	return s.slot.Current()
}

// NetworkActivityVisible reports whether a directions request is in flight.
func (s *MapScreen) NetworkActivityVisible() bool {
	return s.activity.visible()
}

// IsTracking reports whether location updates have been started.
func (s *MapScreen) IsTracking() bool {
	return s.tracking
}

// Screen returns the static screen content.
func (s *MapScreen) Screen() Screen {
	return s.screen
}

// LastSeq returns the sequence number of the latest request, 0 if none.
func (s *MapScreen) LastSeq() uint64 {
	return s.seq
}

// LastRequestID returns the id of the latest request, "" if none.
func (s *MapScreen) LastRequestID() string {
	return s.lastReqID
}
