package usecases_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/samirrijal/mapscreen/internal/core/domain"
	"github.com/samirrijal/mapscreen/internal/core/ports"
	"github.com/samirrijal/mapscreen/internal/core/usecases"
)

var provo = domain.GeoPoint{Lat: 40.2338, Lon: -111.6585}

type fixture struct {
	screen   *usecases.MapScreen
	surface  *mockSurface
	location *mockLocation
	queue    *manualQueue
	journal  *mockJournal
	logs     *countingHandler
}

func newFixture(t *testing.T, directions ports.DirectionsService, points domain.PointSet) *fixture {
	t.Helper()
	f := &fixture{
		surface:  newMockSurface(),
		location: &mockLocation{status: domain.AuthorizationNotDetermined},
		queue:    newManualQueue(),
		journal:  newMockJournal(),
		logs:     newCountingHandler(),
	}
	f.screen = usecases.NewMapScreen(usecases.MapScreenDeps{
		Surface:    f.surface,
		Location:   f.location,
		Directions: directions,
		Main:       f.queue,
		Indicator:  f.surface,
		Journal:    f.journal,
	}, usecases.UtahScreen(points), usecases.WithLogger(slog.New(f.logs)))
	f.screen.Load()
	return f
}

// located grants access and provides a fix.
func (f *fixture) located() {
	f.location.status = domain.AuthorizationAuthorizedWhenInUse
	f.location.coord = provo
	f.location.hasCoord = true
	f.screen.Appear()
}

func routeResponse(points ...domain.GeoPoint) *domain.DirectionsResponse {
	return &domain.DirectionsResponse{Routes: []domain.Route{
		{Geometry: domain.GeoLineString{Coordinates: points}},
	}}
}

func TestMapScreen_LoadSetsUpSurface(t *testing.T) {
	f := newFixture(t, &mockDirections{}, usecases.DevMountainPoints())

	if f.surface.region != usecases.UtahRegion() {
		t.Errorf("region = %+v", f.surface.region)
	}
	if f.surface.delegate == nil {
		t.Error("expected surface delegate to be set")
	}
	if len(f.surface.annotations) != 2 {
		t.Fatalf("expected 2 annotations, got %d", len(f.surface.annotations))
	}
	for _, a := range f.surface.annotations {
		if a.Title != "DM" || a.Tag != usecases.DevMountainTag {
			t.Errorf("unexpected annotation %+v", a)
		}
	}
	if f.surface.annotations[0].Coordinate != (domain.GeoPoint{Lat: 40.761870, Lon: -111.890621}) {
		t.Errorf("first annotation should be Salt Lake City, got %+v", f.surface.annotations[0].Coordinate)
	}

	polygons := f.surface.overlaysOf(domain.OverlayPolygon)
	if len(polygons) != 1 || len(f.surface.overlays) != 1 {
		t.Fatalf("expected exactly one polygon overlay, got %d overlays", len(f.surface.overlays))
	}
	if len(polygons[0].Coordinates) != 6 {
		t.Errorf("expected 6 boundary vertices, got %d", len(polygons[0].Coordinates))
	}
	if f.screen.RouteState() != domain.RouteStateEmpty {
		t.Errorf("route state = %s", f.screen.RouteState())
	}
}

func TestMapScreen_LoadUsesPointNames(t *testing.T) {
	f := newFixture(t, &mockDirections{}, usecases.NationalParkPoints())

	if len(f.surface.annotations) != 5 {
		t.Fatalf("expected 5 annotations, got %d", len(f.surface.annotations))
	}
	if f.surface.annotations[0].Title != "Arches" {
		t.Errorf("expected Arches, got %s", f.surface.annotations[0].Title)
	}
}

func TestMapScreen_StyleOverlay(t *testing.T) {
	f := newFixture(t, &mockDirections{}, usecases.DevMountainPoints())

	tests := []struct {
		kind domain.OverlayKind
		want domain.OverlayStyle
	}{
		{domain.OverlayPolygon, domain.OverlayStyle{StrokeColor: domain.ColorBlue, LineWidth: 1.5}},
		{domain.OverlayPolyline, domain.OverlayStyle{StrokeColor: domain.ColorRed, LineWidth: 0.75}},
		{domain.OverlayCircle, domain.OverlayStyle{}},
	}
	for _, tt := range tests {
		o := domain.Overlay{ID: "x", Kind: tt.kind}
		first := f.screen.StyleOverlay(o)
		second := f.screen.StyleOverlay(o)
		if first != tt.want {
			t.Errorf("%s: got %+v, want %+v", tt.kind, first, tt.want)
		}
		if first != second {
			t.Errorf("%s: style not stable across calls", tt.kind)
		}
	}
	if !f.screen.StyleOverlay(domain.Overlay{Kind: domain.OverlayCircle}).IsDefault() {
		t.Error("circle should use the default style")
	}
}

func TestMapScreen_StyleAnnotation(t *testing.T) {
	f := newFixture(t, &mockDirections{}, usecases.DevMountainPoints())
	a := f.surface.annotations[0]

	view := f.screen.StyleAnnotation(a)
	if view == nil {
		t.Fatal("expected a view for a point set annotation")
	}
	if view.Image != usecases.DevMountainIcon || view.ReuseIdentifier != usecases.DevMountainTag {
		t.Errorf("unexpected view %+v", view)
	}
	if view.AnnotationID != a.ID {
		t.Errorf("view bound to %s, want %s", view.AnnotationID, a.ID)
	}
	if view.CanShowCallout {
		t.Error("DevMountain markers have no callout")
	}

	f.surface.reuse[usecases.DevMountainTag] = []*domain.AnnotationView{view}
	b := f.surface.annotations[1]
	reused := f.screen.StyleAnnotation(b)
	if reused != view {
		t.Error("expected the queued view to be reused")
	}
	if reused.AnnotationID != b.ID {
		t.Errorf("reused view bound to %s, want %s", reused.AnnotationID, b.ID)
	}

	if v := f.screen.StyleAnnotation(domain.Annotation{ID: "u", Title: "You"}); v != nil {
		t.Errorf("untagged annotation should get the default view, got %+v", v)
	}
	if v := f.screen.StyleAnnotation(domain.Annotation{ID: "o", Tag: "Other"}); v != nil {
		t.Errorf("foreign tag should get the default view, got %+v", v)
	}
}

func TestMapScreen_StyleAnnotationCallout(t *testing.T) {
	f := newFixture(t, &mockDirections{}, usecases.NationalParkPoints())

	view := f.screen.StyleAnnotation(f.surface.annotations[0])
	if view == nil || !view.CanShowCallout || !view.DetailDisclosure {
		t.Fatalf("expected a callout view, got %+v", view)
	}
}

func TestMapScreen_AppearAlreadyGranted(t *testing.T) {
	f := newFixture(t, &mockDirections{}, usecases.DevMountainPoints())
	f.location.status = domain.AuthorizationAuthorizedAlways

	f.screen.Appear()

	if f.location.prompted != 1 {
		t.Errorf("expected one prompt, got %d", f.location.prompted)
	}
	if f.location.accuracy != domain.AccuracyBest {
		t.Errorf("accuracy = %s", f.location.accuracy)
	}
	if f.location.started != 1 || !f.surface.showsUserLocation || !f.screen.IsTracking() {
		t.Error("expected tracking to start")
	}
}

func TestMapScreen_AuthorizationChanged(t *testing.T) {
	f := newFixture(t, &mockDirections{}, usecases.DevMountainPoints())
	f.screen.Appear()

	if f.location.started != 0 {
		t.Fatal("tracking must wait for a grant")
	}

	for _, s := range []domain.AuthorizationStatus{
		domain.AuthorizationDenied, domain.AuthorizationRestricted, domain.AuthorizationNotDetermined,
	} {
		f.screen.AuthorizationChanged(s)
	}
	if f.location.started != 0 || f.surface.showsUserLocation {
		t.Fatal("non-grant statuses must not start tracking")
	}

	f.screen.AuthorizationChanged(domain.AuthorizationAuthorizedWhenInUse)
	f.screen.AuthorizationChanged(domain.AuthorizationAuthorizedWhenInUse)
	if f.location.started != 1 {
		t.Errorf("expected tracking to start once, got %d", f.location.started)
	}
	if !f.surface.showsUserLocation {
		t.Error("expected the user location to be shown")
	}
}

func TestMapScreen_ShowRouteDisplaysRoute(t *testing.T) {
	dir := &mockDirections{
		calculateFn: func(ctx context.Context, req domain.DirectionsRequest) (*domain.DirectionsResponse, error) {
			if req.Transport != domain.TransportAutomobile {
				t.Errorf("transport = %s", req.Transport)
			}
			if req.Origin != provo {
				t.Errorf("origin = %+v", req.Origin)
			}
			return routeResponse(req.Origin, domain.GeoPoint{Lat: 40.5, Lon: -111.8}, req.Destination), nil
		},
	}
	f := newFixture(t, dir, usecases.DevMountainPoints())
	f.located()

	seq, err := f.screen.ShowRoute()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seq != 1 {
		t.Errorf("seq = %d", seq)
	}
	if !f.surface.indicatorVisible() || !f.screen.NetworkActivityVisible() {
		t.Error("indicator should be visible while the request is in flight")
	}
	if f.screen.RouteState() != domain.RouteStatePending {
		t.Errorf("route state = %s", f.screen.RouteState())
	}

	f.queue.runNext(t)

	if f.surface.indicatorVisible() || f.screen.NetworkActivityVisible() {
		t.Error("indicator should be hidden after completion")
	}
	lines := f.surface.overlaysOf(domain.OverlayPolyline)
	if len(lines) != 1 {
		t.Fatalf("expected one route overlay, got %d", len(lines))
	}
	if len(lines[0].Coordinates) != 3 {
		t.Errorf("expected 3 route points, got %d", len(lines[0].Coordinates))
	}
	if got := lines[0].Coordinates[2]; got != usecases.DevMountainPoints().Points[0].Coordinate {
		t.Errorf("route should end at the first point, got %+v", got)
	}
	if f.screen.RouteState() != domain.RouteStateDisplayed {
		t.Errorf("route state = %s", f.screen.RouteState())
	}

	out := f.journal.next(t)
	if out.Outcome != domain.OutcomeDisplayed || out.PointCount != 3 || out.DistanceMeters <= 0 {
		t.Errorf("unexpected outcome %+v", out)
	}
	if out.RequestID != f.screen.LastRequestID() {
		t.Errorf("outcome for %s, want %s", out.RequestID, f.screen.LastRequestID())
	}
}

func TestMapScreen_ShowRouteReplacesRoute(t *testing.T) {
	dir := &mockDirections{
		calculateFn: func(ctx context.Context, req domain.DirectionsRequest) (*domain.DirectionsResponse, error) {
			return routeResponse(req.Origin, req.Destination), nil
		},
	}
	f := newFixture(t, dir, usecases.DevMountainPoints())
	f.located()

	for i := 0; i < 2; i++ {
		if _, err := f.screen.ShowRoute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		f.queue.runNext(t)
	}
	first, _ := f.screen.CurrentRoute()

	if _, err := f.screen.ShowRoute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.queue.runNext(t)

	lines := f.surface.overlaysOf(domain.OverlayPolyline)
	if len(lines) != 1 {
		t.Fatalf("expected one route overlay, got %d", len(lines))
	}
	if lines[0].ID == first.ID {
		t.Error("expected the route overlay to be replaced")
	}
	if len(f.surface.overlaysOf(domain.OverlayPolygon)) != 1 {
		t.Error("boundary polygon must survive route replacement")
	}
	if f.surface.exchanges != 3 {
		t.Errorf("expected 3 exchanges, got %d", f.surface.exchanges)
	}
}

func TestMapScreen_FailureLeavesRoute(t *testing.T) {
	fail := false
	dir := &mockDirections{
		calculateFn: func(ctx context.Context, req domain.DirectionsRequest) (*domain.DirectionsResponse, error) {
			if fail {
				return nil, errors.New("network unreachable")
			}
			return routeResponse(req.Origin, req.Destination), nil
		},
	}
	f := newFixture(t, dir, usecases.DevMountainPoints())
	f.located()

	if _, err := f.screen.ShowRoute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.queue.runNext(t)
	f.journal.next(t)
	shown, _ := f.screen.CurrentRoute()

	fail = true
	if _, err := f.screen.ShowRoute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.queue.runNext(t)

	current, ok := f.screen.CurrentRoute()
	if !ok || current.ID != shown.ID {
		t.Error("a failed request must leave the displayed route")
	}
	if f.screen.RouteState() != domain.RouteStateDisplayed {
		t.Errorf("route state = %s", f.screen.RouteState())
	}
	if f.surface.indicatorVisible() {
		t.Error("indicator should be hidden after a failure")
	}
	if f.logs.count("directions request failed") != 1 {
		t.Errorf("expected one failure log, got %d", f.logs.count("directions request failed"))
	}
	out := f.journal.next(t)
	if out.Outcome != domain.OutcomeFailed || out.Error != "network unreachable" {
		t.Errorf("unexpected outcome %+v", out)
	}
}

func TestMapScreen_NoRoute(t *testing.T) {
	f := newFixture(t, &mockDirections{}, usecases.DevMountainPoints())
	f.located()

	if _, err := f.screen.ShowRoute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.queue.runNext(t)

	if len(f.surface.overlaysOf(domain.OverlayPolyline)) != 0 {
		t.Error("no overlay expected when no route was found")
	}
	if f.logs.count("no route found") != 1 {
		t.Errorf("expected one no-route log, got %d", f.logs.count("no route found"))
	}
	if f.screen.RouteState() != domain.RouteStateEmpty {
		t.Errorf("route state = %s", f.screen.RouteState())
	}
	if f.surface.indicatorVisible() {
		t.Error("indicator should be hidden")
	}
	if out := f.journal.next(t); out.Outcome != domain.OutcomeNoRoute {
		t.Errorf("outcome = %s", out.Outcome)
	}
}

func TestMapScreen_LatestRequestWins(t *testing.T) {
	dir := newGatedDirections()
	f := newFixture(t, dir, usecases.DevMountainPoints())
	f.located()

	if _, err := f.screen.ShowRoute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	firstID := f.screen.LastRequestID()
	if _, err := f.screen.ShowRoute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	secondID := f.screen.LastRequestID()

	calls := map[string]gatedCall{}
	for i := 0; i < 2; i++ {
		c := dir.next(t)
		calls[c.req.ID] = c
	}

	late := domain.GeoPoint{Lat: 39, Lon: -112}
	fresh := domain.GeoPoint{Lat: 40, Lon: -111}

	calls[secondID].reply <- routeResponse(provo, fresh)
	f.queue.runNext(t)
	if !f.surface.indicatorVisible() {
		t.Error("indicator should stay visible while the first request is outstanding")
	}

	calls[firstID].reply <- routeResponse(provo, late)
	f.queue.runNext(t)

	current, ok := f.screen.CurrentRoute()
	if !ok {
		t.Fatal("expected a displayed route")
	}
	if current.Coordinates[1] != fresh {
		t.Errorf("superseded result replaced the latest route: %+v", current.Coordinates)
	}
	if n := len(f.surface.overlaysOf(domain.OverlayPolyline)); n != 1 {
		t.Errorf("expected one route overlay, got %d", n)
	}
	if f.surface.indicatorVisible() {
		t.Error("indicator should be hidden once both requests finished")
	}

	outcomes := map[string]domain.Outcome{}
	for i := 0; i < 2; i++ {
		o := f.journal.next(t)
		outcomes[o.RequestID] = o.Outcome
	}
	if outcomes[firstID] != domain.OutcomeStale || outcomes[secondID] != domain.OutcomeDisplayed {
		t.Errorf("unexpected outcomes %v", outcomes)
	}
}

func TestMapScreen_ShowRouteWithoutLocation(t *testing.T) {
	dir := &mockDirections{}
	f := newFixture(t, dir, usecases.DevMountainPoints())
	f.location.status = domain.AuthorizationAuthorizedWhenInUse
	f.screen.Appear()

	if _, err := f.screen.ShowRoute(); !errors.Is(err, usecases.ErrNoUserLocation) {
		t.Fatalf("expected ErrNoUserLocation, got %v", err)
	}
	f.queue.assertIdle(t)
	if dir.callCount() != 0 {
		t.Error("no directions request expected")
	}
	if len(f.surface.indicator) != 0 {
		t.Error("indicator must not be touched")
	}
	if f.screen.LastSeq() != 0 {
		t.Errorf("seq = %d", f.screen.LastSeq())
	}
}

func TestMapScreen_ShowRouteWithoutDestination(t *testing.T) {
	f := newFixture(t, &mockDirections{}, domain.PointSet{Tag: "Empty"})
	f.located()

	if _, err := f.screen.ShowRoute(); !errors.Is(err, usecases.ErrNoDestination) {
		t.Fatalf("expected ErrNoDestination, got %v", err)
	}
}

func TestMapScreen_Teardown(t *testing.T) {
	dir := newGatedDirections()
	f := newFixture(t, dir, usecases.DevMountainPoints())
	f.located()

	if _, err := f.screen.ShowRoute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	call := dir.next(t)

	f.screen.Teardown()
	f.screen.Teardown()

	if f.screen.RouteState() != domain.RouteStateEmpty {
		t.Errorf("route state after teardown = %s", f.screen.RouteState())
	}

	if f.location.stopped != 1 {
		t.Errorf("expected updates stopped once, got %d", f.location.stopped)
	}
	if len(f.surface.overlays) != 0 || len(f.surface.annotations) != 0 {
		t.Error("surface should be cleared")
	}

	call.reply <- routeResponse(provo, domain.GeoPoint{Lat: 40, Lon: -111})
	f.queue.runNext(t)

	if len(f.surface.overlays) != 0 {
		t.Error("a completion after teardown must not draw")
	}
	if f.surface.indicatorVisible() {
		t.Error("indicator hold must be released after teardown")
	}
	if out := f.journal.next(t); out.Outcome != domain.OutcomeStale {
		t.Errorf("outcome = %s", out.Outcome)
	}
	if f.screen.RouteState() != domain.RouteStateEmpty {
		t.Errorf("route state after late completion = %s", f.screen.RouteState())
	}

	if _, err := f.screen.ShowRoute(); !errors.Is(err, usecases.ErrTornDown) {
		t.Errorf("expected ErrTornDown, got %v", err)
	}
	f.screen.AuthorizationChanged(domain.AuthorizationAuthorizedAlways)
	if f.location.started != 1 {
		t.Error("torn down screen must ignore authorization changes")
	}
}

func TestMapScreen_RegrantAfterDenial(t *testing.T) {
	f := newFixture(t, &mockDirections{}, usecases.DevMountainPoints())
	f.screen.Appear()

	f.screen.AuthorizationChanged(domain.AuthorizationAuthorizedWhenInUse)
	if f.location.started != 1 || !f.screen.IsTracking() {
		t.Fatal("expected tracking after the first grant")
	}

	f.screen.AuthorizationChanged(domain.AuthorizationDenied)
	if f.screen.IsTracking() {
		t.Error("denial must end tracking")
	}
	if f.location.stopped != 1 {
		t.Errorf("expected updates stopped once, got %d", f.location.stopped)
	}
	if f.surface.showsUserLocation {
		t.Error("user location should be hidden after denial")
	}

	f.screen.AuthorizationChanged(domain.AuthorizationAuthorizedAlways)
	if f.location.started != 2 {
		t.Errorf("a new grant must restart updates, started %d times", f.location.started)
	}
	if !f.screen.IsTracking() || !f.surface.showsUserLocation {
		t.Error("expected tracking and the user location after the new grant")
	}
}

func TestMapScreen_NilResponseIsFailure(t *testing.T) {
	empty := false
	dir := &mockDirections{
		calculateFn: func(ctx context.Context, req domain.DirectionsRequest) (*domain.DirectionsResponse, error) {
			if empty {
				return nil, nil
			}
			return routeResponse(req.Origin, req.Destination), nil
		},
	}
	f := newFixture(t, dir, usecases.DevMountainPoints())
	f.located()

	if _, err := f.screen.ShowRoute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.queue.runNext(t)
	f.journal.next(t)
	shown, _ := f.screen.CurrentRoute()
	shownAt := len(f.surface.indicator)

	empty = true
	if _, err := f.screen.ShowRoute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.queue.runNext(t)

	current, ok := f.screen.CurrentRoute()
	if !ok || current.ID != shown.ID {
		t.Error("an empty reply must leave the displayed route")
	}
	if n := len(f.surface.overlaysOf(domain.OverlayPolyline)); n != 1 {
		t.Errorf("expected one route overlay, got %d", n)
	}
	if got := f.surface.indicator[shownAt:]; len(got) != 2 || !got[0] || got[1] {
		t.Errorf("expected the indicator raised and lowered once, got %v", got)
	}
	if f.logs.count("directions request failed") != 1 {
		t.Errorf("expected one failure log, got %d", f.logs.count("directions request failed"))
	}
	out := f.journal.next(t)
	if out.Outcome != domain.OutcomeFailed || out.Error != "no response" {
		t.Errorf("unexpected outcome %+v", out)
	}
}
