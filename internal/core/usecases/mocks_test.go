package usecases_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/samirrijal/mapscreen/internal/core/domain"
	"github.com/samirrijal/mapscreen/internal/core/ports"
)

// --- Main queue ---

// manualQueue collects posted work; tests run it with runNext.
type manualQueue struct {
	tasks chan func()
}

func newManualQueue() *manualQueue {
	return &manualQueue{tasks: make(chan func(), 16)}
}

func (q *manualQueue) Async(fn func()) { q.tasks <- fn }

func (q *manualQueue) runNext(t *testing.T) {
	t.Helper()
	select {
	case fn := <-q.tasks:
		fn()
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for main queue work")
	}
}

func (q *manualQueue) assertIdle(t *testing.T) {
	t.Helper()
	select {
	case <-q.tasks:
		t.Fatal("unexpected main queue work")
	case <-time.After(20 * time.Millisecond):
	}
}

// --- Display surface ---

type mockSurface struct {
	delegate          ports.SurfaceDelegate
	region            domain.Region
	showsUserLocation bool
	annotations       []domain.Annotation
	overlays          []domain.Overlay
	reuse             map[string][]*domain.AnnotationView
	indicator         []bool
	exchanges         int
}

func newMockSurface() *mockSurface {
	return &mockSurface{reuse: make(map[string][]*domain.AnnotationView)}
}

func (m *mockSurface) SetDelegate(d ports.SurfaceDelegate) { m.delegate = d }
func (m *mockSurface) SetRegion(region domain.Region)      { m.region = region }
func (m *mockSurface) SetShowsUserLocation(show bool)      { m.showsUserLocation = show }
func (m *mockSurface) AddAnnotation(a domain.Annotation)   { m.annotations = append(m.annotations, a) }
func (m *mockSurface) RemoveAllAnnotations()               { m.annotations = nil }
func (m *mockSurface) AddOverlay(o domain.Overlay)         { m.overlays = append(m.overlays, o) }
func (m *mockSurface) RemoveAllOverlays()                  { m.overlays = nil }
func (m *mockSurface) SetNetworkActivityIndicatorVisible(v bool) {
	m.indicator = append(m.indicator, v)
}

func (m *mockSurface) DequeueReusableAnnotationView(id string) *domain.AnnotationView {
	q := m.reuse[id]
	if len(q) == 0 {
		return nil
	}
	v := q[len(q)-1]
	m.reuse[id] = q[:len(q)-1]
	return v
}

func (m *mockSurface) RemoveOverlay(id string) {
	kept := m.overlays[:0]
	for _, o := range m.overlays {
		if o.ID != id {
			kept = append(kept, o)
		}
	}
	m.overlays = kept
}

func (m *mockSurface) ExchangeOverlay(oldID string, next domain.Overlay) {
	m.exchanges++
	if oldID != "" {
		m.RemoveOverlay(oldID)
	}
	m.overlays = append(m.overlays, next)
}

func (m *mockSurface) overlaysOf(kind domain.OverlayKind) []domain.Overlay {
	var out []domain.Overlay
	for _, o := range m.overlays {
		if o.Kind == kind {
			out = append(out, o)
		}
	}
	return out
}

func (m *mockSurface) indicatorVisible() bool {
	return len(m.indicator) > 0 && m.indicator[len(m.indicator)-1]
}

// --- Location service ---

type mockLocation struct {
	delegate ports.LocationDelegate
	status   domain.AuthorizationStatus
	accuracy domain.Accuracy
	prompted int
	started  int
	stopped  int
	coord    domain.GeoPoint
	hasCoord bool
}

func (m *mockLocation) SetDelegate(d ports.LocationDelegate)            { m.delegate = d }
func (m *mockLocation) SetDesiredAccuracy(a domain.Accuracy)            { m.accuracy = a }
func (m *mockLocation) RequestWhenInUseAuthorization()                  { m.prompted++ }
func (m *mockLocation) AuthorizationStatus() domain.AuthorizationStatus { return m.status }
func (m *mockLocation) StopUpdatingLocation()                           { m.stopped++ }

func (m *mockLocation) StartUpdatingLocation() { m.started++ }

func (m *mockLocation) CurrentCoordinate() (domain.GeoPoint, bool) {
	return m.coord, m.hasCoord
}

// --- Directions service ---

type mockDirections struct {
	calculateFn func(ctx context.Context, req domain.DirectionsRequest) (*domain.DirectionsResponse, error)
	mu          sync.Mutex
	calls       int
}

func (m *mockDirections) Calculate(ctx context.Context, req domain.DirectionsRequest) (*domain.DirectionsResponse, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.calculateFn != nil {
		return m.calculateFn(ctx, req)
	}
	return &domain.DirectionsResponse{}, nil
}

func (m *mockDirections) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// gatedCall is one directions request held until the test replies.
type gatedCall struct {
	req   domain.DirectionsRequest
	reply chan *domain.DirectionsResponse
}

// gatedDirections hands each request to the test and blocks until it answers.
type gatedDirections struct {
	calls chan gatedCall
}

func newGatedDirections() *gatedDirections {
	return &gatedDirections{calls: make(chan gatedCall, 4)}
}

func (g *gatedDirections) Calculate(ctx context.Context, req domain.DirectionsRequest) (*domain.DirectionsResponse, error) {
	c := gatedCall{req: req, reply: make(chan *domain.DirectionsResponse, 1)}
	g.calls <- c
	return <-c.reply, nil
}

func (g *gatedDirections) next(t *testing.T) gatedCall {
	t.Helper()
	select {
	case c := <-g.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for directions request")
		return gatedCall{}
	}
}

// --- Route journal ---

type mockJournal struct {
	outcomes chan domain.RouteOutcome
}

func newMockJournal() *mockJournal {
	return &mockJournal{outcomes: make(chan domain.RouteOutcome, 8)}
}

func (m *mockJournal) Record(ctx context.Context, outcome domain.RouteOutcome) {
	m.outcomes <- outcome
}

func (m *mockJournal) next(t *testing.T) domain.RouteOutcome {
	t.Helper()
	select {
	case o := <-m.outcomes:
		return o
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for route outcome")
		return domain.RouteOutcome{}
	}
}

// --- Logging ---

// countingHandler counts records by message.
type countingHandler struct {
	mu     sync.Mutex
	counts map[string]int
}

func newCountingHandler() *countingHandler {
	return &countingHandler{counts: make(map[string]int)}
}

func (h *countingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h *countingHandler) WithAttrs([]slog.Attr) slog.Handler       { return h }
func (h *countingHandler) WithGroup(string) slog.Handler            { return h }

func (h *countingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	h.counts[r.Message]++
	h.mu.Unlock()
	return nil
}

func (h *countingHandler) count(msg string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.counts[msg]
}

// --- Repositories ---

type mockRouteRequestRepo struct {
	insertFn func(ctx context.Context, o *domain.RouteOutcome) error
	recentFn func(ctx context.Context, offset, limit int) ([]domain.RouteOutcome, error)
	countFn  func(ctx context.Context) (int, error)
}

func (m *mockRouteRequestRepo) Insert(ctx context.Context, o *domain.RouteOutcome) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, o)
	}
	return nil
}

func (m *mockRouteRequestRepo) Recent(ctx context.Context, offset, limit int) ([]domain.RouteOutcome, error) {
	if m.recentFn != nil {
		return m.recentFn(ctx, offset, limit)
	}
	return nil, nil
}

func (m *mockRouteRequestRepo) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

type mockPublisher struct {
	publishFn func(ctx context.Context, o *domain.RouteOutcome) error
}

func (m *mockPublisher) PublishRouteOutcome(ctx context.Context, o *domain.RouteOutcome) error {
	if m.publishFn != nil {
		return m.publishFn(ctx, o)
	}
	return nil
}

var errCacheMiss = errors.New("cache miss")

// mockCache is an in-memory CacheService.
type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, errCacheMiss
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.sets++
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
