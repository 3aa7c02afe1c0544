// Package surface holds the drawable map state the screen controller
// manipulates and renders it for HTTP clients.
package surface

import (
	"sync"

	"github.com/samirrijal/mapscreen/internal/core/domain"
	"github.com/samirrijal/mapscreen/internal/core/ports"
)

// Surface is an in-memory map surface. It implements ports.DisplaySurface and
// ports.NetworkActivityIndicator.
//
// Mutations come from the main queue; Snapshot may be called from any
// goroutine.
type Surface struct {
	mu sync.Mutex

	delegate          ports.SurfaceDelegate
	region            domain.Region
	showsUserLocation bool
	networkActivity   bool
	annotations       []domain.Annotation
	overlays          []domain.Overlay
	version           uint64

	// views handed out by the last Render; recycled into reuse on the next.
	visible []*domain.AnnotationView
	reuse   map[string][]*domain.AnnotationView

	onChange func(version uint64)
}

// Option configures a Surface.
type Option func(*Surface)

// WithOnChange registers fn to be called after every mutation, outside the
// surface lock.
func WithOnChange(fn func(version uint64)) Option {
	return func(s *Surface) { s.onChange = fn }
}

// New creates an empty surface.
func New(opts ...Option) *Surface {
	s := &Surface{reuse: make(map[string][]*domain.AnnotationView)}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Surface) mutate(fn func()) {
	s.mu.Lock()
	fn()
	s.version++
	v := s.version
	s.mu.Unlock()

	if s.onChange != nil {
		s.onChange(v)
	}
}

func (s *Surface) SetDelegate(d ports.SurfaceDelegate) {
	s.mu.Lock()
	s.delegate = d
	s.mu.Unlock()
}

func (s *Surface) SetRegion(region domain.Region) {
	s.mutate(func() { s.region = region })
}

func (s *Surface) SetShowsUserLocation(show bool) {
	s.mutate(func() { s.showsUserLocation = show })
}

func (s *Surface) SetNetworkActivityIndicatorVisible(visible bool) {
	s.mutate(func() { s.networkActivity = visible })
}

func (s *Surface) AddAnnotation(a domain.Annotation) {
	s.mutate(func() { s.annotations = append(s.annotations, a) })
}

func (s *Surface) RemoveAllAnnotations() {
	s.mutate(func() {
		s.annotations = nil
		s.recycleLocked()
	})
}

// DequeueReusableAnnotationView returns a recycled view for reuseIdentifier,
// or nil when none is queued.
func (s *Surface) DequeueReusableAnnotationView(reuseIdentifier string) *domain.AnnotationView {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue := s.reuse[reuseIdentifier]
	if len(queue) == 0 {
		return nil
	}
	view := queue[len(queue)-1]
	s.reuse[reuseIdentifier] = queue[:len(queue)-1]
	return view
}

func (s *Surface) AddOverlay(o domain.Overlay) {
	s.mutate(func() { s.overlays = append(s.overlays, o) })
}

func (s *Surface) RemoveOverlay(id string) {
	s.mutate(func() { s.removeOverlayLocked(id) })
}

// ExchangeOverlay removes oldID and appends next under a single lock.
func (s *Surface) ExchangeOverlay(oldID string, next domain.Overlay) {
	s.mutate(func() {
		if oldID != "" {
			s.removeOverlayLocked(oldID)
		}
		s.overlays = append(s.overlays, next)
	})
}

func (s *Surface) RemoveAllOverlays() {
	s.mutate(func() { s.overlays = nil })
}

func (s *Surface) removeOverlayLocked(id string) {
	for i, o := range s.overlays {
		if o.ID == id {
			s.overlays = append(s.overlays[:i:i], s.overlays[i+1:]...)
			return
		}
	}
}

func (s *Surface) recycleLocked() {
	for _, v := range s.visible {
		s.reuse[v.ReuseIdentifier] = append(s.reuse[v.ReuseIdentifier], v)
	}
	s.visible = nil
}

// RenderedAnnotation is an annotation and the view drawn for it. A nil View
// means the default marker.
type RenderedAnnotation struct {
	Annotation domain.Annotation      `json:"annotation"`
	View       *domain.AnnotationView `json:"view,omitempty"`
}

// RenderedOverlay is an overlay and its stroke.
type RenderedOverlay struct {
	Overlay domain.Overlay      `json:"overlay"`
	Style   domain.OverlayStyle `json:"style"`
}

// Rendering is one drawn frame of the surface.
type Rendering struct {
	Version           uint64               `json:"version"`
	Region            domain.Region        `json:"region"`
	ShowsUserLocation bool                 `json:"shows_user_location"`
	NetworkActivity   bool                 `json:"network_activity"`
	Annotations       []RenderedAnnotation `json:"annotations"`
	Overlays          []RenderedOverlay    `json:"overlays"`
}

// Render draws the surface, asking the delegate for every style. It must run
// on the main queue since the delegate is the screen controller.
//
// Views from the previous Render go back into the reuse queue first.
func (s *Surface) Render() Rendering {
	s.mu.Lock()
	s.recycleLocked()
	delegate := s.delegate
	r := Rendering{
		Version:           s.version,
		Region:            s.region,
		ShowsUserLocation: s.showsUserLocation,
		NetworkActivity:   s.networkActivity,
	}
	annotations := append([]domain.Annotation(nil), s.annotations...)
	overlays := append([]domain.Overlay(nil), s.overlays...)
	s.mu.Unlock()

	r.Annotations = make([]RenderedAnnotation, 0, len(annotations))
	var views []*domain.AnnotationView
	for _, a := range annotations {
		ra := RenderedAnnotation{Annotation: a}
		if delegate != nil {
			if v := delegate.StyleAnnotation(a); v != nil {
				views = append(views, v)
				copied := *v
				ra.View = &copied
			}
		}
		r.Annotations = append(r.Annotations, ra)
	}

	r.Overlays = make([]RenderedOverlay, 0, len(overlays))
	for _, o := range overlays {
		ro := RenderedOverlay{Overlay: o}
		if delegate != nil {
			ro.Style = delegate.StyleOverlay(o)
		}
		r.Overlays = append(r.Overlays, ro)
	}

	s.mu.Lock()
	s.visible = append(s.visible, views...)
	s.mu.Unlock()
	return r
}

// State is a delegate-free summary of the surface.
type State struct {
	Version           uint64        `json:"version"`
	Region            domain.Region `json:"region"`
	ShowsUserLocation bool          `json:"shows_user_location"`
	NetworkActivity   bool          `json:"network_activity"`
	Annotations       int           `json:"annotations"`
	Overlays          int           `json:"overlays"`
}

// Snapshot returns the current state. Safe from any goroutine.
func (s *Surface) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Version:           s.version,
		Region:            s.region,
		ShowsUserLocation: s.showsUserLocation,
		NetworkActivity:   s.networkActivity,
		Annotations:       len(s.annotations),
		Overlays:          len(s.overlays),
	}
}

// Overlays returns a copy of the overlays in drawing order.
func (s *Surface) Overlays() []domain.Overlay {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Overlay(nil), s.overlays...)
}

// Annotations returns a copy of the annotations.
func (s *Surface) Annotations() []domain.Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Annotation(nil), s.annotations...)
}
