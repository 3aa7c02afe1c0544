package ports

import "github.com/samirrijal/mapscreen/internal/core/domain"

// DisplaySurface is the map the screen draws on.
type DisplaySurface interface {
	SetDelegate(d SurfaceDelegate)
	SetRegion(region domain.Region)
	SetShowsUserLocation(show bool)

	AddAnnotation(a domain.Annotation)
	RemoveAllAnnotations()
	DequeueReusableAnnotationView(reuseIdentifier string) *domain.AnnotationView

	AddOverlay(o domain.Overlay)
	RemoveOverlay(id string)
	// ExchangeOverlay removes the overlay with oldID (if any) and adds next
	// as one step; no reader observes both or neither.
	ExchangeOverlay(oldID string, next domain.Overlay)
	RemoveAllOverlays()
}

// SurfaceDelegate supplies styles when the surface draws.
type SurfaceDelegate interface {
	// StyleOverlay must always return a style.
	StyleOverlay(o domain.Overlay) domain.OverlayStyle
	// StyleAnnotation may return nil to let the surface draw its default marker.
	StyleAnnotation(a domain.Annotation) *domain.AnnotationView
}

// NetworkActivityIndicator shows that a network request is in flight.
type NetworkActivityIndicator interface {
	SetNetworkActivityIndicatorVisible(visible bool)
}
