package usecases

import "github.com/samirrijal/mapscreen/internal/core/domain"

// OverlayStyleFor returns the stroke used for an overlay kind. Boundary
// polygons are blue, route polylines red, anything else gets the default.
func OverlayStyleFor(kind domain.OverlayKind) domain.OverlayStyle {
	switch kind {
	case domain.OverlayPolygon:
		return domain.OverlayStyle{StrokeColor: domain.ColorBlue, LineWidth: 1.5}
	case domain.OverlayPolyline:
		return domain.OverlayStyle{StrokeColor: domain.ColorRed, LineWidth: 0.75}
	default:
		return domain.OverlayStyle{}
	}
}

// StyleOverlay implements ports.SurfaceDelegate.
func (s *MapScreen) StyleOverlay(o domain.Overlay) domain.OverlayStyle {
	return OverlayStyleFor(o.Kind)
}

// StyleAnnotation implements ports.SurfaceDelegate. Only annotations of the
// screen's point set get a custom marker; the view is reused when the
// surface has one queued.
func (s *MapScreen) StyleAnnotation(a domain.Annotation) *domain.AnnotationView {
	set := s.screen.Points
	if a.Tag == "" || a.Tag != set.Tag {
		return nil
	}

	view := s.surface.DequeueReusableAnnotationView(set.Tag)
	if view == nil {
		view = &domain.AnnotationView{ReuseIdentifier: set.Tag}
	}
	view.AnnotationID = a.ID
	view.Image = set.Icon
	view.CanShowCallout = set.ShowsCallout
	view.DetailDisclosure = set.ShowsCallout
	return view
}
