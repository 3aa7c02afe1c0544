package usecases

import (
	"github.com/samirrijal/mapscreen/internal/core/domain"
	"github.com/samirrijal/mapscreen/internal/core/ports"
)

// routeSlot holds the single route overlay currently on the surface.
type routeSlot struct {
	current *domain.Overlay
}

// Current returns the displayed route, if any.
func (s *routeSlot) Current() (domain.Overlay, bool) {
	if s.current == nil {
		return domain.Overlay{}, false
	}
	return *s.current, true
}

// Swap replaces the displayed route with next in one surface operation.
func (s *routeSlot) Swap(surface ports.DisplaySurface, next domain.Overlay) (prev domain.Overlay, replaced bool) {
	oldID := ""
	if s.current != nil {
		prev, replaced = *s.current, true
		oldID = prev.ID
	}
	surface.ExchangeOverlay(oldID, next)
	s.current = &next
	return prev, replaced
}

// Clear forgets the route without touching the surface.
func (s *routeSlot) Clear() {
	s.current = nil
}
