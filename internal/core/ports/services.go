package ports

import (
	"context"

	"github.com/samirrijal/mapscreen/internal/core/domain"
)

// DirectionsService computes routes between two coordinates.
// A nil response with a nil error counts as "no response".
type DirectionsService interface {
	Calculate(ctx context.Context, req domain.DirectionsRequest) (*domain.DirectionsResponse, error)
}

// MainQueue runs functions one at a time on the goroutine that owns UI state.
type MainQueue interface {
	Async(fn func())
}

// RouteJournal is told about every finished directions request.
type RouteJournal interface {
	Record(ctx context.Context, outcome domain.RouteOutcome)
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishRouteOutcome(ctx context.Context, outcome *domain.RouteOutcome) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
