package ports

import (
	"context"

	"github.com/samirrijal/mapscreen/internal/core/domain"
)

// RouteRequestRepository persists finished directions requests.
type RouteRequestRepository interface {
	Insert(ctx context.Context, outcome *domain.RouteOutcome) error
	// Recent returns requests newest first.
	Recent(ctx context.Context, offset, limit int) ([]domain.RouteOutcome, error)
	Count(ctx context.Context) (int, error)
}
