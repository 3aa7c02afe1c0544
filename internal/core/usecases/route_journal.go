package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samirrijal/mapscreen/internal/core/domain"
	"github.com/samirrijal/mapscreen/internal/core/ports"
)

// ErrJournalUnavailable is returned when no repository is configured.
var ErrJournalUnavailable = errors.New("route journal not configured")

// RouteJournal persists and publishes finished directions requests.
type RouteJournal struct {
	repo      ports.RouteRequestRepository
	publisher ports.EventPublisher
}

// NewRouteJournal creates a RouteJournal. Either collaborator may be nil.
func NewRouteJournal(repo ports.RouteRequestRepository, publisher ports.EventPublisher) *RouteJournal {
	return &RouteJournal{repo: repo, publisher: publisher}
}

// Record implements ports.RouteJournal. Failures are logged only.
func (j *RouteJournal) Record(ctx context.Context, outcome domain.RouteOutcome) {
	if j.repo != nil {
		if err := j.repo.Insert(ctx, &outcome); err != nil {
			slog.Warn("route journal insert failed", "request_id", outcome.RequestID, "error", err)
		}
	}
	if j.publisher != nil {
		if err := j.publisher.PublishRouteOutcome(ctx, &outcome); err != nil {
			slog.Warn("route outcome publish failed", "request_id", outcome.RequestID, "error", err)
		}
	}
}

// Recent returns a page of recorded requests, newest first, and the total
// number recorded.
func (j *RouteJournal) Recent(ctx context.Context, offset, limit int) ([]domain.RouteOutcome, int, error) {
	if j.repo == nil {
		return nil, 0, ErrJournalUnavailable
	}
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	total, err := j.repo.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count route requests: %w", err)
	}
	outcomes, err := j.repo.Recent(ctx, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("recent route requests: %w", err)
	}
	return outcomes, total, nil
}
