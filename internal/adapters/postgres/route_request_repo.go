package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/mapscreen/internal/core/domain"
)

// RouteRequestRepo implements ports.RouteRequestRepository.
type RouteRequestRepo struct {
	db *DB
}

func NewRouteRequestRepo(db *DB) *RouteRequestRepo {
	return &RouteRequestRepo{db: db}
}

// Insert stores one finished request. Re-inserting a request id is a no-op.
func (r *RouteRequestRepo) Insert(ctx context.Context, o *domain.RouteOutcome) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO route_requests (request_id, seq, origin_lat, origin_lon, dest_lat, dest_lon,
			outcome, error, point_count, distance_m, requested_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (request_id) DO NOTHING
	`, o.RequestID, int64(o.Seq), o.Origin.Lat, o.Origin.Lon, o.Destination.Lat, o.Destination.Lon,
		string(o.Outcome), nilIfEmpty(o.Error), o.PointCount, o.DistanceMeters, o.RequestedAt, o.CompletedAt)
	if err != nil {
		return fmt.Errorf("insert route request %s: %w", o.RequestID, err)
	}
	return nil
}

// Recent returns the newest requests first.
func (r *RouteRequestRepo) Recent(ctx context.Context, offset, limit int) ([]domain.RouteOutcome, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT request_id, seq, origin_lat, origin_lon, dest_lat, dest_lon,
			outcome, COALESCE(error, ''), point_count, distance_m, requested_at, completed_at
		FROM route_requests
		ORDER BY completed_at DESC
		OFFSET $1 LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.RouteOutcome, error) {
		var o domain.RouteOutcome
		var seq int64
		var outcome string
		err := row.Scan(&o.RequestID, &seq, &o.Origin.Lat, &o.Origin.Lon,
			&o.Destination.Lat, &o.Destination.Lon, &outcome, &o.Error,
			&o.PointCount, &o.DistanceMeters, &o.RequestedAt, &o.CompletedAt)
		o.Seq = uint64(seq)
		o.Outcome = domain.Outcome(outcome)
		return o, err
	})
}

func (r *RouteRequestRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM route_requests`).Scan(&n)
	return n, err
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
