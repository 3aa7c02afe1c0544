package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/samirrijal/mapscreen/internal/core/domain"
	"github.com/samirrijal/mapscreen/internal/core/ports"
	"github.com/samirrijal/mapscreen/internal/pkg/metrics"
)

// CachedDirections serves repeated directions requests from a cache.
// Only responses with at least one route are stored.
type CachedDirections struct {
	next  ports.DirectionsService
	cache ports.CacheService
	ttl   time.Duration
}

// NewCachedDirections wraps next. A nil cache disables caching.
func NewCachedDirections(next ports.DirectionsService, cache ports.CacheService, ttl time.Duration) *CachedDirections {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedDirections{next: next, cache: cache, ttl: ttl}
}

// Calculate implements ports.DirectionsService.
func (d *CachedDirections) Calculate(ctx context.Context, req domain.DirectionsRequest) (*domain.DirectionsResponse, error) {
	if d.cache == nil {
		return d.next.Calculate(ctx, req)
	}

	// Coordinates are keyed at 5 decimals (~1 m).
	cacheKey := fmt.Sprintf("directions:%s:%.5f,%.5f:%.5f,%.5f",
		req.Transport, req.Origin.Lat, req.Origin.Lon, req.Destination.Lat, req.Destination.Lon)

	if data, err := d.cache.Get(ctx, cacheKey); err == nil {
		var resp domain.DirectionsResponse
		if err := json.Unmarshal(data, &resp); err == nil && len(resp.Routes) > 0 {
			metrics.CacheHits.WithLabelValues("directions").Inc()
			return &resp, nil
		}
	}
	metrics.CacheMisses.WithLabelValues("directions").Inc()

	resp, err := d.next.Calculate(ctx, req)
	if err != nil || resp == nil || len(resp.Routes) == 0 {
		return resp, err
	}

	if data, err := json.Marshal(resp); err == nil {
		_ = d.cache.Set(ctx, cacheKey, data, int(d.ttl.Seconds()))
	}
	return resp, nil
}
