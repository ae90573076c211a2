package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mediabridge/mediabridge-backend/internal/clients/rediscache"
	"github.com/mediabridge/mediabridge-backend/internal/logger"
	"github.com/mediabridge/mediabridge-backend/internal/providers"
	"github.com/mediabridge/mediabridge-backend/internal/types"
)

// TrendingService serves the popularity-sorted baseline pools, one per
// category, cached in Redis for an hour. A provider failing only blanks its
// own categories.
type TrendingService interface {
	Pools(ctx context.Context) (map[types.Category][]*types.MediaItem, error)
}

const (
	trendingCacheKey = "trending:v1"
	trendingCacheTTL = time.Hour
)

type trendingService struct {
	log      *logger.Logger
	registry *providers.Registry
	cache    rediscache.Cache
}

func NewTrendingService(log *logger.Logger, registry *providers.Registry, cache rediscache.Cache) TrendingService {
	return &trendingService{
		log:      log.With("service", "TrendingService"),
		registry: registry,
		cache:    cache,
	}
}

func (ts *trendingService) Pools(ctx context.Context) (map[types.Category][]*types.MediaItem, error) {
	var cached map[types.Category][]*types.MediaItem
	hit, err := ts.cache.GetJSON(ctx, trendingCacheKey, &cached)
	if err != nil {
		ts.log.Warn("Trending cache read failed", "error", err)
	}
	if hit {
		return cached, nil
	}

	pools := map[types.Category][]*types.MediaItem{}
	for _, c := range types.AllCategories() {
		pools[c] = []*types.MediaItem{}
	}

	g, gctx := errgroup.WithContext(ctx)
	results := make([]map[types.Category][]*types.MediaItem, len(ts.registry.All()))
	for i, gateway := range ts.registry.All() {
		i, gateway := i, gateway
		g.Go(func() error {
			popular, pErr := gateway.Popular(gctx)
			if pErr != nil {
				ts.log.Warn("Popular fetch failed", "error", pErr)
				return nil
			}
			results[i] = popular
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, result := range results {
		for category, items := range result {
			pools[category] = append(pools[category], items...)
		}
	}

	if err := ts.cache.SetJSON(ctx, trendingCacheKey, pools, trendingCacheTTL); err != nil {
		ts.log.Warn("Trending cache write failed", "error", err)
	}
	return pools, nil
}
