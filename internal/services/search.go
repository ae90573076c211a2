package services

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mediabridge/mediabridge-backend/internal/logger"
	"github.com/mediabridge/mediabridge-backend/internal/normalization"
	"github.com/mediabridge/mediabridge-backend/internal/providers"
	"github.com/mediabridge/mediabridge-backend/internal/types"
)

// SearchService fans a free-text query across every provider and merges the
// results. One provider failing only loses its slice of the results.
type SearchService interface {
	Search(ctx context.Context, query string) ([]*types.MediaItem, error)
}

type searchService struct {
	log      *logger.Logger
	registry *providers.Registry
}

func NewSearchService(log *logger.Logger, registry *providers.Registry) SearchService {
	return &searchService{
		log:      log.With("service", "SearchService"),
		registry: registry,
	}
}

func (ss *searchService) Search(ctx context.Context, query string) ([]*types.MediaItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*types.MediaItem{}, nil
	}

	gateways := ss.registry.All()
	results := make([][]*types.MediaItem, len(gateways))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, gateway := range gateways {
		i, gateway := i, gateway
		g.Go(func() error {
			found, err := gateway.Search(gctx, query)
			if err != nil {
				ss.log.Warn("Provider search failed", "query", query, "error", err)
				return nil
			}
			mu.Lock()
			results[i] = found
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	var out []*types.MediaItem
	for _, list := range results {
		for _, item := range list {
			key := item.RefID() + "|" + normalization.NormalizeTitle(item.Title)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, item)
		}
	}
	return out, nil
}
