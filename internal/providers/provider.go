package providers

import (
	"context"

	"github.com/mediabridge/mediabridge-backend/internal/types"
)

// Gateway is the catalog-provider surface the recommendation pipeline
// consumes. Implementations return transient MediaItems (zero ID); rows are
// only persisted when a user favorites, dislikes, or vector-ingests one.
//
// Every call may legitimately return an empty slice. Missing credentials
// degrade the gateway to empty results rather than errors; network and HTTP
// failures are returned as errors and handled category-scoped by callers.
type Gateway interface {
	Search(ctx context.Context, query string) ([]*types.MediaItem, error)
	GetSimilar(ctx context.Context, sourceID string, category types.Category) ([]*types.MediaItem, error)
	Discover(ctx context.Context, genres []string) ([]*types.MediaItem, error)
	Popular(ctx context.Context) (map[types.Category][]*types.MediaItem, error)
}

// Registry routes a category to the gateway that owns it.
type Registry struct {
	tmdb   Gateway
	igdb   Gateway
	gbooks Gateway
}

func NewRegistry(tmdb, igdb, gbooks Gateway) *Registry {
	return &Registry{tmdb: tmdb, igdb: igdb, gbooks: gbooks}
}

func (r *Registry) ForCategory(category types.Category) Gateway {
	switch category {
	case types.CategoryGame:
		return r.igdb
	case types.CategoryBook:
		return r.gbooks
	default:
		return r.tmdb
	}
}

func (r *Registry) All() []Gateway {
	return []Gateway{r.tmdb, r.igdb, r.gbooks}
}
