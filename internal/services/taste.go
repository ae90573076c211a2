package services

import (
	"context"
	"fmt"

	"github.com/mediabridge/mediabridge-backend/internal/logger"
	"github.com/mediabridge/mediabridge-backend/internal/types"
)

// TasteAggregator folds a user's favorited items into a single taste vector.
// Favorites without vectors trigger self-healing through EmbeddingService
// for at most the 3 most recent ones; callers pass favorites newest-first.
type TasteAggregator interface {
	Aggregate(ctx context.Context, favorites []*types.MediaItem) []float32
}

const selfHealLimit = 3

type tasteAggregator struct {
	log       *logger.Logger
	embedding EmbeddingService
}

func NewTasteAggregator(log *logger.Logger, embedding EmbeddingService) TasteAggregator {
	return &tasteAggregator{
		log:       log.With("service", "TasteAggregator"),
		embedding: embedding,
	}
}

// Aggregate returns nil when no vector can be obtained; the caller must fall
// back to non-vector strategies. When non-nil, the result is the
// component-wise mean of every available favorite vector.
func (ta *tasteAggregator) Aggregate(ctx context.Context, favorites []*types.MediaItem) []float32 {
	var vectors [][]float32
	for _, f := range favorites {
		if f.HasEmbedding() {
			vectors = append(vectors, f.Embedding)
		}
	}

	if len(vectors) == 0 {
		healed := 0
		for _, f := range favorites {
			if healed >= selfHealLimit {
				break
			}
			vec, err := ta.embedding.Ensure(ctx, f)
			if err != nil {
				ta.log.Warn("Self-heal embedding failed", "title", f.Title, "error", err)
				continue
			}
			vectors = append(vectors, vec)
			healed++
		}
	}

	if len(vectors) == 0 {
		return nil
	}
	return meanVector(vectors)
}

func meanVector(vectors [][]float32) []float32 {
	dim := len(vectors[0])
	sum := make([]float64, dim)
	for _, vec := range vectors {
		if len(vec) != dim {
			panic(fmt.Sprintf("embedding dimension mismatch: %d vs %d", len(vec), dim))
		}
		for i, v := range vec {
			sum[i] += float64(v)
		}
	}
	mean := make([]float32, dim)
	for i := range sum {
		mean[i] = float32(sum[i] / float64(len(vectors)))
	}
	return mean
}
