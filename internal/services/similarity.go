package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/mediabridge/mediabridge-backend/internal/clients/pinecone"
	"github.com/mediabridge/mediabridge-backend/internal/logger"
	"github.com/mediabridge/mediabridge-backend/internal/types"
)

// SimilarityService answers nearest-neighbor queries against the vector
// index. Matches below the threshold are dropped, not returned ranked low;
// short yield is the backfill path's problem.
type SimilarityService interface {
	Match(ctx context.Context, vector []float32, category types.Category, threshold float64, limit int) ([]*types.MediaItem, error)
}

type similarityService struct {
	log         *logger.Logger
	vectorStore pinecone.VectorStore
}

func NewSimilarityService(log *logger.Logger, vectorStore pinecone.VectorStore) SimilarityService {
	return &similarityService{
		log:         log.With("service", "SimilarityService"),
		vectorStore: vectorStore,
	}
}

func (ss *similarityService) Match(ctx context.Context, vector []float32, category types.Category, threshold float64, limit int) ([]*types.MediaItem, error) {
	if len(vector) == 0 || limit <= 0 {
		return nil, nil
	}

	filter := map[string]any{
		"category": map[string]any{"$eq": string(category)},
	}
	matches, err := ss.vectorStore.QueryMatches(ctx, vector, limit, filter)
	if err != nil {
		return nil, err
	}

	// Matches arrive similarity-descending and are kept in that order.
	out := make([]*types.MediaItem, 0, len(matches))
	for _, m := range matches {
		if m.Score < threshold {
			continue
		}
		item := itemFromMatch(m)
		if item == nil {
			ss.log.Warn("Dropping index match with unusable metadata", "id", m.ID)
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func itemFromMatch(m pinecone.QueryMatch) *types.MediaItem {
	source, _ := m.Metadata["source"].(string)
	sourceID, _ := m.Metadata["source_id"].(string)
	title, _ := m.Metadata["title"].(string)
	categoryStr, _ := m.Metadata["category"].(string)
	category := types.Category(categoryStr)
	if source == "" || sourceID == "" || title == "" || !category.Valid() {
		return nil
	}

	item := &types.MediaItem{
		Source:   source,
		SourceID: sourceID,
		Category: category,
		Title:    title,
	}
	if id, err := uuid.Parse(m.ID); err == nil {
		item.ID = id
	}
	if year, ok := m.Metadata["year"].(float64); ok {
		item.Year = int(year)
	}
	if genres, ok := m.Metadata["genres"].([]any); ok {
		out := make([]string, 0, len(genres))
		for _, g := range genres {
			if s, ok := g.(string); ok {
				out = append(out, s)
			}
		}
		item.Genres = datatypes.JSONSlice[string](out)
	}
	if summary, ok := m.Metadata["summary"].(string); ok {
		item.Summary = summary
	}
	if rating, ok := m.Metadata["rating"].(float64); ok {
		item.Rating = rating
	}
	if creators, ok := m.Metadata["creators"].([]any); ok {
		out := make([]string, 0, len(creators))
		for _, c := range creators {
			if s, ok := c.(string); ok {
				out = append(out, s)
			}
		}
		item.Creators = datatypes.JSONSlice[string](out)
	}
	if imageURL, ok := m.Metadata["image_url"].(string); ok {
		item.ImageURL = imageURL
	}
	if backdropURL, ok := m.Metadata["backdrop_url"].(string); ok {
		item.BackdropURL = backdropURL
	}
	return item
}
