package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/datatypes"

	"github.com/mediabridge/mediabridge-backend/internal/clients/openai"
	"github.com/mediabridge/mediabridge-backend/internal/clients/pinecone"
	"github.com/mediabridge/mediabridge-backend/internal/logger"
	"github.com/mediabridge/mediabridge-backend/internal/repos"
	"github.com/mediabridge/mediabridge-backend/internal/types"
)

// EmbeddingService lazily generates and persists embedding vectors for
// catalog rows. Ensure is idempotent: an item that already carries a vector
// costs nothing, and a given missing vector is fetched at most once per call.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Ensure(ctx context.Context, item *types.MediaItem) ([]float32, error)
}

type embeddingService struct {
	log           *logger.Logger
	openaiClient  openai.Client
	mediaItemRepo repos.MediaItemRepo
	vectorStore   pinecone.VectorStore
}

func NewEmbeddingService(
	log *logger.Logger,
	openaiClient openai.Client,
	mediaItemRepo repos.MediaItemRepo,
	vectorStore pinecone.VectorStore,
) EmbeddingService {
	return &embeddingService{
		log:           log.With("service", "EmbeddingService"),
		openaiClient:  openaiClient,
		mediaItemRepo: mediaItemRepo,
		vectorStore:   vectorStore,
	}
}

func (es *embeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := es.openaiClient.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedding response was empty")
	}
	return vectors[0], nil
}

// embeddingText is deterministic for a given item, which makes concurrent
// self-healing of the same row last-write-wins safe.
func embeddingText(item *types.MediaItem) string {
	parts := []string{item.Title}
	if item.Summary != "" {
		parts = append(parts, item.Summary)
	}
	parts = append(parts, string(item.Category))
	return strings.Join(parts, "\n")
}

func (es *embeddingService) Ensure(ctx context.Context, item *types.MediaItem) ([]float32, error) {
	if item == nil {
		return nil, fmt.Errorf("nil media item")
	}
	if item.HasEmbedding() {
		return item.Embedding, nil
	}

	vector, err := es.Embed(ctx, embeddingText(item))
	if err != nil {
		return nil, fmt.Errorf("failed to embed %q: %w", item.Title, err)
	}

	item.Embedding = datatypes.JSONSlice[float32](vector)
	if err := es.mediaItemRepo.SaveEmbedding(ctx, nil, item.ID, vector); err != nil {
		return nil, fmt.Errorf("failed to persist embedding for %q: %w", item.Title, err)
	}

	if upErr := es.vectorStore.Upsert(ctx, []pinecone.Vector{vectorForItem(item)}); upErr != nil {
		// The row keeps its vector; the index catches up next ingest.
		es.log.Warn("Vector index upsert failed", "title", item.Title, "error", upErr)
	}
	return vector, nil
}

// vectorForItem carries enough metadata to rebuild a MediaItem straight from
// an index match, without a Postgres round trip.
func vectorForItem(item *types.MediaItem) pinecone.Vector {
	metadata := map[string]any{
		"source":    item.Source,
		"source_id": item.SourceID,
		"category":  string(item.Category),
		"title":     item.Title,
	}
	if item.Year != 0 {
		metadata["year"] = item.Year
	}
	if len(item.Genres) > 0 {
		metadata["genres"] = []string(item.Genres)
	}
	if item.Summary != "" {
		metadata["summary"] = item.Summary
	}
	if item.Rating != 0 {
		metadata["rating"] = item.Rating
	}
	if len(item.Creators) > 0 {
		metadata["creators"] = []string(item.Creators)
	}
	if item.ImageURL != "" {
		metadata["image_url"] = item.ImageURL
	}
	if item.BackdropURL != "" {
		metadata["backdrop_url"] = item.BackdropURL
	}
	return pinecone.Vector{
		ID:       item.ID.String(),
		Values:   item.Embedding,
		Metadata: metadata,
	}
}
