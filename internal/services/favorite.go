package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mediabridge/mediabridge-backend/internal/logger"
	"github.com/mediabridge/mediabridge-backend/internal/repos"
	"github.com/mediabridge/mediabridge-backend/internal/types"
)

// FavoriteService handles the save-and-favorite flow: lazily ingest the
// catalog row on first reference, generate its embedding, then record the
// user action. Favoriting removes any dislike for the same item and vice
// versa; a row is never both at once.
type FavoriteService interface {
	SaveAndFavorite(ctx context.Context, userID uuid.UUID, item *types.MediaItem) (*types.MediaItem, error)
	Unfavorite(ctx context.Context, userID uuid.UUID, source, sourceID string) error
	Dislike(ctx context.Context, userID uuid.UUID, item *types.MediaItem) (*types.MediaItem, error)
	ListFavorites(ctx context.Context, userID uuid.UUID) ([]*types.Favorite, error)
}

type favoriteService struct {
	db            *gorm.DB
	log           *logger.Logger
	mediaItemRepo repos.MediaItemRepo
	favoriteRepo  repos.FavoriteRepo
	dislikeRepo   repos.DislikeRepo
	embedding     EmbeddingService
}

func NewFavoriteService(
	db *gorm.DB,
	log *logger.Logger,
	mediaItemRepo repos.MediaItemRepo,
	favoriteRepo repos.FavoriteRepo,
	dislikeRepo repos.DislikeRepo,
	embedding EmbeddingService,
) FavoriteService {
	return &favoriteService{
		db:            db,
		log:           log.With("service", "FavoriteService"),
		mediaItemRepo: mediaItemRepo,
		favoriteRepo:  favoriteRepo,
		dislikeRepo:   dislikeRepo,
		embedding:     embedding,
	}
}

func (fs *favoriteService) ingest(ctx context.Context, item *types.MediaItem, withVector bool) (*types.MediaItem, error) {
	if item == nil {
		return nil, fmt.Errorf("nil media item")
	}
	if item.Source == "" || item.SourceID == "" || !item.Category.Valid() || item.Title == "" {
		return nil, fmt.Errorf("media item is missing identity fields")
	}

	persisted, err := fs.mediaItemRepo.UpsertByIdentity(ctx, nil, item)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert media item: %w", err)
	}

	if withVector && !persisted.HasEmbedding() {
		if _, eErr := fs.embedding.Ensure(ctx, persisted); eErr != nil {
			// Self-healing picks this up the next time the vector is needed.
			fs.log.Warn("Embedding ingest failed, continuing without vector", "title", persisted.Title, "error", eErr)
		}
	}
	return persisted, nil
}

func (fs *favoriteService) SaveAndFavorite(ctx context.Context, userID uuid.UUID, item *types.MediaItem) (*types.MediaItem, error) {
	persisted, err := fs.ingest(ctx, item, true)
	if err != nil {
		return nil, err
	}

	err = fs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if dErr := fs.dislikeRepo.DeleteByUserAndMedia(ctx, tx, userID, persisted.ID); dErr != nil {
			return fmt.Errorf("failed to clear dislike: %w", dErr)
		}
		if uErr := fs.favoriteRepo.Upsert(ctx, tx, userID, persisted.ID); uErr != nil {
			return fmt.Errorf("failed to record favorite: %w", uErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return persisted, nil
}

func (fs *favoriteService) Unfavorite(ctx context.Context, userID uuid.UUID, source, sourceID string) error {
	item, err := fs.mediaItemRepo.GetByIdentity(ctx, nil, source, sourceID)
	if err != nil {
		return fmt.Errorf("failed to look up media item: %w", err)
	}
	if item == nil {
		return nil
	}
	return fs.favoriteRepo.DeleteByUserAndMedia(ctx, nil, userID, item.ID)
}

// Dislike ingests without generating a vector; disliked items never feed
// the taste aggregate, so the embedding call would be wasted.
func (fs *favoriteService) Dislike(ctx context.Context, userID uuid.UUID, item *types.MediaItem) (*types.MediaItem, error) {
	persisted, err := fs.ingest(ctx, item, false)
	if err != nil {
		return nil, err
	}

	err = fs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if fErr := fs.favoriteRepo.DeleteByUserAndMedia(ctx, tx, userID, persisted.ID); fErr != nil {
			return fmt.Errorf("failed to clear favorite: %w", fErr)
		}
		if uErr := fs.dislikeRepo.Upsert(ctx, tx, userID, persisted.ID); uErr != nil {
			return fmt.Errorf("failed to record dislike: %w", uErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return persisted, nil
}

func (fs *favoriteService) ListFavorites(ctx context.Context, userID uuid.UUID) ([]*types.Favorite, error) {
	return fs.favoriteRepo.ListByUser(ctx, nil, userID)
}
