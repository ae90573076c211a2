package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mediabridge/mediabridge-backend/internal/logger"
	"github.com/mediabridge/mediabridge-backend/internal/types"
)

type FavoriteRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, userID, mediaItemID uuid.UUID) error
	DeleteByUserAndMedia(ctx context.Context, tx *gorm.DB, userID, mediaItemID uuid.UUID) error
	// ListByUser returns favorites most-recent-first with the media payload
	// preloaded. The recommendation pipeline relies on this ordering when it
	// picks self-healing candidates.
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Favorite, error)
}

type favoriteRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFavoriteRepo(db *gorm.DB, baseLog *logger.Logger) FavoriteRepo {
	repoLog := baseLog.With("repo", "FavoriteRepo")
	return &favoriteRepo{db: db, log: repoLog}
}

func (fr *favoriteRepo) Upsert(ctx context.Context, tx *gorm.DB, userID, mediaItemID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}

	fav := types.Favorite{
		ID:          uuid.New(),
		UserID:      userID,
		MediaItemID: mediaItemID,
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "media_item_id"}},
			DoNothing: true,
		}).
		Create(&fav).Error
}

func (fr *favoriteRepo) DeleteByUserAndMedia(ctx context.Context, tx *gorm.DB, userID, mediaItemID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}

	return transaction.WithContext(ctx).
		Where("user_id = ? AND media_item_id = ?", userID, mediaItemID).
		Delete(&types.Favorite{}).Error
}

func (fr *favoriteRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Favorite, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}

	var results []*types.Favorite
	if err := transaction.WithContext(ctx).
		Preload("MediaItem").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
