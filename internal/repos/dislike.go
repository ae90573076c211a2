package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mediabridge/mediabridge-backend/internal/logger"
	"github.com/mediabridge/mediabridge-backend/internal/types"
)

type DislikeRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, userID, mediaItemID uuid.UUID) error
	DeleteByUserAndMedia(ctx context.Context, tx *gorm.DB, userID, mediaItemID uuid.UUID) error
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Dislike, error)
}

type dislikeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDislikeRepo(db *gorm.DB, baseLog *logger.Logger) DislikeRepo {
	repoLog := baseLog.With("repo", "DislikeRepo")
	return &dislikeRepo{db: db, log: repoLog}
}

func (dr *dislikeRepo) Upsert(ctx context.Context, tx *gorm.DB, userID, mediaItemID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}

	dislike := types.Dislike{
		ID:          uuid.New(),
		UserID:      userID,
		MediaItemID: mediaItemID,
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "media_item_id"}},
			DoNothing: true,
		}).
		Create(&dislike).Error
}

func (dr *dislikeRepo) DeleteByUserAndMedia(ctx context.Context, tx *gorm.DB, userID, mediaItemID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}

	return transaction.WithContext(ctx).
		Where("user_id = ? AND media_item_id = ?", userID, mediaItemID).
		Delete(&types.Dislike{}).Error
}

func (dr *dislikeRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Dislike, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}

	var results []*types.Dislike
	if err := transaction.WithContext(ctx).
		Preload("MediaItem").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
