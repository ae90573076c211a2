package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mediabridge/mediabridge-backend/internal/logger"
	"github.com/mediabridge/mediabridge-backend/internal/types"
)

type MediaItemRepo interface {
	// UpsertByIdentity returns the persisted row for (source, source_id),
	// creating it on first reference. The stored row wins over the incoming
	// snapshot; provider payloads are not re-applied to existing rows.
	UpsertByIdentity(ctx context.Context, tx *gorm.DB, item *types.MediaItem) (*types.MediaItem, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.MediaItem, error)
	GetByIdentity(ctx context.Context, tx *gorm.DB, source, sourceID string) (*types.MediaItem, error)
	SaveEmbedding(ctx context.Context, tx *gorm.DB, id uuid.UUID, embedding []float32) error
	ListByCategory(ctx context.Context, tx *gorm.DB, category types.Category, limit int) ([]*types.MediaItem, error)
}

type mediaItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMediaItemRepo(db *gorm.DB, baseLog *logger.Logger) MediaItemRepo {
	repoLog := baseLog.With("repo", "MediaItemRepo")
	return &mediaItemRepo{db: db, log: repoLog}
}

func (mr *mediaItemRepo) UpsertByIdentity(ctx context.Context, tx *gorm.DB, item *types.MediaItem) (*types.MediaItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	existing, err := mr.GetByIdentity(ctx, transaction, item.Source, item.SourceID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func (mr *mediaItemRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.MediaItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	var results []*types.MediaItem
	if len(ids) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (mr *mediaItemRepo) GetByIdentity(ctx context.Context, tx *gorm.DB, source, sourceID string) (*types.MediaItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	var result types.MediaItem
	err := transaction.WithContext(ctx).
		Where("source = ? AND source_id = ?", source, sourceID).
		First(&result).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (mr *mediaItemRepo) SaveEmbedding(ctx context.Context, tx *gorm.DB, id uuid.UUID, embedding []float32) error {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	return transaction.WithContext(ctx).
		Model(&types.MediaItem{}).
		Where("id = ?", id).
		Update("embedding", datatypes.JSONSlice[float32](embedding)).Error
}

func (mr *mediaItemRepo) ListByCategory(ctx context.Context, tx *gorm.DB, category types.Category, limit int) ([]*types.MediaItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	var results []*types.MediaItem
	q := transaction.WithContext(ctx).
		Where("category = ?", category).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
