package types

import (
	"time"

	"github.com/google/uuid"
)

type Dislike struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"not null;uniqueIndex:idx_dislike_user_media;column:user_id" json:"user_id"`
	MediaItemID uuid.UUID  `gorm:"not null;uniqueIndex:idx_dislike_user_media;column:media_item_id" json:"media_item_id"`
	MediaItem   *MediaItem `gorm:"foreignKey:MediaItemID;references:ID" json:"media_item,omitempty"`
	CreatedAt   time.Time  `gorm:"not null;default:now()" json:"created_at"`
}

func (Dislike) TableName() string {
	return "dislike"
}
