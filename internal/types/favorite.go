package types

import (
	"time"

	"github.com/google/uuid"
)

// Favorite links a user to a media item. A media item cannot be favorited
// and disliked by the same user at once; writing one deletes the other.
type Favorite struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"not null;uniqueIndex:idx_favorite_user_media;column:user_id" json:"user_id"`
	MediaItemID uuid.UUID  `gorm:"not null;uniqueIndex:idx_favorite_user_media;column:media_item_id" json:"media_item_id"`
	MediaItem   *MediaItem `gorm:"foreignKey:MediaItemID;references:ID" json:"media_item,omitempty"`
	CreatedAt   time.Time  `gorm:"not null;default:now()" json:"created_at"`
}

func (Favorite) TableName() string {
	return "favorite"
}
