package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MediaItem is a catalog entry from one of the external providers. Identity
// is (source, source_id); ID is our own key assigned on first ingest.
// Items coming straight from a provider within a request have a zero ID and
// are never persisted unless favorited, disliked, or vector-ingested.
type MediaItem struct {
	ID          uuid.UUID                     `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Source      string                        `gorm:"not null;uniqueIndex:idx_media_item_identity;column:source" json:"source"`
	SourceID    string                        `gorm:"not null;uniqueIndex:idx_media_item_identity;column:source_id" json:"source_id"`
	Category    Category                      `gorm:"not null;index;column:category" json:"category"`
	Title       string                        `gorm:"not null;column:title" json:"title"`
	Year        int                           `gorm:"column:year" json:"year,omitempty"`
	Genres      datatypes.JSONSlice[string]   `gorm:"column:genres" json:"genres"`
	Summary     string                        `gorm:"column:summary" json:"summary,omitempty"`
	Rating      float64                       `gorm:"column:rating" json:"rating,omitempty"`
	Creators    datatypes.JSONSlice[string]   `gorm:"column:creators" json:"creators,omitempty"`
	ImageURL    string                        `gorm:"column:image_url" json:"image_url,omitempty"`
	BackdropURL string                        `gorm:"column:backdrop_url" json:"backdrop_url,omitempty"`
	// Embedding is absent until EmbeddingService.Ensure runs for this row.
	// It is updated in place, never duplicated.
	Embedding datatypes.JSONSlice[float32] `gorm:"column:embedding" json:"-"`
	Metadata  datatypes.JSON               `gorm:"column:metadata" json:"-"`
	CreatedAt time.Time                    `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time                    `gorm:"not null;default:now()" json:"updated_at"`
}

func (MediaItem) TableName() string {
	return "media_item"
}

// RefID is the provider-derived composite key, stable across requests even
// for transient items that were never persisted.
func (m *MediaItem) RefID() string {
	return fmt.Sprintf("%s:%s:%s", m.Source, m.Category, m.SourceID)
}

func (m *MediaItem) HasEmbedding() bool {
	return len(m.Embedding) > 0
}
