package handlers

import (
	"fmt"

	"gorm.io/datatypes"

	"github.com/mediabridge/mediabridge-backend/internal/types"
)

// mediaItemRequest is the wire shape clients send when favoriting or
// disliking a provider result.
type mediaItemRequest struct {
	Source      string   `json:"source"`
	SourceID    string   `json:"source_id"`
	Category    string   `json:"category"`
	Title       string   `json:"title"`
	Year        int      `json:"year"`
	Genres      []string `json:"genres"`
	Summary     string   `json:"summary"`
	Rating      float64  `json:"rating"`
	Creators    []string `json:"creators"`
	ImageURL    string   `json:"image_url"`
	BackdropURL string   `json:"backdrop_url"`
}

func (r *mediaItemRequest) toMediaItem() (*types.MediaItem, error) {
	category := types.Category(r.Category)
	if !category.Valid() {
		return nil, fmt.Errorf("unknown category %q", r.Category)
	}
	if r.Source == "" || r.SourceID == "" || r.Title == "" {
		return nil, fmt.Errorf("source, source_id, and title are required")
	}
	return &types.MediaItem{
		Source:      r.Source,
		SourceID:    r.SourceID,
		Category:    category,
		Title:       r.Title,
		Year:        r.Year,
		Genres:      datatypes.JSONSlice[string](r.Genres),
		Summary:     r.Summary,
		Rating:      r.Rating,
		Creators:    datatypes.JSONSlice[string](r.Creators),
		ImageURL:    r.ImageURL,
		BackdropURL: r.BackdropURL,
	}, nil
}
