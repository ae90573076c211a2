package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mediabridge/mediabridge-backend/internal/types"
)

type fakeFavoriteRepo struct {
	rows []*types.Favorite
	err  error
}

func (f *fakeFavoriteRepo) Upsert(ctx context.Context, tx *gorm.DB, userID, mediaItemID uuid.UUID) error {
	return nil
}

func (f *fakeFavoriteRepo) DeleteByUserAndMedia(ctx context.Context, tx *gorm.DB, userID, mediaItemID uuid.UUID) error {
	return nil
}

func (f *fakeFavoriteRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Favorite, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func favoriteRows(items ...*types.MediaItem) []*types.Favorite {
	rows := make([]*types.Favorite, 0, len(items))
	for _, item := range items {
		rows = append(rows, &types.Favorite{
			ID:        uuid.New(),
			UserID:    uuid.New(),
			MediaItem: item,
		})
	}
	return rows
}

func TestInsightsRequiresThreeFavorites(t *testing.T) {
	repo := &fakeFavoriteRepo{rows: favoriteRows(
		mediaItem("Dune", types.CategoryBook, 1965, "Sci-Fi"),
		mediaItem("Arrival", types.CategoryFilm, 2016, "Sci-Fi"),
	)}
	client := &fakeOpenAIClient{}
	ws := NewWrappedService(testLogger(t), repo, client)

	got, err := ws.Insights(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Insights error: %v", err)
	}
	if got != nil {
		t.Fatalf("under three favorites should yield no insights, got %+v", got)
	}
	if client.lastUser != "" {
		t.Fatalf("no model call should happen below the favorite floor")
	}
}

func TestInsightsParsesResponse(t *testing.T) {
	repo := &fakeFavoriteRepo{rows: favoriteRows(
		mediaItem("Blade Runner", types.CategoryFilm, 1982, "Sci-Fi", "Noir"),
		mediaItem("Neuromancer", types.CategoryBook, 1984, "Sci-Fi"),
		mediaItem("Ghost in the Shell", types.CategoryAnime, 1995, "Sci-Fi"),
	)}
	client := &fakeOpenAIClient{jsonObj: map[string]any{
		"vibe":    "Neon Noir Dreamer",
		"summary": "You chase rain-slicked futures across every medium.",
		"funFact": "Every favorite predates the year 2000.",
		"topEra":  "The Neon 80s",
		"masterRec": map[string]any{
			"title":  "Akira",
			"reason": "The missing anchor of your cyberpunk canon.",
		},
	}}
	ws := NewWrappedService(testLogger(t), repo, client)

	got, err := ws.Insights(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Insights error: %v", err)
	}
	if got == nil {
		t.Fatalf("expected insights")
	}
	if got.Vibe != "Neon Noir Dreamer" || got.TopEra != "The Neon 80s" {
		t.Fatalf("fields not mapped: %+v", got)
	}
	if got.MasterRec.Title != "Akira" || got.MasterRec.Reason == "" {
		t.Fatalf("master rec not mapped: %+v", got.MasterRec)
	}
	if !strings.Contains(client.lastUser, "Blade Runner") {
		t.Fatalf("prompt should carry the collection titles")
	}
}

func TestInsightsRejectsEmptyRequiredFields(t *testing.T) {
	repo := &fakeFavoriteRepo{rows: favoriteRows(
		mediaItem("a", types.CategoryFilm, 2000, "Drama"),
		mediaItem("b", types.CategoryFilm, 2001, "Drama"),
		mediaItem("c", types.CategoryFilm, 2002, "Drama"),
	)}
	client := &fakeOpenAIClient{jsonObj: map[string]any{
		"vibe": "", "summary": "something",
	}}
	ws := NewWrappedService(testLogger(t), repo, client)

	if _, err := ws.Insights(context.Background(), uuid.New()); err == nil {
		t.Fatalf("missing vibe should be an error")
	}
}

func TestInsightsPropagatesRepoError(t *testing.T) {
	repo := &fakeFavoriteRepo{err: fmt.Errorf("db down")}
	ws := NewWrappedService(testLogger(t), repo, &fakeOpenAIClient{})

	if _, err := ws.Insights(context.Background(), uuid.New()); err == nil {
		t.Fatalf("repo failure should surface")
	}
}
