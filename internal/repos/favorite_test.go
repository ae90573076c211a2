package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mediabridge/mediabridge-backend/internal/logger"
	"github.com/mediabridge/mediabridge-backend/internal/types"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}
	return log
}

// testDB opens an in-memory sqlite database pinned to a single connection.
// The schema is created by hand because the model tags carry postgres-only
// defaults (uuid_generate_v4, now) that sqlite cannot parse.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	ddl := []string{
		`CREATE TABLE media_item (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			source_id TEXT NOT NULL,
			category TEXT NOT NULL,
			title TEXT NOT NULL,
			year INTEGER,
			genres TEXT,
			summary TEXT,
			rating REAL,
			creators TEXT,
			image_url TEXT,
			backdrop_url TEXT,
			embedding TEXT,
			metadata TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (source, source_id)
		)`,
		`CREATE TABLE favorite (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			media_item_id TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (user_id, media_item_id)
		)`,
		`CREATE TABLE dislike (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			media_item_id TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (user_id, media_item_id)
		)`,
	}
	for _, stmt := range ddl {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("failed to create schema: %v", err)
		}
	}
	return db
}

func seedMediaItem(t *testing.T, db *gorm.DB, title string) *types.MediaItem {
	t.Helper()
	item := &types.MediaItem{
		ID:       uuid.New(),
		Source:   "test",
		SourceID: title,
		Category: types.CategoryFilm,
		Title:    title,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("failed to seed media item: %v", err)
	}
	return item
}

func TestFavoriteUpsertIdempotent(t *testing.T) {
	db := testDB(t)
	repo := NewFavoriteRepo(db, testLogger(t))
	ctx := context.Background()

	userID := uuid.New()
	item := seedMediaItem(t, db, "Blade Runner")

	if err := repo.Upsert(ctx, nil, userID, item.ID); err != nil {
		t.Fatalf("first Upsert error: %v", err)
	}
	if err := repo.Upsert(ctx, nil, userID, item.ID); err != nil {
		t.Fatalf("repeated Upsert error: %v", err)
	}

	var count int64
	if err := db.Model(&types.Favorite{}).Count(&count).Error; err != nil {
		t.Fatalf("count error: %v", err)
	}
	if count != 1 {
		t.Fatalf("favorite rows: want=1 got=%d", count)
	}
}

func TestFavoriteListByUserOrderingAndPreload(t *testing.T) {
	db := testDB(t)
	repo := NewFavoriteRepo(db, testLogger(t))
	ctx := context.Background()

	userID := uuid.New()
	older := seedMediaItem(t, db, "Alien")
	newer := seedMediaItem(t, db, "Aliens")

	if err := repo.Upsert(ctx, nil, userID, older.ID); err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if err := repo.Upsert(ctx, nil, userID, newer.ID); err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	// Backdate one row so the ordering assertion is deterministic.
	if err := db.Model(&types.Favorite{}).
		Where("media_item_id = ?", older.ID).
		Update("created_at", time.Now().Add(-time.Hour)).Error; err != nil {
		t.Fatalf("backdate error: %v", err)
	}

	rows, err := repo.ListByUser(ctx, nil, userID)
	if err != nil {
		t.Fatalf("ListByUser error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("ListByUser count: want=2 got=%d", len(rows))
	}
	if rows[0].MediaItemID != newer.ID {
		t.Fatalf("most recent favorite should come first")
	}
	if rows[0].MediaItem == nil || rows[0].MediaItem.Title != "Aliens" {
		t.Fatalf("media payload not preloaded: %+v", rows[0].MediaItem)
	}
}

func TestFavoriteListScopedToUser(t *testing.T) {
	db := testDB(t)
	repo := NewFavoriteRepo(db, testLogger(t))
	ctx := context.Background()

	userA := uuid.New()
	userB := uuid.New()
	item := seedMediaItem(t, db, "Heat")

	if err := repo.Upsert(ctx, nil, userA, item.ID); err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	rows, err := repo.ListByUser(ctx, nil, userB)
	if err != nil {
		t.Fatalf("ListByUser error: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("other user's favorites leaked: %d rows", len(rows))
	}
}

func TestFavoriteDeleteByUserAndMedia(t *testing.T) {
	db := testDB(t)
	repo := NewFavoriteRepo(db, testLogger(t))
	ctx := context.Background()

	userID := uuid.New()
	item := seedMediaItem(t, db, "Collateral")

	if err := repo.Upsert(ctx, nil, userID, item.ID); err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if err := repo.DeleteByUserAndMedia(ctx, nil, userID, item.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	rows, err := repo.ListByUser(ctx, nil, userID)
	if err != nil {
		t.Fatalf("ListByUser error: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("favorite should be gone, got %d rows", len(rows))
	}
}
