package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mediabridge/mediabridge-backend/internal/types"
)

type countingOpenAIClient struct {
	vector     []float32
	embedErr   error
	embedCalls int
}

func (c *countingOpenAIClient) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	c.embedCalls++
	if c.embedErr != nil {
		return nil, c.embedErr
	}
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = c.vector
	}
	return out, nil
}

func (c *countingOpenAIClient) GenerateJSON(ctx context.Context, system, user string, temperature float64) (map[string]any, error) {
	return nil, fmt.Errorf("not used")
}

type fakeMediaItemRepo struct {
	saved   map[uuid.UUID][]float32
	saveErr error
}

func newFakeMediaItemRepo() *fakeMediaItemRepo {
	return &fakeMediaItemRepo{saved: map[uuid.UUID][]float32{}}
}

func (f *fakeMediaItemRepo) UpsertByIdentity(ctx context.Context, tx *gorm.DB, item *types.MediaItem) (*types.MediaItem, error) {
	return item, nil
}

func (f *fakeMediaItemRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.MediaItem, error) {
	return nil, nil
}

func (f *fakeMediaItemRepo) GetByIdentity(ctx context.Context, tx *gorm.DB, source, sourceID string) (*types.MediaItem, error) {
	return nil, nil
}

func (f *fakeMediaItemRepo) SaveEmbedding(ctx context.Context, tx *gorm.DB, id uuid.UUID, embedding []float32) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved[id] = embedding
	return nil
}

func (f *fakeMediaItemRepo) ListByCategory(ctx context.Context, tx *gorm.DB, category types.Category, limit int) ([]*types.MediaItem, error) {
	return nil, nil
}

func TestEnsureIdempotent(t *testing.T) {
	client := &countingOpenAIClient{vector: []float32{0.5, 0.25}}
	repo := newFakeMediaItemRepo()
	store := &fakeVectorStore{}
	es := NewEmbeddingService(testLogger(t), client, repo, store)

	item := mediaItem("Solaris", types.CategoryFilm, 1972, "Sci-Fi")
	item.ID = uuid.New()

	first, err := es.Ensure(context.Background(), item)
	if err != nil {
		t.Fatalf("first Ensure error: %v", err)
	}
	second, err := es.Ensure(context.Background(), item)
	if err != nil {
		t.Fatalf("second Ensure error: %v", err)
	}

	if client.embedCalls != 1 {
		t.Fatalf("embedding calls: want=1 got=%d", client.embedCalls)
	}
	if len(first) != 2 || first[1] != second[1] {
		t.Fatalf("Ensure should return the same vector both times: %v vs %v", first, second)
	}
	if got := repo.saved[item.ID]; len(got) != 2 || got[0] != 0.5 {
		t.Fatalf("embedding not persisted: %v", got)
	}
	if len(store.upserts) != 1 {
		t.Fatalf("index upserts: want=1 got=%d", len(store.upserts))
	}
	if store.upserts[0].ID != item.ID.String() || store.upserts[0].Metadata["title"] != "Solaris" {
		t.Fatalf("index vector carries wrong identity: %+v", store.upserts[0])
	}
}

func TestEnsureToleratesIndexUpsertFailure(t *testing.T) {
	client := &countingOpenAIClient{vector: []float32{1}}
	repo := newFakeMediaItemRepo()
	store := &fakeVectorStore{upsertErr: fmt.Errorf("index down")}
	es := NewEmbeddingService(testLogger(t), client, repo, store)

	item := mediaItem("Stalker", types.CategoryFilm, 1979, "Sci-Fi")
	item.ID = uuid.New()

	vec, err := es.Ensure(context.Background(), item)
	if err != nil {
		t.Fatalf("index failure must not fail Ensure: %v", err)
	}
	if len(vec) != 1 {
		t.Fatalf("Ensure should still return the vector, got %v", vec)
	}
	if got := repo.saved[item.ID]; len(got) != 1 {
		t.Fatalf("row should keep its vector despite the index failure: %v", got)
	}
}

func TestEnsurePropagatesPersistFailure(t *testing.T) {
	client := &countingOpenAIClient{vector: []float32{1}}
	repo := newFakeMediaItemRepo()
	repo.saveErr = fmt.Errorf("db down")
	es := NewEmbeddingService(testLogger(t), client, repo, &fakeVectorStore{})

	item := mediaItem("Mirror", types.CategoryFilm, 1975, "Drama")
	item.ID = uuid.New()

	if _, err := es.Ensure(context.Background(), item); err == nil {
		t.Fatalf("persist failure should surface")
	}
}

func TestEnsurePropagatesEmbedFailure(t *testing.T) {
	client := &countingOpenAIClient{embedErr: fmt.Errorf("rate limited")}
	es := NewEmbeddingService(testLogger(t), client, newFakeMediaItemRepo(), &fakeVectorStore{})

	item := mediaItem("Nostalghia", types.CategoryFilm, 1983, "Drama")
	item.ID = uuid.New()

	if _, err := es.Ensure(context.Background(), item); err == nil {
		t.Fatalf("embed failure should surface")
	}
}
