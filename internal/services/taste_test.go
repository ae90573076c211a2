package services

import (
	"context"
	"fmt"
	"math"
	"testing"

	"gorm.io/datatypes"

	"github.com/mediabridge/mediabridge-backend/internal/types"
)

type fakeEmbeddingService struct {
	vector      []float32
	err         error
	ensureCalls int
}

func (f *fakeEmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

func (f *fakeEmbeddingService) Ensure(ctx context.Context, item *types.MediaItem) ([]float32, error) {
	f.ensureCalls++
	if f.err != nil {
		return nil, f.err
	}
	item.Embedding = datatypes.JSONSlice[float32](f.vector)
	return f.vector, nil
}

func withVector(item *types.MediaItem, vec []float32) *types.MediaItem {
	item.Embedding = datatypes.JSONSlice[float32](vec)
	return item
}

func TestAggregateMeansExistingVectors(t *testing.T) {
	fake := &fakeEmbeddingService{}
	ta := NewTasteAggregator(testLogger(t), fake)

	favorites := []*types.MediaItem{
		withVector(mediaItem("a", types.CategoryFilm, 2000, "Drama"), []float32{1, 0, 3}),
		withVector(mediaItem("b", types.CategoryFilm, 2001, "Drama"), []float32{3, 2, 1}),
	}
	got := ta.Aggregate(context.Background(), favorites)
	want := []float32{2, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("Aggregate length: want=%d got=%d", len(want), len(got))
	}
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-6 {
			t.Fatalf("Aggregate[%d]: want=%v got=%v", i, want[i], got[i])
		}
	}
	if fake.ensureCalls != 0 {
		t.Fatalf("Ensure should not run when vectors exist, got %d calls", fake.ensureCalls)
	}
}

func TestAggregateSelfHealsAtMostThree(t *testing.T) {
	fake := &fakeEmbeddingService{vector: []float32{1, 1}}
	ta := NewTasteAggregator(testLogger(t), fake)

	favorites := []*types.MediaItem{
		mediaItem("a", types.CategoryFilm, 2000, "Drama"),
		mediaItem("b", types.CategoryFilm, 2001, "Drama"),
		mediaItem("c", types.CategoryFilm, 2002, "Drama"),
		mediaItem("d", types.CategoryFilm, 2003, "Drama"),
		mediaItem("e", types.CategoryFilm, 2004, "Drama"),
	}
	got := ta.Aggregate(context.Background(), favorites)
	if got == nil {
		t.Fatalf("Aggregate returned nil after healing")
	}
	if fake.ensureCalls != 3 {
		t.Fatalf("self-heal calls: want=3 got=%d", fake.ensureCalls)
	}
}

func TestAggregateNilWhenHealingFails(t *testing.T) {
	fake := &fakeEmbeddingService{err: fmt.Errorf("provider down")}
	ta := NewTasteAggregator(testLogger(t), fake)

	favorites := []*types.MediaItem{
		mediaItem("a", types.CategoryFilm, 2000, "Drama"),
	}
	if got := ta.Aggregate(context.Background(), favorites); got != nil {
		t.Fatalf("Aggregate should return nil when no vector can be obtained, got %v", got)
	}
}

func TestAggregateNoFavorites(t *testing.T) {
	ta := NewTasteAggregator(testLogger(t), &fakeEmbeddingService{})
	if got := ta.Aggregate(context.Background(), nil); got != nil {
		t.Fatalf("Aggregate with no favorites should be nil, got %v", got)
	}
}

func TestMeanVectorDimensionMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on dimension mismatch")
		}
	}()
	meanVector([][]float32{{1, 2}, {1, 2, 3}})
}
