package services

import (
	"math"
	"testing"

	"gorm.io/datatypes"

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

func mediaItem(title string, category types.Category, year int, genres ...string) *types.MediaItem {
	return &types.MediaItem{
		Source:   "test",
		SourceID: title,
		Category: category,
		Title:    title,
		Year:     year,
		Genres:   datatypes.JSONSlice[string](genres),
	}
}

func TestGenreWeightsRarityBounds(t *testing.T) {
	hs := NewHeuristicScorer(testLogger(t))

	favorites := []*types.MediaItem{
		mediaItem("a", types.CategoryFilm, 2000, "Drama"),
		mediaItem("b", types.CategoryFilm, 2001, "Drama"),
		mediaItem("c", types.CategoryFilm, 2002, "Drama"),
		mediaItem("d", types.CategoryFilm, 2003, "Western"),
	}
	weights := hs.GenreWeights(favorites)

	// The most common genre sits at 1.0, a one-off gets boosted to the cap.
	if got := weights["Drama"]; math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("weights[Drama]: want=1.0 got=%v", got)
	}
	if got := weights["Western"]; math.Abs(got-1.6) > 1e-9 {
		t.Fatalf("weights[Western]: want=1.6 got=%v", got)
	}
	for g, w := range weights {
		if w < 0.6 || w > 1.6 {
			t.Fatalf("weight out of bounds for %s: %v", g, w)
		}
	}
}

func TestJaccard(t *testing.T) {
	cases := []struct {
		name string
		a, b []string
		want float64
	}{
		{name: "identical", a: []string{"Action", "Drama"}, b: []string{"action", "drama"}, want: 1},
		{name: "disjoint", a: []string{"Action"}, b: []string{"Drama"}, want: 0},
		{name: "both_empty", a: nil, b: nil, want: 0},
		{name: "half_overlap", a: []string{"Action", "Drama"}, b: []string{"Drama", "Crime"}, want: 1.0 / 3.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := jaccard(tc.a, tc.b)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("jaccard: want=%v got=%v", tc.want, got)
			}
		})
	}
}

func TestExpDecayHalfLife(t *testing.T) {
	if got := expDecay(0, 6); math.Abs(got-1) > 1e-9 {
		t.Fatalf("expDecay(0)=%v, want 1", got)
	}
	if got := expDecay(6, 6); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("expDecay(halfLife)=%v, want 0.5", got)
	}
	if got := expDecay(12, 6); math.Abs(got-0.25) > 1e-9 {
		t.Fatalf("expDecay(2*halfLife)=%v, want 0.25", got)
	}
}

func TestRankPrefersGenreAndYearProximity(t *testing.T) {
	hs := NewHeuristicScorer(testLogger(t))

	favorites := []*types.MediaItem{
		mediaItem("fav1", types.CategoryFilm, 2019, "Sci-Fi", "Thriller"),
		mediaItem("fav2", types.CategoryFilm, 2021, "Sci-Fi"),
	}
	weights := hs.GenreWeights(favorites)

	// Deep in the pool so the popularity penalty is identical and zero.
	pool := make([]*types.MediaItem, 0, 32)
	for i := 0; i < 30; i++ {
		pool = append(pool, mediaItem("filler", types.CategoryFilm, 1950, "Documentary"))
	}
	close1 := mediaItem("close match", types.CategoryFilm, 2020, "Sci-Fi", "Thriller")
	far := mediaItem("far match", types.CategoryFilm, 1970, "Romance")
	pool = append(pool, close1, far)

	scored := hs.Rank(pool, favorites, weights)
	var closeScore, farScore float64
	for _, s := range scored {
		switch s.Item {
		case close1:
			closeScore = s.Score
		case far:
			farScore = s.Score
		}
	}
	if closeScore <= farScore {
		t.Fatalf("genre/year match should score higher: close=%v far=%v", closeScore, farScore)
	}
}

func TestRankPopularityPenalty(t *testing.T) {
	hs := NewHeuristicScorer(testLogger(t))
	favorites := []*types.MediaItem{mediaItem("fav", types.CategoryGame, 2015, "RPG")}
	weights := hs.GenreWeights(favorites)

	// Same item at rank 0 and rank 40; only the penalty differs.
	top := mediaItem("same", types.CategoryGame, 2015, "RPG")
	deep := mediaItem("same", types.CategoryGame, 2015, "RPG")
	pool := []*types.MediaItem{top}
	for i := 0; i < 39; i++ {
		pool = append(pool, mediaItem("filler", types.CategoryGame, 1980, "Sports"))
	}
	pool = append(pool, deep)

	scored := hs.Rank(pool, favorites, weights)
	if scored[0].Item != top || scored[len(scored)-1].Item != deep {
		t.Fatalf("pool order not preserved by Rank")
	}
	penaltyGap := scored[len(scored)-1].Score - scored[0].Score
	if math.Abs(penaltyGap-0.6) > 1e-9 {
		t.Fatalf("rank 0 should carry the full 0.6 penalty, gap=%v", penaltyGap)
	}
}

func TestSelectFranchiseDiversityAndTopOff(t *testing.T) {
	hs := NewHeuristicScorer(testLogger(t))

	scored := []ScoredItem{
		{Item: mediaItem("Zelda Breath of the Wild", types.CategoryGame, 2017, "Adventure"), Score: 5},
		{Item: mediaItem("Zelda Tears of the Kingdom", types.CategoryGame, 2023, "Adventure"), Score: 4},
		{Item: mediaItem("Hades", types.CategoryGame, 2020, "Roguelike"), Score: 3},
		{Item: mediaItem("Celeste", types.CategoryGame, 2018, "Platformer"), Score: 2},
	}

	// With room for 3, the second Zelda is skipped for diversity.
	pick := hs.Select(scored, 3)
	if len(pick) != 3 {
		t.Fatalf("Select returned %d items, want 3", len(pick))
	}
	if pick[0].Title != "Zelda Breath of the Wild" || pick[1].Title != "Hades" || pick[2].Title != "Celeste" {
		t.Fatalf("unexpected diverse pick order: %s, %s, %s", pick[0].Title, pick[1].Title, pick[2].Title)
	}

	// Asking for all 4 tops off with the skipped franchise duplicate.
	pick = hs.Select(scored, 4)
	if len(pick) != 4 {
		t.Fatalf("Select returned %d items, want 4", len(pick))
	}
	if pick[3].Title != "Zelda Tears of the Kingdom" {
		t.Fatalf("top-off should append the skipped item, got %s", pick[3].Title)
	}
}
