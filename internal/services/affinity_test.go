package services

import (
	"math"
	"testing"

	"github.com/mediabridge/mediabridge-backend/internal/types"
)

func TestCrossBonusTable(t *testing.T) {
	cases := []struct {
		name     string
		favCat   types.Category
		favGenre string
		candCat  types.Category
		want     float64
	}{
		{name: "anime_fantasy_to_book", favCat: types.CategoryAnime, favGenre: "fantasy", candCat: types.CategoryBook, want: 0.15},
		{name: "anime_fantasy_to_game", favCat: types.CategoryAnime, favGenre: "fantasy", candCat: types.CategoryGame, want: 0.2},
		{name: "game_rpg_to_book", favCat: types.CategoryGame, favGenre: "rpg", candCat: types.CategoryBook, want: 0.15},
		{name: "unmapped_genre", favCat: types.CategoryAnime, favGenre: "slice of life", candCat: types.CategoryBook, want: 0},
		{name: "unmapped_target", favCat: types.CategoryTV, favGenre: "crime", candCat: types.CategoryGame, want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := crossBonus(tc.favCat, tc.favGenre, tc.candCat)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("crossBonus(%s, %s, %s): want=%v got=%v", tc.favCat, tc.favGenre, tc.candCat, tc.want, got)
			}
		})
	}
}

func TestRankAppliesCrossCategoryBonus(t *testing.T) {
	hs := NewHeuristicScorer(testLogger(t))

	// The candidate shares no genres and has no year, so the cross term is
	// the only difference between the mapped and the control favorite sets.
	candidate := mediaItem("The Blade Itself", types.CategoryBook, 0, "Western")

	mapped := []*types.MediaItem{
		mediaItem("fav1", types.CategoryAnime, 2010, "Fantasy"),
		mediaItem("fav2", types.CategoryAnime, 2012, "Fantasy"),
		mediaItem("fav3", types.CategoryAnime, 2014, "Fantasy"),
	}
	control := []*types.MediaItem{
		mediaItem("fav1", types.CategoryAnime, 2010, "Slice of Life"),
		mediaItem("fav2", types.CategoryAnime, 2012, "Slice of Life"),
		mediaItem("fav3", types.CategoryAnime, 2014, "Slice of Life"),
	}

	mappedScore := hs.Rank([]*types.MediaItem{candidate}, mapped, hs.GenreWeights(mapped))[0].Score
	controlScore := hs.Rank([]*types.MediaItem{candidate}, control, hs.GenreWeights(control))[0].Score

	if mappedScore <= controlScore {
		t.Fatalf("mapped favorites should lift the book score: mapped=%v control=%v", mappedScore, controlScore)
	}
	// Three anime/fantasy favorites each contribute 0.15 toward books,
	// averaged and damped by 0.6.
	wantGap := 0.15 * 0.6
	if gap := mappedScore - controlScore; math.Abs(gap-wantGap) > 1e-9 {
		t.Fatalf("cross bonus gap: want=%v got=%v", wantGap, gap)
	}
}
