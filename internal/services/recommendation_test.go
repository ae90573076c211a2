package services

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"gorm.io/datatypes"

	"github.com/mediabridge/mediabridge-backend/internal/providers"
	"github.com/mediabridge/mediabridge-backend/internal/types"
)

type fakeSimilarity struct {
	byCategory map[types.Category][]*types.MediaItem
	err        error
}

func (f *fakeSimilarity) Match(ctx context.Context, vector []float32, category types.Category, threshold float64, limit int) ([]*types.MediaItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byCategory[category], nil
}

type fakeTaste struct {
	vector []float32
}

func (f *fakeTaste) Aggregate(ctx context.Context, favorites []*types.MediaItem) []float32 {
	return f.vector
}

type fakePlanner struct {
	plan SeedPlan
}

func (f *fakePlanner) Plan(ctx context.Context, category types.Category, favorites []*types.MediaItem) SeedPlan {
	return f.plan
}

type fakeTrending struct {
	pools map[types.Category][]*types.MediaItem
	err   error
}

func (f *fakeTrending) Pools(ctx context.Context) (map[types.Category][]*types.MediaItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pools, nil
}

type fakeGateway struct {
	search   map[string][]*types.MediaItem
	similar  map[string][]*types.MediaItem
	discover []*types.MediaItem
}

func (f *fakeGateway) Search(ctx context.Context, query string) ([]*types.MediaItem, error) {
	return f.search[query], nil
}

func (f *fakeGateway) GetSimilar(ctx context.Context, sourceID string, category types.Category) ([]*types.MediaItem, error) {
	return f.similar[sourceID], nil
}

func (f *fakeGateway) Discover(ctx context.Context, genres []string) ([]*types.MediaItem, error) {
	return f.discover, nil
}

func (f *fakeGateway) Popular(ctx context.Context) (map[types.Category][]*types.MediaItem, error) {
	return map[types.Category][]*types.MediaItem{}, nil
}

func newTestRecommendationService(
	t *testing.T,
	gateway *fakeGateway,
	taste TasteAggregator,
	similarity SimilarityService,
	planner SeedPlanner,
	trending TrendingService,
) *recommendationService {
	t.Helper()
	log := testLogger(t)
	return &recommendationService{
		log:        log,
		registry:   providers.NewRegistry(gateway, gateway, gateway),
		taste:      taste,
		similarity: similarity,
		scorer:     NewHeuristicScorer(log),
		planner:    planner,
		trending:   trending,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(1))
		},
	}
}

func emptyFakes() (*fakeGateway, *fakeTaste, *fakeSimilarity, *fakePlanner, *fakeTrending) {
	return &fakeGateway{},
		&fakeTaste{},
		&fakeSimilarity{},
		&fakePlanner{plan: SeedPlan{Fallback: true}},
		&fakeTrending{pools: map[types.Category][]*types.MediaItem{}}
}

func TestBuildForFavoritesEmptyWithoutFavorites(t *testing.T) {
	gw, taste, sim, plan, trend := emptyFakes()
	rs := newTestRecommendationService(t, gw, taste, sim, plan, trend)

	out, err := rs.BuildForFavorites(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("BuildForFavorites error: %v", err)
	}
	if len(out) != len(types.AllCategories()) {
		t.Fatalf("category count: want=%d got=%d", len(types.AllCategories()), len(out))
	}
	for category, items := range out {
		if len(items) != 0 {
			t.Fatalf("category %s should be empty without favorites, got %d items", category, len(items))
		}
	}
}

func TestBuildExcludesFavoritesDislikesAndDuplicates(t *testing.T) {
	favorite := mediaItem("Blade Runner", types.CategoryFilm, 1982, "Sci-Fi")
	dislike := mediaItem("Cats", types.CategoryFilm, 2019, "Musical")

	favoriteEcho := mediaItem("Blade Runner", types.CategoryFilm, 1982, "Sci-Fi")
	dislikeRetitled := mediaItem("Cats!", types.CategoryFilm, 2019, "Musical")
	dislikeRetitled.SourceID = "other-id"
	fresh := mediaItem("Stalker", types.CategoryFilm, 1979, "Sci-Fi")
	freshEcho := mediaItem("Stalker", types.CategoryFilm, 1979, "Sci-Fi")

	gw, taste, _, plan, trend := emptyFakes()
	taste.vector = []float32{1, 0}
	sim := &fakeSimilarity{byCategory: map[types.Category][]*types.MediaItem{
		types.CategoryFilm: {favoriteEcho, dislikeRetitled, fresh, freshEcho},
	}}
	rs := newTestRecommendationService(t, gw, taste, sim, plan, trend)

	out, err := rs.BuildForFavorites(context.Background(), []*types.MediaItem{favorite}, []*types.MediaItem{dislike})
	if err != nil {
		t.Fatalf("BuildForFavorites error: %v", err)
	}
	film := out[types.CategoryFilm]
	if len(film) != 1 {
		t.Fatalf("film results: want=1 got=%d (%v)", len(film), titlesOf(film))
	}
	if film[0].Title != "Stalker" {
		t.Fatalf("surviving item: want=Stalker got=%s", film[0].Title)
	}
}

func TestBuildVectorPathOrderAndTruncation(t *testing.T) {
	var matches []*types.MediaItem
	for i := 0; i < targetCount+8; i++ {
		matches = append(matches, mediaItem(fmt.Sprintf("match %02d", i), types.CategoryBook, 2000+i, "Fantasy"))
	}

	gw, taste, _, plan, trend := emptyFakes()
	taste.vector = []float32{1}
	sim := &fakeSimilarity{byCategory: map[types.Category][]*types.MediaItem{
		types.CategoryBook: matches,
	}}
	rs := newTestRecommendationService(t, gw, taste, sim, plan, trend)

	favorite := mediaItem("The Hobbit", types.CategoryBook, 1937, "Fantasy")
	out, err := rs.BuildForFavorites(context.Background(), []*types.MediaItem{favorite}, nil)
	if err != nil {
		t.Fatalf("BuildForFavorites error: %v", err)
	}
	books := out[types.CategoryBook]
	if len(books) != targetCount {
		t.Fatalf("book results: want=%d got=%d", targetCount, len(books))
	}
	for i, item := range books {
		if item != matches[i] {
			t.Fatalf("similarity order broken at %d: want=%s got=%s", i, matches[i].Title, item.Title)
		}
	}
}

func TestBuildFiltersBlocklistedBookTitles(t *testing.T) {
	gw, taste, _, plan, trend := emptyFakes()
	taste.vector = []float32{1}
	sim := &fakeSimilarity{byCategory: map[types.Category][]*types.MediaItem{
		types.CategoryBook: {
			mediaItem("Dune: Study Guide", types.CategoryBook, 2001, "Reference"),
			mediaItem("The Complete Trilogy Box Set", types.CategoryBook, 2010, "Fantasy"),
			mediaItem("Piranesi", types.CategoryBook, 2020, "Fantasy"),
		},
	}}
	rs := newTestRecommendationService(t, gw, taste, sim, plan, trend)

	favorite := mediaItem("Jonathan Strange", types.CategoryBook, 2004, "Fantasy")
	out, err := rs.BuildForFavorites(context.Background(), []*types.MediaItem{favorite}, nil)
	if err != nil {
		t.Fatalf("BuildForFavorites error: %v", err)
	}
	books := out[types.CategoryBook]
	if len(books) != 1 || books[0].Title != "Piranesi" {
		t.Fatalf("blocklist not applied, got %v", titlesOf(books))
	}
}

func TestBuildHeuristicPoolForCategoryWithoutFavorites(t *testing.T) {
	pool := []*types.MediaItem{
		mediaItem("Elden Ring", types.CategoryGame, 2022, "RPG", "Action"),
		mediaItem("FIFA 24", types.CategoryGame, 2023, "Sports"),
		mediaItem("Baldur's Gate 3", types.CategoryGame, 2023, "RPG"),
	}

	gw, taste, sim, plan, _ := emptyFakes()
	trend := &fakeTrending{pools: map[types.Category][]*types.MediaItem{
		types.CategoryGame: pool,
	}}
	rs := newTestRecommendationService(t, gw, taste, sim, plan, trend)

	// Favorites live in another category; the game list is re-ranked trending.
	favorites := []*types.MediaItem{
		mediaItem("The Witcher", types.CategoryTV, 2019, "Fantasy", "RPG"),
	}
	out, err := rs.BuildForFavorites(context.Background(), favorites, nil)
	if err != nil {
		t.Fatalf("BuildForFavorites error: %v", err)
	}
	games := out[types.CategoryGame]
	if len(games) != 3 {
		t.Fatalf("game results: want=3 got=%d", len(games))
	}
	poolSet := map[*types.MediaItem]struct{}{}
	for _, item := range pool {
		poolSet[item] = struct{}{}
	}
	for _, item := range games {
		if _, ok := poolSet[item]; !ok {
			t.Fatalf("heuristic result %q not drawn from the trending pool", item.Title)
		}
	}
}

func TestBuildHeuristicPoolFiltersBeforeRanking(t *testing.T) {
	favorite := mediaItem("The Witcher", types.CategoryTV, 2019, "Fantasy", "RPG")

	// A pool salted with entries the user already favorited, ahead of more
	// than enough eligible games. Excluded entries must not occupy result
	// slots.
	pool := make([]*types.MediaItem, 0, 31)
	for i := 0; i < 5; i++ {
		dup := mediaItem("The Witcher", types.CategoryGame, 2015, "RPG")
		dup.SourceID = fmt.Sprintf("witcher-%d", i)
		pool = append(pool, dup)
	}
	for i := 0; i < 26; i++ {
		pool = append(pool, mediaItem(fmt.Sprintf("game %02d", i), types.CategoryGame, 2000+i, "RPG"))
	}

	gw, taste, sim, plan, _ := emptyFakes()
	trend := &fakeTrending{pools: map[types.Category][]*types.MediaItem{
		types.CategoryGame: pool,
	}}
	rs := newTestRecommendationService(t, gw, taste, sim, plan, trend)

	out, err := rs.BuildForFavorites(context.Background(), []*types.MediaItem{favorite}, nil)
	if err != nil {
		t.Fatalf("BuildForFavorites error: %v", err)
	}
	games := out[types.CategoryGame]
	if len(games) != targetCount {
		t.Fatalf("eligible pool items stranded: want=%d got=%d", targetCount, len(games))
	}
	for _, item := range games {
		if item.Title == "The Witcher" {
			t.Fatalf("favorited title leaked into the results")
		}
	}
}

func TestBuildBackfillMergesProviderSources(t *testing.T) {
	favorite := mediaItem("Interstellar", types.CategoryFilm, 2014, "Sci-Fi")
	favorite.Embedding = datatypes.JSONSlice[float32]([]float32{1, 0})

	related1 := mediaItem("Contact", types.CategoryFilm, 1997, "Sci-Fi")
	related2 := mediaItem("Sunshine", types.CategoryFilm, 2007, "Sci-Fi")
	seedHit := mediaItem("Arrival", types.CategoryFilm, 2016, "Sci-Fi")
	seedRelated := mediaItem("Annihilation", types.CategoryFilm, 2018, "Sci-Fi")
	discovered := mediaItem("Moon", types.CategoryFilm, 2009, "Sci-Fi")
	offCategory := mediaItem("The Expanse", types.CategoryTV, 2015, "Sci-Fi")

	gw := &fakeGateway{
		search: map[string][]*types.MediaItem{
			"Arrival": {offCategory, seedHit},
		},
		similar: map[string][]*types.MediaItem{
			favorite.SourceID: {related1, related2},
			seedHit.SourceID:  {seedRelated},
		},
		discover: []*types.MediaItem{discovered},
	}
	taste := &fakeTaste{vector: []float32{1, 0}}
	sim := &fakeSimilarity{}
	plan := &fakePlanner{plan: SeedPlan{SeedTitles: []string{"Arrival"}, ThemeTags: []string{"first contact"}}}
	trend := &fakeTrending{pools: map[types.Category][]*types.MediaItem{}}
	rs := newTestRecommendationService(t, gw, taste, sim, plan, trend)

	out, err := rs.BuildForFavorites(context.Background(), []*types.MediaItem{favorite}, nil)
	if err != nil {
		t.Fatalf("BuildForFavorites error: %v", err)
	}
	film := out[types.CategoryFilm]

	want := map[string]bool{
		"Contact":      false,
		"Sunshine":     false,
		"Arrival":      false,
		"Annihilation": false,
		"Moon":         false,
	}
	if len(film) != len(want) {
		t.Fatalf("film results: want=%d got=%d (%v)", len(want), len(film), titlesOf(film))
	}
	for _, item := range film {
		seen, ok := want[item.Title]
		if !ok {
			t.Fatalf("unexpected backfill item %q", item.Title)
		}
		if seen {
			t.Fatalf("duplicate backfill item %q", item.Title)
		}
		want[item.Title] = true
	}
}

func titlesOf(items []*types.MediaItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Title)
	}
	return out
}
