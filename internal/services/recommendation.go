package services

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mediabridge/mediabridge-backend/internal/logger"
	"github.com/mediabridge/mediabridge-backend/internal/normalization"
	"github.com/mediabridge/mediabridge-backend/internal/providers"
	"github.com/mediabridge/mediabridge-backend/internal/repos"
	"github.com/mediabridge/mediabridge-backend/internal/types"
)

// RecommendationService builds the per-category recommendation lists. The
// vector path runs first; when it comes up short the orchestrator backfills
// through provider lookups seeded by centroid favorites, planner titles, and
// genre browsing. No single provider or category failure aborts the request.
type RecommendationService interface {
	BuildForUser(ctx context.Context, userID uuid.UUID) (map[types.Category][]*types.MediaItem, error)
	BuildForFavorites(ctx context.Context, favorites, dislikes []*types.MediaItem) (map[types.Category][]*types.MediaItem, error)
}

const (
	targetCount         = 24
	similarityThreshold = 0.3
	centroidSeedLimit   = 3
	frequentGenreLimit  = 2
)

// Titles matching any of these mark low-quality book entries (tie-in
// merchandise, repackagings) that crowd out real recommendations.
var bookTitleBlocklist = []string{
	"study guide",
	"box set",
	"boxed set",
	"companion",
	"summary",
	"workbook",
	"coloring book",
}

type recommendationService struct {
	log          *logger.Logger
	favoriteRepo repos.FavoriteRepo
	dislikeRepo  repos.DislikeRepo
	registry     *providers.Registry
	taste        TasteAggregator
	similarity   SimilarityService
	scorer       HeuristicScorer
	planner      SeedPlanner
	trending     TrendingService

	// newRand is swapped for a seeded source in tests.
	newRand func() *rand.Rand
}

func NewRecommendationService(
	log *logger.Logger,
	favoriteRepo repos.FavoriteRepo,
	dislikeRepo repos.DislikeRepo,
	registry *providers.Registry,
	taste TasteAggregator,
	similarity SimilarityService,
	scorer HeuristicScorer,
	planner SeedPlanner,
	trending TrendingService,
) RecommendationService {
	return &recommendationService{
		log:          log.With("service", "RecommendationService"),
		favoriteRepo: favoriteRepo,
		dislikeRepo:  dislikeRepo,
		registry:     registry,
		taste:        taste,
		similarity:   similarity,
		scorer:       scorer,
		planner:      planner,
		trending:     trending,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

func (rs *recommendationService) BuildForUser(ctx context.Context, userID uuid.UUID) (map[types.Category][]*types.MediaItem, error) {
	favoriteRows, err := rs.favoriteRepo.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load favorites: %w", err)
	}
	dislikeRows, err := rs.dislikeRepo.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load dislikes: %w", err)
	}

	favorites := make([]*types.MediaItem, 0, len(favoriteRows))
	for _, row := range favoriteRows {
		if row.MediaItem != nil {
			favorites = append(favorites, row.MediaItem)
		}
	}
	dislikes := make([]*types.MediaItem, 0, len(dislikeRows))
	for _, row := range dislikeRows {
		if row.MediaItem != nil {
			dislikes = append(dislikes, row.MediaItem)
		}
	}
	return rs.BuildForFavorites(ctx, favorites, dislikes)
}

// exclusionSet tracks everything a category result must never contain:
// favorites and dislikes by composite ref id and by normalized title.
type exclusionSet struct {
	refIDs map[string]struct{}
	titles map[string]struct{}
}

func newExclusionSet(lists ...[]*types.MediaItem) *exclusionSet {
	ex := &exclusionSet{
		refIDs: map[string]struct{}{},
		titles: map[string]struct{}{},
	}
	for _, list := range lists {
		for _, item := range list {
			ex.refIDs[item.RefID()] = struct{}{}
			ex.titles[normalization.NormalizeTitle(item.Title)] = struct{}{}
		}
	}
	return ex
}

func (ex *exclusionSet) contains(item *types.MediaItem) bool {
	if _, ok := ex.refIDs[item.RefID()]; ok {
		return true
	}
	_, ok := ex.titles[normalization.NormalizeTitle(item.Title)]
	return ok
}

func (rs *recommendationService) BuildForFavorites(ctx context.Context, favorites, dislikes []*types.MediaItem) (map[types.Category][]*types.MediaItem, error) {
	out := map[types.Category][]*types.MediaItem{}
	for _, c := range types.AllCategories() {
		out[c] = []*types.MediaItem{}
	}
	if len(favorites) == 0 {
		return out, nil
	}

	// Snapshot taken once; category pipelines only read from here.
	excluded := newExclusionSet(favorites, dislikes)
	tasteVector := rs.taste.Aggregate(ctx, favorites)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, category := range types.AllCategories() {
		category := category
		g.Go(func() error {
			items := rs.buildCategory(gctx, category, favorites, tasteVector, excluded)
			mu.Lock()
			out[category] = items
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (rs *recommendationService) buildCategory(
	ctx context.Context,
	category types.Category,
	favorites []*types.MediaItem,
	tasteVector []float32,
	excluded *exclusionSet,
) []*types.MediaItem {
	var categoryFavorites []*types.MediaItem
	for _, f := range favorites {
		if f.Category == category {
			categoryFavorites = append(categoryFavorites, f)
		}
	}

	result := []*types.MediaItem{}
	seen := map[string]struct{}{}
	seenTitles := map[string]struct{}{}

	admissible := func(item *types.MediaItem) bool {
		if item == nil || item.Title == "" {
			return false
		}
		if excluded.contains(item) {
			return false
		}
		if _, ok := seen[item.RefID()]; ok {
			return false
		}
		if _, ok := seenTitles[normalization.NormalizeTitle(item.Title)]; ok {
			return false
		}
		if item.Category == types.CategoryBook && blockedBookTitle(item.Title) {
			return false
		}
		return true
	}
	admit := func(item *types.MediaItem) bool {
		if !admissible(item) {
			return false
		}
		seen[item.RefID()] = struct{}{}
		seenTitles[normalization.NormalizeTitle(item.Title)] = struct{}{}
		return true
	}

	// Vector path first. Matches stay in similarity order all the way to the
	// response; the Fisher-Yates pass covers backfill candidates only.
	if len(tasteVector) > 0 {
		matches, err := rs.similarity.Match(ctx, tasteVector, category, similarityThreshold, targetCount)
		if err != nil {
			rs.log.Warn("Similarity match failed", "category", category, "error", err)
		}
		for _, m := range matches {
			if admit(m) {
				result = append(result, m)
			}
		}
	}
	if len(result) >= targetCount {
		return result[:targetCount]
	}

	// No favorites in this category: re-rank the popularity pool against the
	// user's overall taste instead of planning seeds from nothing.
	if len(categoryFavorites) == 0 {
		for _, item := range rs.heuristicPicks(ctx, category, favorites, targetCount-len(result), admissible) {
			if admit(item) {
				result = append(result, item)
			}
		}
		return capItems(result, targetCount)
	}

	for _, item := range rs.backfill(ctx, category, categoryFavorites, tasteVector) {
		if len(result) >= targetCount {
			break
		}
		if admit(item) {
			result = append(result, item)
		}
	}
	return capItems(result, targetCount)
}

// heuristicPicks re-ranks the popularity pool against the user's favorites.
// The pool is filtered before ranking so excluded entries never occupy a
// slot, and the popularity penalty indexes into the filtered pool.
func (rs *recommendationService) heuristicPicks(
	ctx context.Context,
	category types.Category,
	favorites []*types.MediaItem,
	n int,
	admissible func(*types.MediaItem) bool,
) []*types.MediaItem {
	if n <= 0 {
		return nil
	}
	pools, err := rs.trending.Pools(ctx)
	if err != nil {
		rs.log.Warn("Trending pools unavailable for heuristic ranking", "category", category, "error", err)
		return nil
	}
	pool := make([]*types.MediaItem, 0, len(pools[category]))
	for _, item := range pools[category] {
		if admissible(item) {
			pool = append(pool, item)
		}
	}
	if len(pool) == 0 {
		return nil
	}
	weights := rs.scorer.GenreWeights(favorites)
	scored := rs.scorer.Rank(pool, favorites, weights)
	return rs.scorer.Select(scored, n)
}

// backfill fans out provider lookups for one category: related items for the
// centroid seeds, planner seed titles resolved through search, and genre
// browsing over frequent genres plus theme tags. The merged stream is
// shuffled so no single source shows up as a visible block.
func (rs *recommendationService) backfill(
	ctx context.Context,
	category types.Category,
	categoryFavorites []*types.MediaItem,
	tasteVector []float32,
) []*types.MediaItem {
	gateway := rs.registry.ForCategory(category)
	seeds := centroidSeeds(categoryFavorites, tasteVector, centroidSeedLimit)
	genres := frequentGenres(categoryFavorites, frequentGenreLimit)
	plan := rs.planner.Plan(ctx, category, categoryFavorites)

	var mu sync.Mutex
	var candidates []*types.MediaItem
	collect := func(items []*types.MediaItem) {
		if len(items) == 0 {
			return
		}
		mu.Lock()
		candidates = append(candidates, items...)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)

	for _, seed := range seeds {
		seed := seed
		g.Go(func() error {
			similar, err := gateway.GetSimilar(gctx, seed.SourceID, category)
			if err != nil {
				rs.log.Warn("GetSimilar failed", "category", category, "seed", seed.Title, "error", err)
				return nil
			}
			collect(similar)
			return nil
		})
	}

	for _, title := range plan.SeedTitles {
		title := title
		g.Go(func() error {
			found, err := gateway.Search(gctx, title)
			if err != nil {
				rs.log.Warn("Seed search failed", "category", category, "title", title, "error", err)
				return nil
			}
			var top *types.MediaItem
			for _, item := range found {
				if item.Category == category {
					top = item
					break
				}
			}
			if top == nil {
				return nil
			}
			collect([]*types.MediaItem{top})
			similar, err := gateway.GetSimilar(gctx, top.SourceID, category)
			if err != nil {
				rs.log.Warn("Seed expansion failed", "category", category, "title", top.Title, "error", err)
				return nil
			}
			collect(similar)
			return nil
		})
	}

	browseTerms := append(append([]string(nil), genres...), plan.ThemeTags...)
	if len(browseTerms) > 0 {
		g.Go(func() error {
			found, err := gateway.Discover(gctx, browseTerms)
			if err != nil {
				rs.log.Warn("Discover failed", "category", category, "error", err)
				return nil
			}
			collect(found)
			return nil
		})
	}

	_ = g.Wait()

	rs.shuffle(candidates)
	return candidates
}

// shuffle is Fisher-Yates over the candidate order.
func (rs *recommendationService) shuffle(items []*types.MediaItem) {
	rng := rs.newRand()
	for i := len(items) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

// centroidSeeds returns up to limit favorites whose own vectors sit closest
// (cosine) to the taste vector. Favorites without vectors never qualify.
func centroidSeeds(favorites []*types.MediaItem, tasteVector []float32, limit int) []*types.MediaItem {
	if len(tasteVector) == 0 || limit <= 0 {
		return nil
	}
	type ranked struct {
		item *types.MediaItem
		sim  float64
	}
	var scored []ranked
	for _, f := range favorites {
		if !f.HasEmbedding() || len(f.Embedding) != len(tasteVector) {
			continue
		}
		scored = append(scored, ranked{item: f, sim: cosine(f.Embedding, tasteVector)})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].sim > scored[j].sim
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	out := make([]*types.MediaItem, 0, len(scored))
	for _, s := range scored {
		out = append(out, s.item)
	}
	return out
}

func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func frequentGenres(favorites []*types.MediaItem, limit int) []string {
	counts := map[string]int{}
	for _, f := range favorites {
		for _, g := range f.Genres {
			counts[strings.ToLower(g)]++
		}
	}
	genres := make([]string, 0, len(counts))
	for g := range counts {
		genres = append(genres, g)
	}
	sort.Slice(genres, func(i, j int) bool {
		if counts[genres[i]] != counts[genres[j]] {
			return counts[genres[i]] > counts[genres[j]]
		}
		return genres[i] < genres[j]
	})
	if len(genres) > limit {
		genres = genres[:limit]
	}
	return genres
}

func blockedBookTitle(title string) bool {
	lowered := strings.ToLower(title)
	for _, kw := range bookTitleBlocklist {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

func capItems(items []*types.MediaItem, n int) []*types.MediaItem {
	if len(items) > n {
		return items[:n]
	}
	return items
}
