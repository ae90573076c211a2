package services

import (
	"math"
	"sort"
	"strings"

	"github.com/mediabridge/mediabridge-backend/internal/logger"
	"github.com/mediabridge/mediabridge-backend/internal/normalization"
	"github.com/mediabridge/mediabridge-backend/internal/types"
)

// HeuristicScorer ranks candidates against a user's favorites on genre
// overlap, release-year proximity, cross-category affinity, and a penalty
// for chart-topping items. It needs no vectors and no network, which makes
// it the fallback when the embedding path has nothing to offer.
type HeuristicScorer interface {
	GenreWeights(favorites []*types.MediaItem) map[string]float64
	Rank(candidates, favorites []*types.MediaItem, weights map[string]float64) []ScoredItem
	Select(scored []ScoredItem, n int) []*types.MediaItem
}

type ScoredItem struct {
	Item  *types.MediaItem
	Score float64
}

type heuristicScorer struct {
	log *logger.Logger
}

func NewHeuristicScorer(log *logger.Logger) HeuristicScorer {
	return &heuristicScorer{log: log.With("service", "HeuristicScorer")}
}

// GenreWeights emphasizes the rarer genres in a user's favorites. A genre
// appearing once among many favorites weighs up to 1.6; the most common
// genre sits at 1.0. Weights are clamped to [0.6, 1.6].
func (hs *heuristicScorer) GenreWeights(favorites []*types.MediaItem) map[string]float64 {
	counts := map[string]int{}
	for _, f := range favorites {
		for _, g := range f.Genres {
			counts[g]++
		}
	}

	maxCount := 1
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}

	weights := make(map[string]float64, len(counts))
	for g, c := range counts {
		w := 1 + (1 - float64(c)/float64(maxCount))
		weights[g] = math.Min(1.6, math.Max(0.6, w))
	}
	return weights
}

func jaccard(a, b []string) float64 {
	setA := map[string]struct{}{}
	for _, x := range a {
		setA[strings.ToLower(x)] = struct{}{}
	}
	setB := map[string]struct{}{}
	for _, x := range b {
		setB[strings.ToLower(x)] = struct{}{}
	}
	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}
	inter := 0
	for x := range setA {
		if _, ok := setB[x]; ok {
			inter++
		}
	}
	return float64(inter) / float64(len(setA)+len(setB)-inter)
}

// expDecay halves at every halfLife years of distance.
func expDecay(dist, halfLife float64) float64 {
	return math.Pow(0.5, math.Max(0, dist)/math.Max(1, halfLife))
}

func (hs *heuristicScorer) scoreItem(item *types.MediaItem, favorites []*types.MediaItem, rankInPool int, weights map[string]float64) float64 {
	favCount := math.Max(1, float64(len(favorites)))

	genreTerm := 0.0
	for _, f := range favorites {
		sim := jaccard(item.Genres, f.Genres)
		boost := 0.0
		for _, g := range item.Genres {
			if containsFold(f.Genres, g) {
				w, ok := weights[g]
				if !ok {
					w = 1
				}
				boost += w * 0.35
			}
		}
		genreTerm += sim + boost
	}
	genreTerm /= favCount

	// Year proximity with a 6-year half-life. Items without a year
	// contribute nothing either way.
	yearTerm := 0.0
	if item.Year != 0 {
		sum, seen := 0.0, 0
		for _, f := range favorites {
			if f.Year != 0 {
				sum += expDecay(math.Abs(float64(item.Year-f.Year)), 6)
				seen++
			}
		}
		if seen > 0 {
			yearTerm = sum / float64(seen)
		}
	}

	cross := 0.0
	for _, f := range favorites {
		for _, g := range f.Genres {
			cross += crossBonus(f.Category, strings.ToLower(g), item.Category)
		}
	}
	cross = cross / favCount * 0.6

	// Push away from the obvious top-of-chart entries.
	popularityPenalty := math.Max(0, 0.6-0.02*float64(rankInPool))

	return genreTerm*2.2 + yearTerm*1.1 + cross - popularityPenalty
}

func containsFold(list []string, target string) bool {
	for _, s := range list {
		if strings.EqualFold(s, target) {
			return true
		}
	}
	return false
}

// Rank scores every candidate in pool order. The candidate's index doubles
// as its popularity rank, so pools should arrive popularity-sorted.
func (hs *heuristicScorer) Rank(candidates, favorites []*types.MediaItem, weights map[string]float64) []ScoredItem {
	scored := make([]ScoredItem, 0, len(candidates))
	for i, item := range candidates {
		scored = append(scored, ScoredItem{
			Item:  item,
			Score: hs.scoreItem(item, favorites, i, weights),
		})
	}
	return scored
}

// Select takes the top n by score while greedily skipping items whose
// franchise key is already represented, then tops off with the best
// remaining items regardless of franchise so the output reaches n when the
// input allows it.
func (hs *heuristicScorer) Select(scored []ScoredItem, n int) []*types.MediaItem {
	if n <= 0 {
		return nil
	}

	ordered := make([]ScoredItem, len(scored))
	copy(ordered, scored)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Score > ordered[j].Score
	})

	seenFranchise := map[string]struct{}{}
	picked := map[string]struct{}{}
	var pick []*types.MediaItem

	for _, s := range ordered {
		key := normalization.FranchiseKey(s.Item.Title)
		if _, ok := seenFranchise[key]; ok {
			continue
		}
		pick = append(pick, s.Item)
		seenFranchise[key] = struct{}{}
		picked[s.Item.RefID()] = struct{}{}
		if len(pick) >= n {
			return pick
		}
	}

	for _, s := range ordered {
		if _, ok := picked[s.Item.RefID()]; ok {
			continue
		}
		pick = append(pick, s.Item)
		picked[s.Item.RefID()] = struct{}{}
		if len(pick) >= n {
			break
		}
	}
	return pick
}
