package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/mediabridge/mediabridge-backend/internal/clients/openai"
	"github.com/mediabridge/mediabridge-backend/internal/logger"
	"github.com/mediabridge/mediabridge-backend/internal/types"
)

// SeedPlanner asks the language model for fresh seed titles and theme tags
// given a user's favorites in one category. A malformed or failed response
// never propagates; the planner degrades to the user's own titles.
type SeedPlanner interface {
	Plan(ctx context.Context, category types.Category, favorites []*types.MediaItem) SeedPlan
}

type SeedPlan struct {
	SeedTitles []string
	ThemeTags  []string
	// Fallback marks a degraded plan built from the user's own favorites
	// after an LLM failure or shape violation.
	Fallback bool
}

const (
	planSeedCount      = 4
	planThemeCount     = 2
	planFavoritesLimit = 500
	fallbackSeedLimit  = 3
)

type seedPlanner struct {
	log          *logger.Logger
	openaiClient openai.Client
}

func NewSeedPlanner(log *logger.Logger, openaiClient openai.Client) SeedPlanner {
	return &seedPlanner{
		log:          log.With("service", "SeedPlanner"),
		openaiClient: openaiClient,
	}
}

const seedPlannerSystem = `You are a media recommendation curator. Reply with strict JSON only, shaped exactly as {"seeds": [string, string, string, string], "genres": [string, string]}.`

func (sp *seedPlanner) Plan(ctx context.Context, category types.Category, favorites []*types.MediaItem) SeedPlan {
	titles := make([]string, 0, len(favorites))
	for _, f := range favorites {
		if len(titles) >= planFavoritesLimit {
			break
		}
		titles = append(titles, f.Title)
	}

	prompt := fmt.Sprintf(
		"The user's favorite %s titles are:\n%s\n\n"+
			"Suggest exactly 4 other %s titles they would enjoy: the first two safe bets, the last two hidden gems. "+
			"Never suggest a title already in the list, and avoid titles by the same creators as the favorites. "+
			"Also give exactly 2 sub-genre or theme tags that capture this taste.",
		category, strings.Join(titles, "\n"), category,
	)

	obj, err := sp.openaiClient.GenerateJSON(ctx, seedPlannerSystem, prompt, 0.8)
	if err != nil {
		sp.log.Warn("Seed plan generation failed, falling back to own titles", "category", category, "error", err)
		return sp.fallback(titles)
	}

	plan, ok := parseSeedPlan(obj)
	if !ok {
		sp.log.Warn("Seed plan had unexpected shape, falling back to own titles", "category", category)
		return sp.fallback(titles)
	}
	return plan
}

func (sp *seedPlanner) fallback(titles []string) SeedPlan {
	seeds := titles
	if len(seeds) > fallbackSeedLimit {
		seeds = seeds[:fallbackSeedLimit]
	}
	return SeedPlan{
		SeedTitles: append([]string(nil), seeds...),
		Fallback:   true,
	}
}

func parseSeedPlan(obj map[string]any) (SeedPlan, bool) {
	seeds, ok := stringList(obj["seeds"], planSeedCount)
	if !ok {
		return SeedPlan{}, false
	}
	genres, ok := stringList(obj["genres"], planThemeCount)
	if !ok {
		return SeedPlan{}, false
	}
	return SeedPlan{SeedTitles: seeds, ThemeTags: genres}, true
}

func stringList(v any, want int) ([]string, bool) {
	raw, ok := v.([]any)
	if !ok || len(raw) != want {
		return nil, false
	}
	out := make([]string, 0, want)
	for _, e := range raw {
		s, ok := e.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, false
		}
		out = append(out, strings.TrimSpace(s))
	}
	return out, true
}
