package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/mediabridge/mediabridge-backend/internal/clients/openai"
	"github.com/mediabridge/mediabridge-backend/internal/logger"
	"github.com/mediabridge/mediabridge-backend/internal/repos"
	"github.com/mediabridge/mediabridge-backend/internal/types"
)

// WrappedService produces the year-in-review style taste profile from a
// user's favorites. Fewer than 3 favorites yields no insights rather than a
// hallucinated profile.
type WrappedService interface {
	Insights(ctx context.Context, userID uuid.UUID) (*WrappedInsights, error)
}

type WrappedInsights struct {
	Vibe      string    `json:"vibe"`
	Summary   string    `json:"summary"`
	MasterRec MasterRec `json:"master_rec"`
	FunFact   string    `json:"fun_fact"`
	TopEra    string    `json:"top_era"`
}

type MasterRec struct {
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

const (
	wrappedMinFavorites  = 3
	wrappedSampleSize    = 60
	wrappedGenresPerItem = 2
)

type wrappedService struct {
	log          *logger.Logger
	favoriteRepo repos.FavoriteRepo
	openaiClient openai.Client
}

func NewWrappedService(log *logger.Logger, favoriteRepo repos.FavoriteRepo, openaiClient openai.Client) WrappedService {
	return &wrappedService{
		log:          log.With("service", "WrappedService"),
		favoriteRepo: favoriteRepo,
		openaiClient: openaiClient,
	}
}

const wrappedSystem = "You are a witty, insightful media analyst. Output valid JSON only."

type wrappedCollectionEntry struct {
	Title   string   `json:"title"`
	Type    string   `json:"type"`
	Genres  []string `json:"genres,omitempty"`
	Year    int      `json:"year,omitempty"`
	Creator string   `json:"creator,omitempty"`
}

func (ws *wrappedService) Insights(ctx context.Context, userID uuid.UUID) (*WrappedInsights, error) {
	favoriteRows, err := ws.favoriteRepo.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load favorites: %w", err)
	}

	var favorites []*types.MediaItem
	for _, row := range favoriteRows {
		if row.MediaItem != nil {
			favorites = append(favorites, row.MediaItem)
		}
	}
	if len(favorites) < wrappedMinFavorites {
		return nil, nil
	}
	if len(favorites) > wrappedSampleSize {
		favorites = favorites[:wrappedSampleSize]
	}

	// Trim the collection so the prompt stays cheap: top genres and the
	// primary creator only.
	collection := make([]wrappedCollectionEntry, 0, len(favorites))
	for _, f := range favorites {
		entry := wrappedCollectionEntry{
			Title: f.Title,
			Type:  string(f.Category),
			Year:  f.Year,
		}
		genres := []string(f.Genres)
		if len(genres) > wrappedGenresPerItem {
			genres = genres[:wrappedGenresPerItem]
		}
		entry.Genres = genres
		if len(f.Creators) > 0 {
			entry.Creator = f.Creators[0]
		}
		collection = append(collection, entry)
	}

	collectionJSON, err := json.Marshal(collection)
	if err != nil {
		return nil, fmt.Errorf("failed to encode collection: %w", err)
	}

	prompt := fmt.Sprintf(`You are a "Spotify Wrapped" style analyst for media (Books, Games, Movies, Anime, TV).
Analyze this user's collection and generate a fun, insightful personality profile.

Collection: %s

Return a JSON object with these exact fields:
{
  "vibe": "A short, punchy 3-5 word aesthetic title for their taste (e.g. 'Melancholic Cyberpunk Philosopher' or 'Cozy Cottagecore Gamer')",
  "summary": "A 2-3 sentence deep dive into their specific taste patterns. Be specific about themes. Connect dots between different media types.",
  "masterRec": {
    "title": "ONE single perfect recommendation they likely haven't seen.",
    "reason": "A compelling pitch for why this specific title bridges their interests."
  },
  "funFact": "A quirky observation about their data.",
  "topEra": "The decade or era they gravitate towards most (e.g. 'The Neon 80s')"
}`, string(collectionJSON))

	obj, err := ws.openaiClient.GenerateJSON(ctx, wrappedSystem, prompt, 0.7)
	if err != nil {
		return nil, fmt.Errorf("failed to generate insights: %w", err)
	}

	insights := &WrappedInsights{}
	insights.Vibe, _ = obj["vibe"].(string)
	insights.Summary, _ = obj["summary"].(string)
	insights.FunFact, _ = obj["funFact"].(string)
	insights.TopEra, _ = obj["topEra"].(string)
	if rec, ok := obj["masterRec"].(map[string]any); ok {
		insights.MasterRec.Title, _ = rec["title"].(string)
		insights.MasterRec.Reason, _ = rec["reason"].(string)
	}
	if insights.Vibe == "" || insights.Summary == "" {
		return nil, fmt.Errorf("insights response missing required fields")
	}
	return insights, nil
}
