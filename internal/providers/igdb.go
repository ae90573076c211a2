package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"gorm.io/datatypes"

	"github.com/mediabridge/mediabridge-backend/internal/logger"
	"github.com/mediabridge/mediabridge-backend/internal/types"
)

// IGDBGateway serves the game category through IGDB, authenticated with a
// Twitch client-credentials token. The token lives on the gateway instance
// behind a mutex and refreshes itself when within a minute of expiry.
type IGDBGateway struct {
	log          *logger.Logger
	clientID     string
	clientSecret string
	BaseURL      string
	AuthURL      string
	http         *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewIGDBGateway(log *logger.Logger) *IGDBGateway {
	gwLog := log.With("client", "IGDBGateway")
	clientID := strings.TrimSpace(os.Getenv("TWITCH_CLIENT_ID"))
	clientSecret := strings.TrimSpace(os.Getenv("TWITCH_CLIENT_SECRET"))
	if clientID == "" || clientSecret == "" {
		gwLog.Warn("Twitch credentials not set, game results will be empty")
	}
	return &IGDBGateway{
		log:          gwLog,
		clientID:     clientID,
		clientSecret: clientSecret,
		BaseURL:      "https://api.igdb.com/v4",
		AuthURL:      "https://id.twitch.tv/oauth2/token",
		http:         &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *IGDBGateway) configured() bool {
	return g.clientID != "" && g.clientSecret != ""
}

func (g *IGDBGateway) accessToken(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.token != "" && time.Until(g.tokenExpiry) > time.Minute {
		return g.token, nil
	}

	params := url.Values{
		"client_id":     {g.clientID},
		"client_secret": {g.clientSecret},
		"grant_type":    {"client_credentials"},
	}
	req, err := http.NewRequestWithContext(ctx, "POST", g.AuthURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("twitch token http %d: %s", resp.StatusCode, string(raw))
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(raw, &tok); err != nil {
		return "", fmt.Errorf("twitch token decode: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("twitch token response missing access_token")
	}

	g.token = tok.AccessToken
	g.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	g.log.Debug("Refreshed IGDB access token", "expires_in", tok.ExpiresIn)
	return g.token, nil
}

type igdbGame struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	FirstReleaseDate int64  `json:"first_release_date"`
	Cover            struct {
		ImageID string `json:"image_id"`
	} `json:"cover"`
	Genres []struct {
		Name string `json:"name"`
	} `json:"genres"`
	Summary      string     `json:"summary"`
	Rating       float64    `json:"rating"`
	SimilarGames []igdbGame `json:"similar_games"`
}

const igdbGameFields = "id, name, first_release_date, cover.image_id, genres.name, summary, rating"

func (g *IGDBGateway) query(ctx context.Context, endpoint, body string) ([]igdbGame, error) {
	token, err := g.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.BaseURL+"/"+endpoint, strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Client-ID", g.clientID)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "text/plain")

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("igdb http %d: %s", resp.StatusCode, string(raw))
	}

	var rows []igdbGame
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("igdb decode: %w", err)
	}
	return rows, nil
}

func (g *IGDBGateway) mapGame(row igdbGame) *types.MediaItem {
	year := 0
	if row.FirstReleaseDate > 0 {
		year = time.Unix(row.FirstReleaseDate, 0).UTC().Year()
	}
	genres := make([]string, 0, len(row.Genres))
	for _, gn := range row.Genres {
		if gn.Name != "" {
			genres = append(genres, gn.Name)
		}
	}
	item := &types.MediaItem{
		Source:   "igdb",
		SourceID: fmt.Sprintf("%d", row.ID),
		Category: types.CategoryGame,
		Title:    row.Name,
		Year:     year,
		Genres:   datatypes.JSONSlice[string](genres),
		Summary:  row.Summary,
	}
	if row.Rating > 0 {
		// IGDB rates 0-100; normalize to the 0-10 scale the other catalogs use.
		item.Rating = row.Rating / 10
	}
	if row.Cover.ImageID != "" {
		item.ImageURL = "https://images.igdb.com/igdb/image/upload/t_cover_big/" + row.Cover.ImageID + ".jpg"
	}
	return item
}

func escapeIGDB(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

func (g *IGDBGateway) Search(ctx context.Context, query string) ([]*types.MediaItem, error) {
	if !g.configured() {
		return nil, nil
	}
	body := fmt.Sprintf(`fields %s; search "%s"; where version_parent = null; limit 25;`,
		igdbGameFields, escapeIGDB(query))
	rows, err := g.query(ctx, "games", body)
	if err != nil {
		return nil, err
	}
	out := make([]*types.MediaItem, 0, len(rows))
	for _, row := range rows {
		out = append(out, g.mapGame(row))
	}
	return out, nil
}

func (g *IGDBGateway) GetSimilar(ctx context.Context, sourceID string, _ types.Category) ([]*types.MediaItem, error) {
	if !g.configured() {
		return nil, nil
	}
	fields := "similar_games.id, similar_games.name, similar_games.first_release_date, similar_games.cover.image_id, similar_games.genres.name, similar_games.summary, similar_games.rating"
	body := fmt.Sprintf(`fields %s; where id = %s; limit 1;`, fields, escapeIGDB(sourceID))
	rows, err := g.query(ctx, "games", body)
	if err != nil {
		return nil, err
	}
	var out []*types.MediaItem
	for _, row := range rows {
		for _, sim := range row.SimilarGames {
			if sim.Name == "" {
				continue
			}
			out = append(out, g.mapGame(sim))
		}
	}
	return out, nil
}

func (g *IGDBGateway) Discover(ctx context.Context, genres []string) ([]*types.MediaItem, error) {
	if !g.configured() {
		return nil, nil
	}
	var out []*types.MediaItem
	for _, term := range genres {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		body := fmt.Sprintf(`fields %s; search "%s"; limit 20;`, igdbGameFields, escapeIGDB(term))
		rows, err := g.query(ctx, "games", body)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			out = append(out, g.mapGame(row))
		}
	}
	return out, nil
}

func (g *IGDBGateway) Popular(ctx context.Context) (map[types.Category][]*types.MediaItem, error) {
	if !g.configured() {
		return map[types.Category][]*types.MediaItem{}, nil
	}
	body := fmt.Sprintf(`fields %s, rating_count; where rating_count != null & rating_count > 100; sort rating_count desc; limit 40;`, igdbGameFields)
	rows, err := g.query(ctx, "games", body)
	if err != nil {
		return nil, err
	}
	if len(rows) > 20 {
		rows = rows[:20]
	}
	pool := make([]*types.MediaItem, 0, len(rows))
	for _, row := range rows {
		pool = append(pool, g.mapGame(row))
	}
	return map[types.Category][]*types.MediaItem{types.CategoryGame: pool}, nil
}
