package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/mediabridge/mediabridge-backend/internal/logger"
	"github.com/mediabridge/mediabridge-backend/internal/types"
)

type GBooksGateway struct {
	log     *logger.Logger
	apiKey  string
	BaseURL string
	http    *http.Client
}

func NewGBooksGateway(log *logger.Logger) *GBooksGateway {
	gwLog := log.With("client", "GBooksGateway")
	apiKey := strings.TrimSpace(os.Getenv("GOOGLE_BOOKS_API_KEY"))
	if apiKey == "" {
		gwLog.Warn("GOOGLE_BOOKS_API_KEY not set, book results will be empty")
	}
	return &GBooksGateway{
		log:     gwLog,
		apiKey:  apiKey,
		BaseURL: "https://www.googleapis.com/books/v1",
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type gbooksVolume struct {
	ID         string `json:"id"`
	VolumeInfo struct {
		Title         string   `json:"title"`
		Authors       []string `json:"authors"`
		PublishedDate string   `json:"publishedDate"`
		Description   string   `json:"description"`
		Categories    []string `json:"categories"`
		AverageRating float64  `json:"averageRating"`
		ImageLinks    struct {
			Thumbnail      string `json:"thumbnail"`
			SmallThumbnail string `json:"smallThumbnail"`
		} `json:"imageLinks"`
	} `json:"volumeInfo"`
}

type gbooksListResponse struct {
	Items []gbooksVolume `json:"items"`
}

func (g *GBooksGateway) fetch(ctx context.Context, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, "GET", g.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gbooks http %d: %s", resp.StatusCode, string(raw))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("gbooks decode: %w", err)
	}
	return nil
}

// Some thumbnails come back as http://; force https.
func httpsThumb(u string) string {
	if strings.HasPrefix(strings.ToLower(u), "http://") {
		return "https://" + u[len("http://"):]
	}
	return u
}

func (g *GBooksGateway) mapVolume(v gbooksVolume) *types.MediaItem {
	info := v.VolumeInfo
	title := info.Title
	if title == "" {
		title = "Untitled"
	}
	year := 0
	if len(info.PublishedDate) >= 4 {
		if y, err := strconv.Atoi(info.PublishedDate[:4]); err == nil {
			year = y
		}
	}
	thumb := info.ImageLinks.Thumbnail
	if thumb == "" {
		thumb = info.ImageLinks.SmallThumbnail
	}
	return &types.MediaItem{
		Source:   "gbooks",
		SourceID: v.ID,
		Category: types.CategoryBook,
		Title:    title,
		Year:     year,
		Genres:   datatypes.JSONSlice[string](info.Categories),
		Summary:  info.Description,
		Rating:   info.AverageRating,
		Creators: datatypes.JSONSlice[string](info.Authors),
		ImageURL: httpsThumb(thumb),
	}
}

func (g *GBooksGateway) Search(ctx context.Context, query string) ([]*types.MediaItem, error) {
	if g.apiKey == "" {
		return nil, nil
	}
	var resp gbooksListResponse
	params := url.Values{"q": {query}, "maxResults": {"25"}}
	if err := g.fetch(ctx, "/volumes", params, &resp); err != nil {
		return nil, err
	}
	out := make([]*types.MediaItem, 0, len(resp.Items))
	for _, v := range resp.Items {
		out = append(out, g.mapVolume(v))
	}
	return out, nil
}

// GetSimilar looks up the seed volume, takes its first subject category, and
// browses that subject. Google Books has no native related-items endpoint.
func (g *GBooksGateway) GetSimilar(ctx context.Context, sourceID string, _ types.Category) ([]*types.MediaItem, error) {
	if g.apiKey == "" {
		return nil, nil
	}
	var seed gbooksVolume
	if err := g.fetch(ctx, "/volumes/"+url.PathEscape(sourceID), nil, &seed); err != nil {
		return nil, err
	}
	if len(seed.VolumeInfo.Categories) == 0 {
		return nil, nil
	}
	items, err := g.Discover(ctx, seed.VolumeInfo.Categories[:1])
	if err != nil {
		return nil, err
	}
	out := items[:0]
	for _, item := range items {
		if item.SourceID != sourceID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (g *GBooksGateway) Discover(ctx context.Context, genres []string) ([]*types.MediaItem, error) {
	if g.apiKey == "" {
		return nil, nil
	}
	var out []*types.MediaItem
	for _, term := range genres {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		var resp gbooksListResponse
		params := url.Values{
			"q":          {fmt.Sprintf("subject:%q", term)},
			"maxResults": {"20"},
			"orderBy":    {"relevance"},
		}
		if err := g.fetch(ctx, "/volumes", params, &resp); err != nil {
			return nil, err
		}
		for _, v := range resp.Items {
			out = append(out, g.mapVolume(v))
		}
	}
	return out, nil
}

func (g *GBooksGateway) Popular(ctx context.Context) (map[types.Category][]*types.MediaItem, error) {
	if g.apiKey == "" {
		return map[types.Category][]*types.MediaItem{}, nil
	}
	var resp gbooksListResponse
	params := url.Values{
		"q":          {"subject:fiction"},
		"maxResults": {"40"},
		"orderBy":    {"relevance"},
	}
	if err := g.fetch(ctx, "/volumes", params, &resp); err != nil {
		return nil, err
	}
	items := resp.Items
	if len(items) > 20 {
		items = items[:20]
	}
	pool := make([]*types.MediaItem, 0, len(items))
	for _, v := range items {
		pool = append(pool, g.mapVolume(v))
	}
	return map[types.Category][]*types.MediaItem{types.CategoryBook: pool}, nil
}
