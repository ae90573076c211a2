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

// tmdbGenres maps TMDB numeric genre ids to display names so genres compare
// across providers by name, not provider-local id. Covers both the movie and
// the TV genre lists.
var tmdbGenres = map[int]string{
	28:    "Action",
	12:    "Adventure",
	16:    "Animation",
	35:    "Comedy",
	80:    "Crime",
	99:    "Documentary",
	18:    "Drama",
	10751: "Family",
	14:    "Fantasy",
	36:    "History",
	27:    "Horror",
	10402: "Music",
	9648:  "Mystery",
	10749: "Romance",
	878:   "Sci-Fi",
	10770: "TV Movie",
	53:    "Thriller",
	10752: "War",
	37:    "Western",
	10759: "Action & Adventure",
	10762: "Kids",
	10763: "News",
	10764: "Reality",
	10765: "Sci-Fi & Fantasy",
	10766: "Soap",
	10767: "Talk",
	10768: "War & Politics",
}

var tmdbGenreIDs = func() map[string]int {
	m := make(map[string]int, len(tmdbGenres))
	for id, name := range tmdbGenres {
		m[strings.ToLower(name)] = id
	}
	return m
}()

const tmdbAnimationGenreID = 16

type TMDBGateway struct {
	log     *logger.Logger
	apiKey  string
	BaseURL string
	http    *http.Client
}

func NewTMDBGateway(log *logger.Logger) *TMDBGateway {
	gwLog := log.With("client", "TMDBGateway")
	apiKey := strings.TrimSpace(os.Getenv("TMDB_API_KEY"))
	if apiKey == "" {
		gwLog.Warn("TMDB_API_KEY not set, film/tv/anime results will be empty")
	}
	return &TMDBGateway{
		log:     gwLog,
		apiKey:  apiKey,
		BaseURL: "https://api.themoviedb.org/3",
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type tmdbListItem struct {
	ID            int     `json:"id"`
	Title         string  `json:"title"`
	Name          string  `json:"name"`
	ReleaseDate   string  `json:"release_date"`
	FirstAirDate  string  `json:"first_air_date"`
	PosterPath    string  `json:"poster_path"`
	BackdropPath  string  `json:"backdrop_path"`
	Overview      string  `json:"overview"`
	VoteAverage   float64 `json:"vote_average"`
	GenreIDs      []int   `json:"genre_ids"`
	OriginCountry []string `json:"origin_country"`
}

type tmdbListResponse struct {
	Results []tmdbListItem `json:"results"`
}

func (g *TMDBGateway) fetch(ctx context.Context, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", g.apiKey)
	params.Set("language", "en-US")

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
		return fmt.Errorf("tmdb http %d: %s", resp.StatusCode, string(raw))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("tmdb decode: %w", err)
	}
	return nil
}

func (g *TMDBGateway) mapItem(it tmdbListItem, category types.Category) *types.MediaItem {
	title := it.Title
	if title == "" {
		title = it.Name
	}
	if title == "" {
		title = "Untitled"
	}

	date := it.ReleaseDate
	if date == "" {
		date = it.FirstAirDate
	}
	year := 0
	if len(date) >= 4 {
		if y, err := strconv.Atoi(date[:4]); err == nil {
			year = y
		}
	}

	genres := make([]string, 0, len(it.GenreIDs))
	for _, id := range it.GenreIDs {
		if name, ok := tmdbGenres[id]; ok {
			genres = append(genres, name)
		}
	}

	item := &types.MediaItem{
		Source:   "tmdb",
		SourceID: strconv.Itoa(it.ID),
		Category: category,
		Title:    title,
		Year:     year,
		Genres:   datatypes.JSONSlice[string](genres),
		Summary:  it.Overview,
		Rating:   it.VoteAverage,
	}
	if it.PosterPath != "" {
		item.ImageURL = "https://image.tmdb.org/t/p/w500" + it.PosterPath
	}
	if it.BackdropPath != "" {
		item.BackdropURL = "https://image.tmdb.org/t/p/w780" + it.BackdropPath
	}
	return item
}

// tvCategory classifies a TMDB TV row as anime when it originates in Japan
// or carries the animation genre.
func tvCategory(it tmdbListItem) types.Category {
	for _, c := range it.OriginCountry {
		if c == "JP" {
			return types.CategoryAnime
		}
	}
	for _, id := range it.GenreIDs {
		if id == tmdbAnimationGenreID {
			return types.CategoryAnime
		}
	}
	return types.CategoryTV
}

func (g *TMDBGateway) Search(ctx context.Context, query string) ([]*types.MediaItem, error) {
	if g.apiKey == "" {
		return nil, nil
	}

	var movies, tv tmdbListResponse
	params := url.Values{"query": {query}, "include_adult": {"false"}, "page": {"1"}}
	if err := g.fetch(ctx, "/search/movie", cloneValues(params), &movies); err != nil {
		return nil, err
	}
	if err := g.fetch(ctx, "/search/tv", cloneValues(params), &tv); err != nil {
		return nil, err
	}

	out := make([]*types.MediaItem, 0, len(movies.Results)+len(tv.Results))
	for _, r := range movies.Results {
		out = append(out, g.mapItem(r, types.CategoryFilm))
	}
	for _, r := range tv.Results {
		out = append(out, g.mapItem(r, tvCategory(r)))
	}
	return out, nil
}

func (g *TMDBGateway) GetSimilar(ctx context.Context, sourceID string, category types.Category) ([]*types.MediaItem, error) {
	if g.apiKey == "" {
		return nil, nil
	}

	path := "/movie/" + url.PathEscape(sourceID) + "/recommendations"
	if category == types.CategoryTV || category == types.CategoryAnime {
		path = "/tv/" + url.PathEscape(sourceID) + "/recommendations"
	}

	var resp tmdbListResponse
	if err := g.fetch(ctx, path, url.Values{"page": {"1"}}, &resp); err != nil {
		return nil, err
	}

	out := make([]*types.MediaItem, 0, len(resp.Results))
	for _, r := range resp.Results {
		if category == types.CategoryFilm {
			out = append(out, g.mapItem(r, types.CategoryFilm))
		} else {
			out = append(out, g.mapItem(r, tvCategory(r)))
		}
	}
	return out, nil
}

// Discover browses by genre. Terms matching a TMDB genre go through the
// discover endpoint; anything else (theme tags like "cyberpunk") falls back
// to free-text search, which TMDB handles better than keyword plumbing.
func (g *TMDBGateway) Discover(ctx context.Context, genres []string) ([]*types.MediaItem, error) {
	if g.apiKey == "" {
		return nil, nil
	}

	var genreIDs []string
	var freeText []string
	for _, term := range genres {
		if id, ok := tmdbGenreIDs[strings.ToLower(strings.TrimSpace(term))]; ok {
			genreIDs = append(genreIDs, strconv.Itoa(id))
		} else if strings.TrimSpace(term) != "" {
			freeText = append(freeText, strings.TrimSpace(term))
		}
	}

	var out []*types.MediaItem
	if len(genreIDs) > 0 {
		params := url.Values{
			"with_genres": {strings.Join(genreIDs, ",")},
			"sort_by":     {"popularity.desc"},
			"page":        {"1"},
		}
		var movies, tv tmdbListResponse
		if err := g.fetch(ctx, "/discover/movie", cloneValues(params), &movies); err != nil {
			return nil, err
		}
		if err := g.fetch(ctx, "/discover/tv", cloneValues(params), &tv); err != nil {
			return nil, err
		}
		for _, r := range movies.Results {
			out = append(out, g.mapItem(r, types.CategoryFilm))
		}
		for _, r := range tv.Results {
			out = append(out, g.mapItem(r, tvCategory(r)))
		}
	}

	for _, term := range freeText {
		found, err := g.Search(ctx, term)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	return out, nil
}

func (g *TMDBGateway) Popular(ctx context.Context) (map[types.Category][]*types.MediaItem, error) {
	if g.apiKey == "" {
		return map[types.Category][]*types.MediaItem{}, nil
	}

	var moviePop, tvPop, animeDiscover tmdbListResponse
	if err := g.fetch(ctx, "/movie/popular", url.Values{"page": {"1"}}, &moviePop); err != nil {
		return nil, err
	}
	if err := g.fetch(ctx, "/tv/popular", url.Values{"page": {"1"}}, &tvPop); err != nil {
		return nil, err
	}
	animeParams := url.Values{
		"with_genres": {strconv.Itoa(tmdbAnimationGenreID)},
		"sort_by":     {"popularity.desc"},
		"page":        {"1"},
	}
	if err := g.fetch(ctx, "/discover/tv", animeParams, &animeDiscover); err != nil {
		return nil, err
	}

	pools := map[types.Category][]*types.MediaItem{}
	for _, r := range capList(moviePop.Results, 20) {
		pools[types.CategoryFilm] = append(pools[types.CategoryFilm], g.mapItem(r, types.CategoryFilm))
	}
	for _, r := range capList(tvPop.Results, 20) {
		pools[types.CategoryTV] = append(pools[types.CategoryTV], g.mapItem(r, types.CategoryTV))
	}
	for _, r := range capList(animeDiscover.Results, 20) {
		pools[types.CategoryAnime] = append(pools[types.CategoryAnime], g.mapItem(r, types.CategoryAnime))
	}
	return pools, nil
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}

func capList(items []tmdbListItem, n int) []tmdbListItem {
	if len(items) > n {
		return items[:n]
	}
	return items
}
