package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mediabridge/mediabridge-backend/internal/types"
)

func TestTVCategoryAnimeClassification(t *testing.T) {
	cases := []struct {
		name string
		item tmdbListItem
		want types.Category
	}{
		{
			name: "japanese_origin",
			item: tmdbListItem{Name: "Frieren", OriginCountry: []string{"JP"}, GenreIDs: []int{18}},
			want: types.CategoryAnime,
		},
		{
			name: "animation_genre",
			item: tmdbListItem{Name: "Arcane", OriginCountry: []string{"US"}, GenreIDs: []int{16, 18}},
			want: types.CategoryAnime,
		},
		{
			name: "plain_tv",
			item: tmdbListItem{Name: "Severance", OriginCountry: []string{"US"}, GenreIDs: []int{18, 9648}},
			want: types.CategoryTV,
		},
		{
			name: "no_signals",
			item: tmdbListItem{Name: "Unknown"},
			want: types.CategoryTV,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tvCategory(tc.item); got != tc.want {
				t.Fatalf("tvCategory(%s): want=%s got=%s", tc.item.Name, tc.want, got)
			}
		})
	}
}

func TestTMDBSearchMapsBothEndpoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search/movie":
			w.Write([]byte(`{"results":[{
				"id": 603,
				"title": "The Matrix",
				"release_date": "1999-03-31",
				"poster_path": "/matrix.jpg",
				"overview": "A hacker learns the truth.",
				"vote_average": 8.2,
				"genre_ids": [28, 878]
			}]}`))
		case "/search/tv":
			w.Write([]byte(`{"results":[{
				"id": 1429,
				"name": "Attack on Titan",
				"first_air_date": "2013-04-07",
				"origin_country": ["JP"],
				"genre_ids": [16, 10759]
			}]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.Write([]byte(`{"results":[]}`))
		}
	}))
	defer srv.Close()

	t.Setenv("TMDB_API_KEY", "key")
	gw := NewTMDBGateway(testLogger(t))
	gw.BaseURL = srv.URL

	items, err := gw.Search(context.Background(), "matrix")
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Search count: want=2 got=%d", len(items))
	}

	movie := items[0]
	if movie.Category != types.CategoryFilm || movie.SourceID != "603" || movie.Year != 1999 {
		t.Fatalf("movie mapping wrong: %+v", movie)
	}
	if len(movie.Genres) != 2 || movie.Genres[0] != "Action" || movie.Genres[1] != "Sci-Fi" {
		t.Fatalf("movie genres: got=%v", movie.Genres)
	}
	if movie.ImageURL != "https://image.tmdb.org/t/p/w500/matrix.jpg" {
		t.Fatalf("poster URL: got=%s", movie.ImageURL)
	}

	show := items[1]
	if show.Category != types.CategoryAnime {
		t.Fatalf("JP-origin show should classify as anime, got %s", show.Category)
	}
	if show.Year != 2013 || show.Title != "Attack on Titan" {
		t.Fatalf("tv mapping wrong: %+v", show)
	}
}

func TestTMDBDiscoverSplitsGenresAndFreeText(t *testing.T) {
	var discoverGenres []string
	var searchQueries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/discover/movie", "/discover/tv":
			discoverGenres = append(discoverGenres, r.URL.Query().Get("with_genres"))
		case "/search/movie", "/search/tv":
			searchQueries = append(searchQueries, r.URL.Query().Get("query"))
		}
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	t.Setenv("TMDB_API_KEY", "key")
	gw := NewTMDBGateway(testLogger(t))
	gw.BaseURL = srv.URL

	if _, err := gw.Discover(context.Background(), []string{"Sci-Fi", "cyberpunk"}); err != nil {
		t.Fatalf("Discover error: %v", err)
	}
	if len(discoverGenres) != 2 || discoverGenres[0] != "878" {
		t.Fatalf("known genre should route to discover with its id, got %v", discoverGenres)
	}
	if len(searchQueries) != 2 || searchQueries[0] != "cyberpunk" {
		t.Fatalf("unknown term should fall back to free-text search, got %v", searchQueries)
	}
}
