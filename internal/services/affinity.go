package services

import (
	"github.com/mediabridge/mediabridge-backend/internal/types"
)

// crossAffinity maps a favorite's category and genre to small score bumps
// for candidate items in other categories. Built once, read-only afterward.
// The numbers are deliberately light-handed; genre overlap and year
// proximity stay the dominant signals.
var crossAffinity = map[types.Category]map[string]map[types.Category]float64{
	types.CategoryAnime: {
		"action":  {types.CategoryGame: 0.15, types.CategoryFilm: 0.1},
		"fantasy": {types.CategoryGame: 0.2, types.CategoryBook: 0.15},
		"sci-fi":  {types.CategoryGame: 0.15, types.CategoryFilm: 0.1},
	},
	types.CategoryGame: {
		"action":    {types.CategoryFilm: 0.1, types.CategoryAnime: 0.1},
		"rpg":       {types.CategoryBook: 0.15, types.CategoryAnime: 0.1},
		"adventure": {types.CategoryFilm: 0.1, types.CategoryBook: 0.1},
	},
	types.CategoryFilm: {
		"sci-fi":  {types.CategoryBook: 0.1, types.CategoryGame: 0.1},
		"fantasy": {types.CategoryBook: 0.15, types.CategoryGame: 0.1},
	},
	types.CategoryTV: {
		"crime":   {types.CategoryBook: 0.1},
		"fantasy": {types.CategoryBook: 0.1, types.CategoryGame: 0.1},
	},
	types.CategoryBook: {
		"fantasy": {types.CategoryGame: 0.2, types.CategoryAnime: 0.1},
		"sci-fi":  {types.CategoryGame: 0.15, types.CategoryFilm: 0.1},
	},
}

func crossBonus(favoriteCategory types.Category, favoriteGenre string, candidateCategory types.Category) float64 {
	byGenre, ok := crossAffinity[favoriteCategory]
	if !ok {
		return 0
	}
	byCategory, ok := byGenre[favoriteGenre]
	if !ok {
		return 0
	}
	return byCategory[candidateCategory]
}
