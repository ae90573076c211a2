package types

// Category is the media vertical an item belongs to. The five values are
// fixed; every provider maps its native catalog into one of them.
type Category string

const (
	CategoryFilm  Category = "film"
	CategoryTV    Category = "tv"
	CategoryAnime Category = "anime"
	CategoryGame  Category = "game"
	CategoryBook  Category = "book"
)

func AllCategories() []Category {
	return []Category{CategoryFilm, CategoryTV, CategoryAnime, CategoryGame, CategoryBook}
}

func (c Category) Valid() bool {
	switch c {
	case CategoryFilm, CategoryTV, CategoryAnime, CategoryGame, CategoryBook:
		return true
	}
	return false
}
