package models

const (
	// GenreTypeGenre marks a root-of-ladder category.
	GenreTypeGenre = "genre"
	// GenreTypeTag marks every other category.
	GenreTypeTag = "tag"
)

// Genre is a single category attached to a book or author.
// Type is "genre" for root-of-ladder categories and "tag" for the rest.
type Genre struct {
	ASIN string `json:"asin" validate:"required"`
	Name string `json:"name" validate:"required"`
	Type string `json:"type" validate:"required,oneof=genre tag"`
}
