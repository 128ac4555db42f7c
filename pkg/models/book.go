package models

import "time"

// Book is the normalized, canonical form of an audiobook entry.
//
// Both upstream sources are mapped into this structure first,
// then we write to the store from this representation.
type Book struct {
	ASIN             string           `json:"asin" validate:"required,asin"`
	Authors          []Person         `json:"authors" validate:"required,min=1,dive"`
	Description      string           `json:"description"`
	FormatType       string           `json:"formatType,omitempty"`
	Genres           []Genre          `json:"genres,omitempty" validate:"omitempty,dive"`
	Image            string           `json:"image,omitempty"`
	Language         string           `json:"language" validate:"required"`
	Narrators        []Person         `json:"narrators,omitempty"`
	PublisherName    string           `json:"publisherName"`
	Rating           string           `json:"rating,omitempty"`
	Region           string           `json:"region" validate:"required,region"`
	ReleaseDate      time.Time        `json:"releaseDate" validate:"required"`
	RuntimeLengthMin int              `json:"runtimeLengthMin"`
	SeriesPrimary    *SeriesReference `json:"seriesPrimary,omitempty" validate:"omitempty"`
	SeriesSecondary  *SeriesReference `json:"seriesSecondary,omitempty" validate:"omitempty"`
	Subtitle         string           `json:"subtitle,omitempty"`
	Summary          string           `json:"summary"`
	Title            string           `json:"title" validate:"required"`
}

// Person is an author or narrator credit on a book.
// Narrators never carry an ASIN; authors usually do.
type Person struct {
	ASIN string `json:"asin,omitempty"`
	Name string `json:"name" validate:"required"`
}

// SeriesReference points a book at a series it belongs to.
// A book has at most one primary and one secondary series.
type SeriesReference struct {
	ASIN     string `json:"asin,omitempty"`
	Name     string `json:"name" validate:"required"`
	Position string `json:"position,omitempty"`
}
