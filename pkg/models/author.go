package models

// Author is the canonical author profile. The catalog API does not
// expose author profiles, so every field comes from the scraped page.
type Author struct {
	ASIN        string  `json:"asin" validate:"required,asin"`
	Description string  `json:"description,omitempty"`
	Genres      []Genre `json:"genres,omitempty" validate:"omitempty,dive"`
	Image       string  `json:"image,omitempty"`
	Name        string  `json:"name" validate:"required"`
	Region      string  `json:"region" validate:"required,region"`
}
