package models

// Chapter is the canonical chapter listing for one audiobook.
type Chapter struct {
	ASIN                 string         `json:"asin" validate:"required,asin"`
	BrandIntroDurationMs int            `json:"brandIntroDurationMs"`
	BrandOutroDurationMs int            `json:"brandOutroDurationMs"`
	Chapters             []ChapterEntry `json:"chapters" validate:"required,min=1,dive"`
	IsAccurate           bool           `json:"isAccurate"`
	Region               string         `json:"region" validate:"required,region"`
	RuntimeLengthMs      int            `json:"runtimeLengthMs"`
	RuntimeLengthSec     int            `json:"runtimeLengthSec"`
}

// ChapterEntry is a single chapter marker.
type ChapterEntry struct {
	LengthMs       int    `json:"lengthMs"`
	StartOffsetMs  int    `json:"startOffsetMs"`
	StartOffsetSec int    `json:"startOffsetSec"`
	Title          string `json:"title" validate:"required"`
}
