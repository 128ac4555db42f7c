package source

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/goccy/go-json"

	"audiohub/pkg/models"
)

// FetchChapters fetches the raw chapter metadata for one book from the
// catalog content endpoint.
func (c *APIClient) FetchChapters(ctx context.Context, asin, region string) (*chapterInfoPayload, error) {
	url := fmt.Sprintf("%s/1.0/content/%s/metadata?response_groups=chapter_info",
		regionOrigin(c.origin, region), asin)

	body, err := c.fetcher.get(ctx, asin, url)
	if err != nil {
		return nil, err
	}

	var env chapterEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &models.ValidationError{ASIN: asin, Field: "content_metadata"}
	}
	return env.ContentMetadata.ChapterInfo, nil
}

type chapterEnvelope struct {
	ContentMetadata struct {
		ChapterInfo *chapterInfoPayload `json:"chapter_info"`
	} `json:"content_metadata"`
}

type chapterInfoPayload struct {
	BrandIntroDurationMs int `json:"brandIntroDurationMs"`
	BrandOutroDurationMs int `json:"brandOutroDurationMs"`
	Chapters             []struct {
		LengthMs       int    `json:"length_ms"`
		StartOffsetMs  int    `json:"start_offset_ms"`
		StartOffsetSec int    `json:"start_offset_sec"`
		Title          string `json:"title"`
	} `json:"chapters"`
	IsAccurate       bool `json:"is_accurate"`
	RuntimeLengthMs  int  `json:"runtime_length_ms"`
	RuntimeLengthSec int  `json:"runtime_length_sec"`
}

// NormalizeChapters converts raw chapter metadata into the canonical
// chapter record. Titles that upstream trims down to a bare number are
// rewritten as "Chapter N".
func NormalizeChapters(asin, region string, info *chapterInfoPayload) (*models.Chapter, error) {
	if info == nil || len(info.Chapters) == 0 {
		return nil, &models.NotFoundError{ASIN: asin}
	}

	entries := make([]models.ChapterEntry, 0, len(info.Chapters))
	for _, ch := range info.Chapters {
		entries = append(entries, models.ChapterEntry{
			LengthMs:       ch.LengthMs,
			StartOffsetMs:  ch.StartOffsetMs,
			StartOffsetSec: ch.StartOffsetSec,
			Title:          cleanChapterTitle(ch.Title),
		})
	}

	return &models.Chapter{
		ASIN:                 asin,
		BrandIntroDurationMs: info.BrandIntroDurationMs,
		BrandOutroDurationMs: info.BrandOutroDurationMs,
		Chapters:             entries,
		IsAccurate:           info.IsAccurate,
		Region:               region,
		RuntimeLengthMs:      info.RuntimeLengthMs,
		RuntimeLengthSec:     info.RuntimeLengthSec,
	}, nil
}

func cleanChapterTitle(title string) string {
	cleaned := strings.TrimSuffix(strings.TrimSpace(title), ".")
	if cleaned == "" {
		return cleaned
	}
	for _, r := range cleaned {
		if !unicode.IsDigit(r) {
			return cleaned
		}
	}
	return "Chapter " + cleaned
}
