// Package reconcile merges the partial records produced by the two
// upstream sources into one validated canonical entity.
//
// The merge is a pure function over typed partials: source fetching and
// failure isolation happen in the caller, which passes nil for any
// source that was unavailable.
package reconcile

import (
	"audiohub/internal/source"
	"audiohub/pkg/models"
)

// deliveryTypeMultiPart marks a multi-part work; only those carry a
// secondary series.
const deliveryTypeMultiPart = "MultiPartBook"

// deliveryTypePodcast marks podcast parents, which carry no series at
// all even when the payload lists one.
const deliveryTypePodcast = "PodcastParent"

// Book merges the API and scrape partials for one book.
//
// The API value wins every overlapping field; the scraped page only
// supplies what the API is structurally incapable of providing. Genre
// sets are substituted atomically: the scrape list is used wholesale
// when the API yields none, and partial genre sets are never mixed.
func Book(asin, region string, api *source.APIBook, scraped *source.ScrapedBook) (*models.Book, error) {
	if api == nil && scraped == nil {
		return nil, &models.ReconciliationError{ASIN: asin}
	}

	var book models.Book
	if api != nil {
		book = api.Book

		book.Genres = FlattenLadders(api.Ladders)
		if len(book.Genres) == 0 && scraped != nil {
			book.Genres = DedupeGenres(scraped.Genres)
		}

		primary, secondary := PickSeries(api.Series, api.PublicationName, api.ContentDeliveryType)
		book.SeriesPrimary = primary
		book.SeriesSecondary = secondary
	} else {
		book.ASIN = asin
		book.Region = region
		book.Genres = DedupeGenres(scraped.Genres)
	}

	if err := models.Validate(asin, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// Author builds the canonical author from the scraped profile, the
// only source that carries author data.
func Author(asin string, scraped *models.Author) (*models.Author, error) {
	if scraped == nil {
		return nil, &models.ReconciliationError{ASIN: asin}
	}

	author := *scraped
	author.Genres = DedupeGenres(author.Genres)

	if err := models.Validate(asin, &author); err != nil {
		return nil, err
	}
	return &author, nil
}

// Chapters validates the normalized chapter record.
func Chapters(asin string, chapter *models.Chapter) (*models.Chapter, error) {
	if chapter == nil {
		return nil, &models.ReconciliationError{ASIN: asin}
	}
	if err := models.Validate(asin, chapter); err != nil {
		return nil, err
	}
	return chapter, nil
}

// FlattenLadders converts ordered parent→child category chains into a
// classified genre list: the first rung of each ladder is a genre,
// every other rung a tag. The combined list is deduplicated by name,
// first occurrence wins, so a name seen as a genre never reappears as
// a tag.
func FlattenLadders(ladders [][]source.Category) []models.Genre {
	var combined []models.Genre
	for _, ladder := range ladders {
		if len(ladder) == 0 {
			continue
		}
		head := ladder[0]
		combined = append(combined, models.Genre{ASIN: head.ASIN, Name: head.Name, Type: models.GenreTypeGenre})
	}
	for _, ladder := range ladders {
		if len(ladder) == 0 {
			continue
		}
		for _, cat := range ladder[1:] {
			combined = append(combined, models.Genre{ASIN: cat.ASIN, Name: cat.Name, Type: models.GenreTypeTag})
		}
	}
	return DedupeGenres(combined)
}

// DedupeGenres collapses duplicate names to one entry, keeping
// first-seen order.
func DedupeGenres(genres []models.Genre) []models.Genre {
	if len(genres) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(genres))
	out := make([]models.Genre, 0, len(genres))
	for _, g := range genres {
		if _, ok := seen[g.Name]; ok {
			continue
		}
		seen[g.Name] = struct{}{}
		out = append(out, g)
	}
	return out
}

// PickSeries disambiguates the primary and secondary series.
//
// The series whose name equals the declared publication name is
// primary; a single series is primary unconditionally. A second,
// non-matching series becomes secondary only on multi-part works.
// Podcast parents never carry series.
func PickSeries(series []models.SeriesReference, publicationName, deliveryType string) (primary, secondary *models.SeriesReference) {
	if len(series) == 0 || deliveryType == deliveryTypePodcast {
		return nil, nil
	}

	if len(series) == 1 {
		s := series[0]
		return &s, nil
	}

	for i := range series {
		s := series[i]
		if publicationName != "" && s.Name == publicationName {
			if primary == nil {
				primary = &s
			}
		} else if deliveryType == deliveryTypeMultiPart && secondary == nil {
			secondary = &s
		}
	}
	return primary, secondary
}
