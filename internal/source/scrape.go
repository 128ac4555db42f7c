package source

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"audiohub/pkg/models"
)

// noResultsPrefix opens the heading of the storefront's search
// fallback page. An author id that does not resolve renders that page
// with a 200, so absence has to be detected by heading text, not by
// the other fields coming up empty.
const noResultsPrefix = "Showing results"

// ScrapedBook is the normalized output of the scraped product page:
// the combined genre+tag list, in page order. Transient, never
// persisted.
type ScrapedBook struct {
	Genres []models.Genre
}

// ScrapeClient fetches rendered storefront pages. Like the API origin,
// the scrape origin carries no region suffix.
type ScrapeClient struct {
	origin  string
	fetcher *fetcher
	log     zerolog.Logger
}

func NewScrapeClient(origin string, timeout time.Duration, log zerolog.Logger) *ScrapeClient {
	return &ScrapeClient{
		origin:  origin,
		fetcher: newFetcher("scrape", timeout),
		log:     log,
	}
}

func (c *ScrapeClient) fetchPage(ctx context.Context, asin, path, region string) (*goquery.Document, error) {
	url := fmt.Sprintf("%s/%s/%s", regionOrigin(c.origin, region), path, asin)
	body, err := c.fetcher.get(ctx, asin, url)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &models.ValidationError{ASIN: asin, Field: "html"}
	}
	return doc, nil
}

// FetchBookPage fetches the rendered product page for one book.
func (c *ScrapeClient) FetchBookPage(ctx context.Context, asin, region string) (*goquery.Document, error) {
	return c.fetchPage(ctx, asin, "pd", region)
}

// FetchAuthorPage fetches the rendered author profile page.
func (c *ScrapeClient) FetchAuthorPage(ctx context.Context, asin, region string) (*goquery.Document, error) {
	return c.fetchPage(ctx, asin, "author", region)
}

// NormalizeBookPage extracts genres from the category links and tags
// from the chip-group links, in that order.
func (c *ScrapeClient) NormalizeBookPage(asin string, doc *goquery.Document) (*ScrapedBook, error) {
	genres := c.collectGenres(asin, doc.Find("li.categoriesLabel a"), models.GenreTypeGenre)
	tags := c.collectGenres(asin, doc.Find("div.bc-chip-group a"), models.GenreTypeTag)
	return &ScrapedBook{Genres: append(genres, tags...)}, nil
}

// NormalizeAuthorPage extracts the author profile from the rendered
// page. The search fallback heading counts as NotFound.
func (c *ScrapeClient) NormalizeAuthorPage(asin, region string, doc *goquery.Document) (*models.Author, error) {
	name := strings.TrimSpace(doc.Find("h1.bc-text-bold").First().Text())
	if name == "" {
		heading := strings.TrimSpace(doc.Find("h1").First().Text())
		if strings.HasPrefix(heading, noResultsPrefix) {
			return nil, &models.NotFoundError{ASIN: asin}
		}
		return nil, &models.ValidationError{ASIN: asin, Field: "name"}
	}

	author := &models.Author{
		ASIN:   asin,
		Name:   name,
		Region: region,
	}

	author.Description = strings.TrimSpace(doc.Find("div.bc-expander-content").Children().Text())
	author.Genres = c.collectGenres(asin,
		doc.Find("div.contentPositionClass div.bc-box a.bc-color-link"), models.GenreTypeGenre)

	// Ask for a slightly larger picture than the postage-stamp default.
	if src, ok := doc.Find("img.author-image-outline").First().Attr("src"); ok {
		author.Image = strings.Replace(src, "__01_SX120_CR0,0,120,120__.", "", 1)
	}

	return author, nil
}

// collectGenres converts a selection of category anchors into genre
// entries. Anchors without an href carry no usable id and are skipped
// with a logged event.
func (c *ScrapeClient) collectGenres(asin string, sel *goquery.Selection, typ string) []models.Genre {
	var out []models.Genre
	sel.Each(func(i int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			c.log.Debug().Str("asin", asin).Int("index", i).Msg("genre link without href")
			return
		}
		id := genreASINFromURL(href)
		name := strings.TrimSpace(a.Text())
		if id == "" || name == "" {
			return
		}
		out = append(out, models.Genre{ASIN: id, Name: name, Type: typ})
	})
	return out
}
