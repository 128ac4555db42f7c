package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/k3a/html2text"
	"github.com/rs/zerolog"

	"audiohub/pkg/models"
)

const apiProductsPath = "1.0/catalog/products"

// responseGroups is the fixed parameter list sent with every catalog
// API request.
var responseGroups = []string{
	"category_ladders",
	"contributors",
	"product_desc",
	"product_extended_attrs",
	"product_attrs",
	"media",
	"rating",
	"series",
}

// Category is one rung of a category ladder.
type Category struct {
	ASIN string
	Name string
}

// APIBook is the normalized-but-incomplete output of the catalog API
// for one book. Transient: never persisted. Ladders, PublicationName
// and ContentDeliveryType feed the reconciler's genre and series rules.
type APIBook struct {
	Book                models.Book
	Ladders             [][]Category
	PublicationName     string
	ContentDeliveryType string
	Series              []models.SeriesReference
}

// APIClient fetches the vendor catalog API. The origin carries no
// region suffix; each request appends the marketplace TLD.
type APIClient struct {
	origin  string
	fetcher *fetcher
	log     zerolog.Logger
}

func NewAPIClient(origin string, timeout time.Duration, log zerolog.Logger) *APIClient {
	return &APIClient{
		origin:  origin,
		fetcher: newFetcher("catalog api", timeout),
		log:     log,
	}
}

// Raw payload shape of the catalog product envelope.
type productEnvelope struct {
	Product productPayload `json:"product"`
}

type productPayload struct {
	ASIN            string          `json:"asin"`
	Authors         []personPayload `json:"authors"`
	CategoryLadders []struct {
		Ladder []categoryPayload `json:"ladder"`
	} `json:"category_ladders"`
	ContentDeliveryType  string            `json:"content_delivery_type"`
	FormatType           string            `json:"format_type"`
	IssueDate            string            `json:"issue_date"`
	Language             string            `json:"language"`
	MerchandisingSummary string            `json:"merchandising_summary"`
	Narrators            []personPayload   `json:"narrators"`
	ProductImages        map[string]string `json:"product_images"`
	PublicationName      string            `json:"publication_name"`
	PublisherName        string            `json:"publisher_name"`
	PublisherSummary     string            `json:"publisher_summary"`
	Rating               *ratingPayload    `json:"rating"`
	ReleaseDate          string            `json:"release_date"`
	RuntimeLengthMin     int               `json:"runtime_length_min"`
	Series               []seriesPayload   `json:"series"`
	Subtitle             string            `json:"subtitle"`
	Title                string            `json:"title"`
}

type personPayload struct {
	ASIN string `json:"asin"`
	Name string `json:"name"`
}

type categoryPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ratingPayload struct {
	OverallDistribution struct {
		DisplayAverageRating json.Number `json:"display_average_rating"`
	} `json:"overall_distribution"`
}

type seriesPayload struct {
	ASIN     string `json:"asin"`
	Title    string `json:"title"`
	Sequence string `json:"sequence"`
}

func (c *APIClient) productURL(asin, region string) string {
	params := "response_groups=" + strings.Join(responseGroups, ",") + "&image_sizes=500,1024"
	return fmt.Sprintf("%s/%s/%s?%s", regionOrigin(c.origin, region), apiProductsPath, asin, params)
}

// FetchBook fetches the raw product payload for one book.
func (c *APIClient) FetchBook(ctx context.Context, asin, region string) (*productPayload, error) {
	body, err := c.fetcher.get(ctx, asin, c.productURL(asin, region))
	if err != nil {
		return nil, err
	}

	var env productEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &models.ValidationError{ASIN: asin, Field: "product"}
	}
	return &env.Product, nil
}

// NormalizeBook validates the raw product payload and converts it into
// the API partial. Shape mismatches surface the offending field;
// a missing delivery-type discriminator means the title is not sold in
// the requested marketplace at all.
func NormalizeBook(p *productPayload, region string, now time.Time) (*APIBook, error) {
	if p == nil || p.ASIN == "" {
		return nil, &models.ValidationError{Field: "asin"}
	}
	if p.ContentDeliveryType == "" {
		return nil, &models.RegionUnsupportedError{ASIN: p.ASIN, Region: region}
	}
	if p.Title == "" {
		return nil, &models.ValidationError{ASIN: p.ASIN, Field: "title"}
	}
	if len(p.Authors) == 0 {
		return nil, &models.ValidationError{ASIN: p.ASIN, Field: "authors"}
	}
	if p.Language == "" {
		return nil, &models.ValidationError{ASIN: p.ASIN, Field: "language"}
	}

	releaseDate, err := resolveReleaseDate(p, now)
	if err != nil {
		return nil, err
	}

	book := models.Book{
		ASIN:             p.ASIN,
		Authors:          mapPeople(p.Authors, true),
		Description:      strings.TrimSpace(html2text.HTML2Text(p.MerchandisingSummary)),
		FormatType:       p.FormatType,
		Image:            highResImage(p.ProductImages),
		Language:         p.Language,
		Narrators:        mapPeople(p.Narrators, false),
		PublisherName:    p.PublisherName,
		Region:           region,
		ReleaseDate:      releaseDate,
		RuntimeLengthMin: p.RuntimeLengthMin,
		Subtitle:         p.Subtitle,
		Summary:          p.PublisherSummary,
		Title:            p.Title,
	}
	if p.Rating != nil {
		book.Rating = p.Rating.OverallDistribution.DisplayAverageRating.String()
	}

	ladders := make([][]Category, 0, len(p.CategoryLadders))
	for _, l := range p.CategoryLadders {
		ladder := make([]Category, 0, len(l.Ladder))
		for _, cat := range l.Ladder {
			if cat.ID == "" || cat.Name == "" {
				continue
			}
			ladder = append(ladder, Category{ASIN: cat.ID, Name: cat.Name})
		}
		if len(ladder) > 0 {
			ladders = append(ladders, ladder)
		}
	}

	series := make([]models.SeriesReference, 0, len(p.Series))
	for _, s := range p.Series {
		if s.Title == "" {
			continue
		}
		series = append(series, models.SeriesReference{
			ASIN:     s.ASIN,
			Name:     s.Title,
			Position: s.Sequence,
		})
	}

	return &APIBook{
		Book:                book,
		Ladders:             ladders,
		PublicationName:     p.PublicationName,
		ContentDeliveryType: p.ContentDeliveryType,
		Series:              series,
	}, nil
}

// resolveReleaseDate picks release_date when present, issue_date
// otherwise. A date later than now is a data-integrity failure.
func resolveReleaseDate(p *productPayload, now time.Time) (time.Time, error) {
	raw := p.ReleaseDate
	if raw == "" {
		raw = p.IssueDate
	}
	if raw == "" {
		return time.Time{}, &models.ValidationError{ASIN: p.ASIN, Field: "release_date"}
	}

	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, &models.ValidationError{ASIN: p.ASIN, Field: "release_date"}
	}
	if parsed.After(now) {
		return time.Time{}, &models.FutureDateError{ASIN: p.ASIN, Date: parsed}
	}
	return parsed, nil
}

// highResImage prefers the 1024px rendition over 500px, stripping the
// resolution suffix so the CDN serves the full-size original.
func highResImage(images map[string]string) string {
	if img, ok := images["1024"]; ok && img != "" {
		return strings.Replace(img, "_SL1024_.", "", 1)
	}
	if img, ok := images["500"]; ok && img != "" {
		return strings.Replace(img, "_SL500_.", "", 1)
	}
	return ""
}

func mapPeople(people []personPayload, keepASIN bool) []models.Person {
	if len(people) == 0 {
		return nil
	}
	out := make([]models.Person, 0, len(people))
	for _, p := range people {
		person := models.Person{Name: p.Name}
		if keepASIN {
			person.ASIN = p.ASIN
		}
		out = append(out, person)
	}
	return out
}
