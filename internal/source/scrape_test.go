package source

import (
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audiohub/pkg/models"
)

const bookPageHTML = `
<html><body>
  <ul class="bc-list">
    <li class="categoriesLabel">
      Categories:
      <a href="/cat/18572091011?ref=a_pd">Children's Audiobooks</a>
      <a href="/cat/18580606011?ref=a_pd">Science Fiction &amp; Fantasy</a>
    </li>
  </ul>
  <div class="bc-chip-group">
    <a href="/cat/18572505011?ref=a_pd"><span>Family Life</span></a>
    <a href="/cat/18580607011?ref=a_pd"><span>Fantasy</span></a>
    <a><span>Sponsored</span></a>
  </div>
</body></html>`

const authorPageHTML = `
<html><body>
  <h1 class="bc-text-bold">J.K. Rowling</h1>
  <img class="author-image-outline" src="https://m.media/81bsw6fnUiL.__01_SX120_CR0,0,120,120__.jpg">
  <div class="bc-expander-content">
    <span>J.K. Rowling is best known as the author of the seven Harry Potter books.</span>
  </div>
  <div class="contentPositionClass">
    <div class="bc-box">
      <a class="bc-color-link" href="/cat/18572091011?ref=a_author">Children's Audiobooks</a>
    </div>
    <div class="bc-box">
      <a class="bc-color-link" href="/cat/18580606011?ref=a_author">Science Fiction &amp; Fantasy</a>
    </div>
  </div>
</body></html>`

const noResultsHTML = `
<html><body>
  <h1>Showing results for "B0TTRELL00"</h1>
</body></html>`

func testScrapeClient() *ScrapeClient {
	return NewScrapeClient("https://www.audible", 0, zerolog.Nop())
}

func parseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestNormalizeBookPage(t *testing.T) {
	c := testScrapeClient()

	scraped, err := c.NormalizeBookPage("B017V4IM1G", parseHTML(t, bookPageHTML))
	require.NoError(t, err)

	// Category links come first as genres, chips after as tags. The
	// href-less sponsored chip is skipped.
	require.Len(t, scraped.Genres, 4)
	assert.Equal(t, models.Genre{ASIN: "18572091011", Name: "Children's Audiobooks", Type: "genre"}, scraped.Genres[0])
	assert.Equal(t, models.Genre{ASIN: "18580606011", Name: "Science Fiction & Fantasy", Type: "genre"}, scraped.Genres[1])
	assert.Equal(t, models.Genre{ASIN: "18572505011", Name: "Family Life", Type: "tag"}, scraped.Genres[2])
	assert.Equal(t, models.Genre{ASIN: "18580607011", Name: "Fantasy", Type: "tag"}, scraped.Genres[3])
}

func TestNormalizeBookPageEmpty(t *testing.T) {
	c := testScrapeClient()

	scraped, err := c.NormalizeBookPage("B017V4IM1G", parseHTML(t, "<html><body></body></html>"))
	require.NoError(t, err)
	assert.Empty(t, scraped.Genres)
}

func TestNormalizeAuthorPage(t *testing.T) {
	c := testScrapeClient()

	author, err := c.NormalizeAuthorPage("B000AP9A6K", "us", parseHTML(t, authorPageHTML))
	require.NoError(t, err)

	assert.Equal(t, "B000AP9A6K", author.ASIN)
	assert.Equal(t, "J.K. Rowling", author.Name)
	assert.Equal(t, "us", author.Region)
	assert.Equal(t, "J.K. Rowling is best known as the author of the seven Harry Potter books.", author.Description)
	assert.Equal(t, "https://m.media/81bsw6fnUiL.jpg", author.Image)

	require.Len(t, author.Genres, 2)
	assert.Equal(t, models.GenreTypeGenre, author.Genres[0].Type)
	assert.Equal(t, "Children's Audiobooks", author.Genres[0].Name)
}

func TestNormalizeAuthorPageNoResults(t *testing.T) {
	c := testScrapeClient()

	// A bad author id renders the search fallback page with a 200.
	_, err := c.NormalizeAuthorPage("B0TTRELL00", "us", parseHTML(t, noResultsHTML))
	var nerr *models.NotFoundError
	require.True(t, errors.As(err, &nerr))
	assert.Equal(t, "B0TTRELL00", nerr.ASIN)
}

func TestNormalizeAuthorPageMissingName(t *testing.T) {
	c := testScrapeClient()

	_, err := c.NormalizeAuthorPage("B000AP9A6K", "us", parseHTML(t, "<html><body><h1>Oops</h1></body></html>"))
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "name", verr.Field)
}
