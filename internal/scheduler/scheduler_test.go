package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audiohub/internal/cache"
	"audiohub/internal/catalog"
	"audiohub/internal/source"
	"audiohub/pkg/database"
)

const (
	goodASIN   = "B017V4IM1G"
	brokenASIN = "B00BROKEN0"
)

// sweepUpstream serves product pages for every asin and can be told to
// start failing individual ones mid-test.
type sweepUpstream struct {
	mu      sync.Mutex
	failing map[string]bool
	hits    map[string]int
}

func newSweepUpstream() *sweepUpstream {
	return &sweepUpstream{failing: make(map[string]bool), hits: make(map[string]int)}
}

func (u *sweepUpstream) fail(asin string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.failing[asin] = true
}

func (u *sweepUpstream) hitCount(asin string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits[asin]
}

func (u *sweepUpstream) apiHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		asin := parts[len(parts)-1]

		u.mu.Lock()
		u.hits[asin]++
		failing := u.failing[asin]
		u.mu.Unlock()

		if failing {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, `{"product":{
			"asin":%q,
			"title":"Title of %s",
			"authors":[{"name":"J.K. Rowling"}],
			"language":"english",
			"content_delivery_type":"MultiPartBook",
			"release_date":"2015-11-20"
		}}`, asin, asin)
	})
}

func (u *sweepUpstream) scrapeHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><li class="categoriesLabel">
			<a href="/cat/18572091011?ref=a">Children's Audiobooks</a>
		</li></body></html>`)
	})
}

func newSweepEnv(t *testing.T) (*catalog.Service, *sql.DB, *sweepUpstream) {
	t.Helper()

	upstream := newSweepUpstream()
	apiSrv := httptest.NewServer(upstream.apiHandler())
	scrapeSrv := httptest.NewServer(upstream.scrapeHandler())
	t.Cleanup(apiSrv.Close)
	t.Cleanup(scrapeSrv.Close)

	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	c, err := cache.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	svc := catalog.NewService(db, c,
		source.NewAPIClient(apiSrv.URL, 5*time.Second, zerolog.Nop()),
		source.NewScrapeClient(scrapeSrv.URL, 5*time.Second, zerolog.Nop()),
		zerolog.Nop())
	return svc, db, upstream
}

// age pushes a stored book's updated_at far enough into the past that
// the sweep's forced refresh actually re-fetches it.
func age(t *testing.T, db *sql.DB, asin string) {
	t.Helper()
	_, err := db.Exec(`UPDATE books SET updated_at = ? WHERE asin = ?`,
		time.Now().UTC().Add(-30*24*time.Hour), asin)
	require.NoError(t, err)
}

func TestSweepSurvivesBadEntity(t *testing.T) {
	svc, db, upstream := newSweepEnv(t)
	ctx := context.Background()

	_, err := svc.GetBook(ctx, goodASIN, catalog.Options{Region: "us"})
	require.NoError(t, err)
	_, err = svc.GetBook(ctx, brokenASIN, catalog.Options{Region: "us"})
	require.NoError(t, err)

	age(t, db, goodASIN)
	age(t, db, brokenASIN)
	upstream.fail(brokenASIN)

	goodBefore := upstream.hitCount(goodASIN)

	s := New(svc, time.Hour, time.Millisecond, zerolog.Nop())
	require.NoError(t, s.Sweep(ctx), "one bad entity must not abort the sweep")

	// Both were attempted, and the healthy one still got refreshed.
	assert.Greater(t, upstream.hitCount(goodASIN), goodBefore)
	assert.Greater(t, upstream.hitCount(brokenASIN), 1)
}

func TestSweepSkipsFreshRecords(t *testing.T) {
	svc, _, upstream := newSweepEnv(t)
	ctx := context.Background()

	_, err := svc.GetBook(ctx, goodASIN, catalog.Options{Region: "us"})
	require.NoError(t, err)
	before := upstream.hitCount(goodASIN)

	// Just-written records are inside the freshness window; the forced
	// refresh serves them without touching the sources.
	s := New(svc, time.Hour, time.Millisecond, zerolog.Nop())
	require.NoError(t, s.Sweep(ctx))
	assert.Equal(t, before, upstream.hitCount(goodASIN))
}

func TestSweepSkipsWhenAlreadyRunning(t *testing.T) {
	svc, _, _ := newSweepEnv(t)

	s := New(svc, time.Hour, time.Millisecond, zerolog.Nop())
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()

	// TryLock fails while another sweep holds the mutex; the call
	// returns immediately instead of queueing behind it.
	require.NoError(t, s.Sweep(context.Background()))
}
