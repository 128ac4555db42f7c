package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"audiohub/pkg/models"
)

// fetcher is the shared transport for one upstream host: a bounded
// http.Client behind a circuit breaker, so a dead upstream fails fast
// during refresh sweeps instead of eating the full timeout per item.
//
// No per-request retries happen here; retry policy is sweep-level
// pacing, not request-level backoff.
type fetcher struct {
	name    string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
}

func newFetcher(name string, timeout time.Duration) *fetcher {
	settings := gobreaker.Settings{
		Name:    name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Absence is an expected condition, not an upstream outage.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var nf *models.NotFoundError
			return errors.As(err, &nf)
		},
	}
	return &fetcher{
		name:    name,
		client:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

// get fetches url and classifies failures: absent resource ->
// NotFoundError, any other non-2xx -> TransportError carrying the
// status, network failures and timeouts -> TransportError without one.
func (f *fetcher) get(ctx context.Context, asin, url string) ([]byte, error) {
	body, err := f.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("%s: build request: %w", f.name, err)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, &models.TransportError{Source: f.name, Err: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, &models.NotFoundError{ASIN: asin}
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &models.TransportError{Source: f.name, Status: resp.StatusCode}
		}

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &models.TransportError{Source: f.name, Err: err}
		}
		return b, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &models.TransportError{Source: f.name, Err: err}
	}
	return body, err
}

// regionOrigin completes an origin with the marketplace domain suffix.
// Origins normally end with the bare brand host ("https://api.audible");
// an origin that already carries a port is used as-is, which lets tests
// point the clients at a local server.
func regionOrigin(origin, region string) string {
	if u, err := url.Parse(origin); err == nil && u.Port() != "" {
		return origin
	}
	return origin + "." + models.RegionTLD(region)
}

// genreASINPattern matches the numeric category ids embedded in genre
// link hrefs. Product ASINs contain letters and do not match.
var genreASINPattern = regexp.MustCompile(`/(\d{10,11})(?:[/?]|$)`)

// genreASINFromURL extracts the category id from a genre link href,
// or "" when the link does not carry one.
func genreASINFromURL(href string) string {
	m := genreASINPattern.FindStringSubmatch(href)
	if m == nil {
		return ""
	}
	return m[1]
}
