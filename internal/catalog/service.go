package catalog

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"audiohub/internal/cache"
	"audiohub/internal/reconcile"
	"audiohub/internal/source"
	"audiohub/internal/store"
	"audiohub/pkg/models"
)

// Options controls one get request.
type Options struct {
	// ForceUpdate refreshes a stale stored record from the sources.
	ForceUpdate bool
	Region      string
}

// Service is the persistence coordinator: it decides per request
// whether to serve the stored record, refresh it from the sources, or
// create it, and keeps the cache written through on every store write.
type Service struct {
	authors  *store.Store[models.Author]
	books    *store.Store[models.Book]
	chapters *store.Store[models.Chapter]
	cache    *cache.Cache
	api      *source.APIClient
	scrape   *source.ScrapeClient
	locks    *keyedLocks
	log      zerolog.Logger

	// now is a seam for tests.
	now func() time.Time
}

func NewService(db *sql.DB, c *cache.Cache, api *source.APIClient, scrape *source.ScrapeClient, log zerolog.Logger) *Service {
	return &Service{
		authors:  store.New[models.Author](db, store.TableAuthors),
		books:    store.New[models.Book](db, store.TableBooks),
		chapters: store.New[models.Chapter](db, store.TableChapters),
		cache:    c,
		api:      api,
		scrape:   scrape,
		locks:    newKeyedLocks(),
		log:      log,
		now:      time.Now,
	}
}

func (o Options) withDefaults() Options {
	if o.Region == "" {
		o.Region = models.RegionDefault
	}
	return o
}

func cacheID(region, asin string) string {
	return region + "-" + asin
}

// GetBook serves or refreshes one book.
func (s *Service) GetBook(ctx context.Context, asin string, opts Options) (*models.Book, error) {
	opts = opts.withDefaults()
	return getOrRefresh(ctx, s, s.books, store.TableBooks, asin, opts,
		func(ctx context.Context) (*models.Book, error) {
			return s.fetchBook(ctx, asin, opts.Region)
		})
}

// GetAuthor serves or refreshes one author profile.
func (s *Service) GetAuthor(ctx context.Context, asin string, opts Options) (*models.Author, error) {
	opts = opts.withDefaults()
	return getOrRefresh(ctx, s, s.authors, store.TableAuthors, asin, opts,
		func(ctx context.Context) (*models.Author, error) {
			return s.fetchAuthor(ctx, asin, opts.Region)
		})
}

// GetChapters serves or refreshes the chapter listing of one book.
func (s *Service) GetChapters(ctx context.Context, asin string, opts Options) (*models.Chapter, error) {
	opts = opts.withDefaults()
	return getOrRefresh(ctx, s, s.chapters, store.TableChapters, asin, opts,
		func(ctx context.Context) (*models.Chapter, error) {
			return s.fetchChapters(ctx, asin, opts.Region)
		})
}

func (s *Service) DeleteBook(ctx context.Context, asin string) (*models.Book, error) {
	return deleteEntity(ctx, s.books, asin)
}

func (s *Service) DeleteAuthor(ctx context.Context, asin string) (*models.Author, error) {
	return deleteEntity(ctx, s.authors, asin)
}

func (s *Service) DeleteChapters(ctx context.Context, asin string) (*models.Chapter, error) {
	return deleteEntity(ctx, s.chapters, asin)
}

// Refresh listings for the background sweep, least recently updated
// first.
func (s *Service) ListAuthorsForRefresh(ctx context.Context) ([]store.RefreshRef, error) {
	return s.authors.ListForRefresh(ctx)
}

func (s *Service) ListBooksForRefresh(ctx context.Context) ([]store.RefreshRef, error) {
	return s.books.ListForRefresh(ctx)
}

func (s *Service) ListChaptersForRefresh(ctx context.Context) ([]store.RefreshRef, error) {
	return s.chapters.ListForRefresh(ctx)
}

// getOrRefresh is the per-request state machine.
//
// Absent -> reconcile and create. Present without force -> serve the
// projection, populating the cache on a miss. Present with force ->
// serve when still fresh, otherwise reconcile and write only when the
// result differs from what is stored.
func getOrRefresh[T any](ctx context.Context, s *Service, st *store.Store[T], kind, asin string, opts Options, fetch func(context.Context) (*T, error)) (*T, error) {
	rec, err := st.FindOne(ctx, asin)
	if err != nil {
		return nil, err
	}

	if rec != nil {
		if !opts.ForceUpdate {
			var cached T
			hit, err := s.cache.Get(kind, cacheID(opts.Region, asin), &cached)
			if err != nil {
				return nil, err
			}
			if hit {
				return &cached, nil
			}

			proj, err := st.FindOneProjected(ctx, asin)
			if err != nil {
				return nil, err
			}
			if proj == nil {
				return nil, &models.NotFoundError{ASIN: asin}
			}
			if err := s.cache.Set(kind, cacheID(opts.Region, asin), proj); err != nil {
				return nil, err
			}
			return proj, nil
		}

		if IsFresh(rec.UpdatedAt, s.now()) {
			proj, err := st.FindOneProjected(ctx, asin)
			if err != nil {
				return nil, err
			}
			if proj == nil {
				return nil, &models.NotFoundError{ASIN: asin}
			}
			return proj, nil
		}
	}

	// The read-compare-write below must be atomic per id: the sweep
	// and request-driven refreshes of the same id serialize here.
	unlock := s.locks.lock(kind + ":" + asin)
	defer unlock()

	fresh, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	cur, err := st.FindOneProjected(ctx, asin)
	if err != nil {
		return nil, err
	}

	switch {
	case cur == nil:
		if err := st.Insert(ctx, asin, opts.Region, *fresh); err != nil {
			return nil, err
		}
	case reflect.DeepEqual(cur, fresh):
		// Field-for-field equal: skip the write, updated_at untouched.
		return cur, nil
	default:
		if err := st.Update(ctx, asin, *fresh); err != nil {
			return nil, err
		}
	}

	proj, err := st.FindOneProjected(ctx, asin)
	if err != nil {
		return nil, err
	}
	if proj == nil {
		return nil, &models.NotFoundError{ASIN: asin}
	}
	if err := s.cache.Set(kind, cacheID(opts.Region, asin), proj); err != nil {
		return nil, err
	}
	return proj, nil
}

func deleteEntity[T any](ctx context.Context, st *store.Store[T], asin string) (*T, error) {
	proj, err := st.FindOneProjected(ctx, asin)
	if err != nil {
		return nil, err
	}
	if proj == nil {
		return nil, &models.NotFoundError{ASIN: asin}
	}
	if _, err := st.Delete(ctx, asin); err != nil {
		return nil, err
	}
	return proj, nil
}

// fetchBook runs both source paths independently and merges the
// partials. The fetches complete out of order and their failures are
// isolated: a dead scrape never blocks an API result and vice versa.
// Only data-integrity failures from the API normalizer are fatal.
func (s *Service) fetchBook(ctx context.Context, asin, region string) (*models.Book, error) {
	var (
		apiPart *source.APIBook
		scraped *source.ScrapedBook
		fatal   error
		wg      sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		raw, err := s.api.FetchBook(ctx, asin, region)
		if err != nil {
			if isAbsence(err) {
				s.logAbsence("catalog api", asin, err)
				return
			}
			fatal = err
			return
		}
		part, err := source.NormalizeBook(raw, region, s.now())
		if err != nil {
			fatal = err
			return
		}
		apiPart = part
	}()
	go func() {
		defer wg.Done()
		doc, err := s.scrape.FetchBookPage(ctx, asin, region)
		if err != nil {
			s.logAbsence("scrape", asin, err)
			return
		}
		part, err := s.scrape.NormalizeBookPage(asin, doc)
		if err != nil {
			s.logAbsence("scrape", asin, err)
			return
		}
		scraped = part
	}()
	wg.Wait()

	if fatal != nil {
		return nil, fatal
	}
	return reconcile.Book(asin, region, apiPart, scraped)
}

func (s *Service) fetchAuthor(ctx context.Context, asin, region string) (*models.Author, error) {
	doc, err := s.scrape.FetchAuthorPage(ctx, asin, region)
	if err != nil {
		return nil, err
	}
	scraped, err := s.scrape.NormalizeAuthorPage(asin, region, doc)
	if err != nil {
		return nil, err
	}
	return reconcile.Author(asin, scraped)
}

func (s *Service) fetchChapters(ctx context.Context, asin, region string) (*models.Chapter, error) {
	raw, err := s.api.FetchChapters(ctx, asin, region)
	if err != nil {
		return nil, err
	}
	chapter, err := source.NormalizeChapters(asin, region, raw)
	if err != nil {
		return nil, err
	}
	return reconcile.Chapters(asin, chapter)
}

// isAbsence reports whether a source failure means "no data from this
// source" rather than "bad data". Absence is tolerated; one source
// degrading never aborts the request on its own.
func isAbsence(err error) bool {
	var nf *models.NotFoundError
	var te *models.TransportError
	return errors.As(err, &nf) || errors.As(err, &te)
}

// logAbsence records why a source contributed nothing. A 404 is the
// expected shape of absence and stays quiet.
func (s *Service) logAbsence(src, asin string, err error) {
	var nf *models.NotFoundError
	if errors.As(err, &nf) {
		return
	}
	s.log.Warn().Str("source", src).Str("asin", asin).Err(err).Msg("source unavailable")
}
