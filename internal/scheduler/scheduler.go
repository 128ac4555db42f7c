// Package scheduler drives the background refresh sweep: every stored
// entity is pushed through the same forced-update path that requests
// use, paced so the upstream sources never see a burst.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"audiohub/internal/catalog"
	"audiohub/internal/store"
)

type Scheduler struct {
	svc      *catalog.Service
	interval time.Duration
	limiter  *rate.Limiter
	log      zerolog.Logger

	// sweepMu guarantees at most one sweep active at a time.
	sweepMu sync.Mutex
}

func New(svc *catalog.Service, interval, pace time.Duration, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		svc:      svc,
		interval: interval,
		limiter:  rate.NewLimiter(rate.Every(pace), 1),
		log:      log,
	}
}

// Run sweeps once immediately, then on every interval tick until the
// context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	if err := s.Sweep(ctx); err != nil {
		s.log.Error().Err(err).Msg("refresh sweep failed")
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.log.Error().Err(err).Msg("refresh sweep failed")
			}
		}
	}
}

type stage struct {
	kind    string
	list    func(context.Context) ([]store.RefreshRef, error)
	refresh func(context.Context, string, catalog.Options) error
}

// Sweep refreshes every stored entity, authors then books then
// chapters, least recently updated first. A single bad entity is
// logged and skipped; the sweep itself never aborts for one item.
// Overlapping sweeps are skipped, not queued.
func (s *Scheduler) Sweep(ctx context.Context) error {
	if !s.sweepMu.TryLock() {
		s.log.Warn().Msg("refresh sweep already running, skipping")
		return nil
	}
	defer s.sweepMu.Unlock()

	runID := uuid.NewString()
	log := s.log.With().Str("run_id", runID).Logger()
	log.Info().Msg("refresh sweep started")

	stages := []stage{
		{
			kind: "authors",
			list: s.svc.ListAuthorsForRefresh,
			refresh: func(ctx context.Context, asin string, opts catalog.Options) error {
				_, err := s.svc.GetAuthor(ctx, asin, opts)
				return err
			},
		},
		{
			kind: "books",
			list: s.svc.ListBooksForRefresh,
			refresh: func(ctx context.Context, asin string, opts catalog.Options) error {
				_, err := s.svc.GetBook(ctx, asin, opts)
				return err
			},
		},
		{
			kind: "chapters",
			list: s.svc.ListChaptersForRefresh,
			refresh: func(ctx context.Context, asin string, opts catalog.Options) error {
				_, err := s.svc.GetChapters(ctx, asin, opts)
				return err
			},
		},
	}

	for _, st := range stages {
		if err := s.sweepStage(ctx, log, st); err != nil {
			return err
		}
	}

	log.Info().Msg("refresh sweep finished")
	return nil
}

func (s *Scheduler) sweepStage(ctx context.Context, log zerolog.Logger, st stage) error {
	refs, err := st.list(ctx)
	if err != nil {
		return fmt.Errorf("list %s: %w", st.kind, err)
	}
	log.Info().Str("kind", st.kind).Int("count", len(refs)).Msg("refreshing entities")

	for _, ref := range refs {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		opts := catalog.Options{ForceUpdate: true, Region: ref.Region}
		if err := st.refresh(ctx, ref.ASIN, opts); err != nil {
			log.Warn().Str("kind", st.kind).Str("asin", ref.ASIN).Err(err).Msg("refresh failed")
		}
	}
	return nil
}
