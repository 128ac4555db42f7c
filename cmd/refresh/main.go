// Command refresh runs a single refresh sweep and exits. Useful for
// warming a fresh database or forcing a full refresh outside the
// scheduled interval.
package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"

	"audiohub/internal/cache"
	"audiohub/internal/catalog"
	"audiohub/internal/scheduler"
	"audiohub/internal/source"
	"audiohub/pkg/config"
	"audiohub/pkg/database"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	db := database.MustOpen(database.Config{Path: cfg.DatabasePath})
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("db migrate failed")
	}

	c, err := cache.Open(cfg.CacheDir)
	if err != nil {
		log.Fatal().Err(err).Msg("open cache failed")
	}
	defer c.Close()

	apiClient := source.NewAPIClient(cfg.APIOrigin, cfg.SourceTimeout, log)
	scrapeClient := source.NewScrapeClient(cfg.ScrapeOrigin, cfg.SourceTimeout, log)
	svc := catalog.NewService(db, c, apiClient, scrapeClient, log)

	sched := scheduler.New(svc, cfg.SweepInterval, cfg.SweepPace, log)
	if err := sched.Sweep(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("sweep failed")
	}
}
