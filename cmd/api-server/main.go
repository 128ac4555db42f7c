package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"audiohub/internal/auth"
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

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": cfg.DatabasePath})
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "db_error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "db": "ok"})
	})

	tokens := auth.TokenService{
		Secret:   []byte(cfg.AdminSecret),
		Issuer:   cfg.AdminIssuer,
		Duration: 24 * time.Hour,
	}
	catalog.NewHandler(svc).RegisterRoutes(router, auth.AdminMiddleware(tokens))

	schedCtx, stopSched := context.WithCancel(context.Background())
	defer stopSched()
	sched := scheduler.New(svc, cfg.SweepInterval, cfg.SweepPace, log)
	go sched.Run(schedCtx)

	httpSrv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("HTTP API server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("server error")
	}

	log.Info().Msg("shutting down server")
	stopSched()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown error")
	}

	log.Info().Msg("server stopped")
}
