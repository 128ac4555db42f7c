package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// envPrefix is stripped from environment overrides, so
// AUDIOHUB_LISTEN_ADDR maps onto the listen_addr key.
const envPrefix = "AUDIOHUB_"

// Config carries all process-level settings. Defaults are applied first,
// then overridden by AUDIOHUB_* environment variables.
type Config struct {
	ListenAddr   string `koanf:"listen_addr"`
	DatabasePath string `koanf:"database_path"`
	CacheDir     string `koanf:"cache_dir"`

	// Upstream origins, without the per-region domain suffix.
	// Overridable so tests can point the clients at a local server.
	APIOrigin    string `koanf:"api_origin"`
	ScrapeOrigin string `koanf:"scrape_origin"`

	// SourceTimeout bounds every upstream fetch. A timeout is treated
	// the same as any other transport failure.
	SourceTimeout time.Duration `koanf:"source_timeout"`

	// SweepInterval is the pause between background refresh sweeps,
	// SweepPace the pause between individual items inside one sweep.
	SweepInterval time.Duration `koanf:"sweep_interval"`
	SweepPace     time.Duration `koanf:"sweep_pace"`

	// AdminSecret signs the bearer tokens accepted on delete routes.
	AdminSecret string `koanf:"admin_secret"`
	AdminIssuer string `koanf:"admin_issuer"`
}

func defaults() Config {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return Config{
		ListenAddr:    ":8080",
		DatabasePath:  filepath.Join(home, ".audiohub", "data.db"),
		CacheDir:      filepath.Join(home, ".audiohub", "cache"),
		APIOrigin:     "https://api.audible",
		ScrapeOrigin:  "https://www.audible",
		SourceTimeout: 12 * time.Second,
		SweepInterval: 3 * 24 * time.Hour,
		SweepPace:     500 * time.Millisecond,
		AdminSecret:   "",
		AdminIssuer:   "audiohub",
	}
}

// Load builds the effective configuration from defaults plus environment.
func Load() (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}
