package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "5000" {
			t.Errorf("Server.Port = %s, want 5000", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Scraper.HTTPTimeout != 10*time.Second {
			t.Errorf("Scraper.HTTPTimeout = %v, want 10s", cfg.Scraper.HTTPTimeout)
		}
		if cfg.Scraper.PolitenessDelay != 500*time.Millisecond {
			t.Errorf("Scraper.PolitenessDelay = %v, want 500ms", cfg.Scraper.PolitenessDelay)
		}
		if cfg.Scraper.EarlyExitThreshold != 5 {
			t.Errorf("Scraper.EarlyExitThreshold = %d, want 5", cfg.Scraper.EarlyExitThreshold)
		}
		if cfg.Scraper.TrimDivisor != 5 {
			t.Errorf("Scraper.TrimDivisor = %d, want 5", cfg.Scraper.TrimDivisor)
		}
		if cfg.Scraper.MaxSearchTerms != 3 {
			t.Errorf("Scraper.MaxSearchTerms = %d, want 3", cfg.Scraper.MaxSearchTerms)
		}
		if cfg.Scraper.ParallelSources {
			t.Error("Scraper.ParallelSources = true, want false")
		}
		if !cfg.Browser.Enabled || cfg.Browser.PoolSize != 2 {
			t.Errorf("Browser = %+v, want enabled with pool of 2", cfg.Browser)
		}
		if cfg.Geocoding.BaseURL != "https://nominatim.openstreetmap.org" {
			t.Errorf("Geocoding.BaseURL = %s", cfg.Geocoding.BaseURL)
		}
		if cfg.Geocoding.MinInterval != time.Second {
			t.Errorf("Geocoding.MinInterval = %v, want 1s", cfg.Geocoding.MinInterval)
		}
		if cfg.Geocoding.CacheTTL != 24*time.Hour {
			t.Errorf("Geocoding.CacheTTL = %v, want 24h", cfg.Geocoding.CacheTTL)
		}
		if cfg.Region.GeocodeUnknownCities {
			t.Error("Region.GeocodeUnknownCities = true, want false")
		}
		if cfg.Log.Level != "info" {
			t.Errorf("Log.Level = %s, want info", cfg.Log.Level)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		t.Setenv("SHELFSCOUT_SERVER_PORT", "9090")
		t.Setenv("SHELFSCOUT_SERVER_ENVIRONMENT", "production")
		t.Setenv("SHELFSCOUT_SCRAPER_POLITENESS_DELAY", "2s")
		t.Setenv("SHELFSCOUT_SCRAPER_EARLY_EXIT_THRESHOLD", "8")
		t.Setenv("SHELFSCOUT_SCRAPER_PARALLEL_SOURCES", "true")
		t.Setenv("SHELFSCOUT_BROWSER_ENABLED", "false")
		t.Setenv("SHELFSCOUT_GEOCODING_BASE_URL", "http://nominatim.internal")
		t.Setenv("SHELFSCOUT_REGION_GEOCODE_UNKNOWN_CITIES", "true")
		t.Setenv("SHELFSCOUT_LOG_LEVEL", "debug")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if cfg.Scraper.PolitenessDelay != 2*time.Second {
			t.Errorf("Scraper.PolitenessDelay = %v, want 2s", cfg.Scraper.PolitenessDelay)
		}
		if cfg.Scraper.EarlyExitThreshold != 8 {
			t.Errorf("Scraper.EarlyExitThreshold = %d, want 8", cfg.Scraper.EarlyExitThreshold)
		}
		if !cfg.Scraper.ParallelSources {
			t.Error("Scraper.ParallelSources = false, want true")
		}
		if cfg.Browser.Enabled {
			t.Error("Browser.Enabled = true, want false")
		}
		if cfg.Geocoding.BaseURL != "http://nominatim.internal" {
			t.Errorf("Geocoding.BaseURL = %s", cfg.Geocoding.BaseURL)
		}
		if !cfg.Region.GeocodeUnknownCities {
			t.Error("Region.GeocodeUnknownCities = false, want true")
		}
		if cfg.Log.Level != "debug" {
			t.Errorf("Log.Level = %s, want debug", cfg.Log.Level)
		}
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		tests := []struct {
			name    string
			env     map[string]string
			wantErr string
		}{
			{
				name:    "early exit threshold",
				env:     map[string]string{"SHELFSCOUT_SCRAPER_EARLY_EXIT_THRESHOLD": "0"},
				wantErr: "early_exit_threshold",
			},
			{
				name:    "trim divisor",
				env:     map[string]string{"SHELFSCOUT_SCRAPER_TRIM_DIVISOR": "1"},
				wantErr: "trim_divisor",
			},
			{
				name:    "too many search terms",
				env:     map[string]string{"SHELFSCOUT_SCRAPER_MAX_SEARCH_TERMS": "4"},
				wantErr: "max_search_terms",
			},
			{
				name:    "zero timeout",
				env:     map[string]string{"SHELFSCOUT_SCRAPER_HTTP_TIMEOUT": "0s"},
				wantErr: "http_timeout",
			},
			{
				name:    "empty browser pool",
				env:     map[string]string{"SHELFSCOUT_BROWSER_POOL_SIZE": "0"},
				wantErr: "pool_size",
			},
			{
				name:    "geocoding faster than policy",
				env:     map[string]string{"SHELFSCOUT_GEOCODING_MIN_INTERVAL": "200ms"},
				wantErr: "min_interval",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				for k, v := range tt.env {
					t.Setenv(k, v)
				}

				_, err := Load()
				if err == nil {
					t.Fatal("Load() error = nil, want validation error")
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("Load() error = %v, want it to mention %s", err, tt.wantErr)
				}
			})
		}
	})

	t.Run("disabled browser may have no pool", func(t *testing.T) {
		t.Setenv("SHELFSCOUT_BROWSER_ENABLED", "false")
		t.Setenv("SHELFSCOUT_BROWSER_POOL_SIZE", "0")

		if _, err := Load(); err != nil {
			t.Errorf("Load() error = %v, want nil", err)
		}
	})
}
