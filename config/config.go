package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Scraper   ScraperConfig   `mapstructure:"scraper"`
	Browser   BrowserConfig   `mapstructure:"browser"`
	Geocoding GeocodingConfig `mapstructure:"geocoding"`
	Region    RegionConfig    `mapstructure:"region"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Environment     string        `mapstructure:"environment"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ScraperConfig tunes price discovery
type ScraperConfig struct {
	HTTPTimeout        time.Duration `mapstructure:"http_timeout"`
	RenderTimeout      time.Duration `mapstructure:"render_timeout"`
	RenderSettle       time.Duration `mapstructure:"render_settle"`
	PolitenessDelay    time.Duration `mapstructure:"politeness_delay"`
	EarlyExitThreshold int           `mapstructure:"early_exit_threshold"`
	TrimDivisor        int           `mapstructure:"trim_divisor"`
	MaxSearchTerms     int           `mapstructure:"max_search_terms"`
	ParallelSources    bool          `mapstructure:"parallel_sources"`
}

// BrowserConfig holds headless browser configuration
type BrowserConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	PoolSize int    `mapstructure:"pool_size"`
	Bin      string `mapstructure:"bin"`
}

// GeocodingConfig holds Nominatim configuration
type GeocodingConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	UserAgent   string        `mapstructure:"user_agent"`
	MinInterval time.Duration `mapstructure:"min_interval"`
	Timeout     time.Duration `mapstructure:"timeout"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
}

// RegionConfig holds regional model configuration
type RegionConfig struct {
	GeocodeUnknownCities bool `mapstructure:"geocode_unknown_cities"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/shelfscout/")

	// SHELFSCOUT_SCRAPER_HTTP_TIMEOUT -> scraper.http_timeout
	v.SetEnvPrefix("SHELFSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; env vars and defaults are enough
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout", "15s")

	// Scraper defaults
	v.SetDefault("scraper.http_timeout", "10s")
	v.SetDefault("scraper.render_timeout", "30s")
	v.SetDefault("scraper.render_settle", "3s")
	v.SetDefault("scraper.politeness_delay", "500ms")
	v.SetDefault("scraper.early_exit_threshold", 5)
	v.SetDefault("scraper.trim_divisor", 5)
	v.SetDefault("scraper.max_search_terms", 3)
	v.SetDefault("scraper.parallel_sources", false)

	// Browser defaults
	v.SetDefault("browser.enabled", true)
	v.SetDefault("browser.pool_size", 2)
	v.SetDefault("browser.bin", "")

	// Geocoding defaults
	v.SetDefault("geocoding.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocoding.user_agent", "Florida-Pricing-Engine/1.0")
	v.SetDefault("geocoding.min_interval", "1s")
	v.SetDefault("geocoding.timeout", "10s")
	v.SetDefault("geocoding.cache_ttl", "24h")

	// Region defaults
	v.SetDefault("region.geocode_unknown_cities", false)

	// Log defaults
	v.SetDefault("log.level", "info")
}

// validate validates the configuration
func validate(config *Config) error {
	s := config.Scraper

	if s.EarlyExitThreshold < 1 {
		return fmt.Errorf("scraper.early_exit_threshold must be at least 1, got: %d", s.EarlyExitThreshold)
	}
	if s.TrimDivisor < 2 {
		return fmt.Errorf("scraper.trim_divisor must be at least 2, got: %d", s.TrimDivisor)
	}
	if s.MaxSearchTerms < 1 || s.MaxSearchTerms > 3 {
		return fmt.Errorf("scraper.max_search_terms must be between 1 and 3, got: %d", s.MaxSearchTerms)
	}
	if s.PolitenessDelay < 0 {
		return fmt.Errorf("scraper.politeness_delay must not be negative, got: %s", s.PolitenessDelay)
	}

	timeouts := map[string]time.Duration{
		"scraper.http_timeout":    s.HTTPTimeout,
		"scraper.render_timeout":  s.RenderTimeout,
		"geocoding.timeout":       config.Geocoding.Timeout,
		"server.shutdown_timeout": config.Server.ShutdownTimeout,
	}
	for key, d := range timeouts {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got: %s", key, d)
		}
	}

	if config.Browser.Enabled && config.Browser.PoolSize < 1 {
		return fmt.Errorf("browser.pool_size must be at least 1 when the browser is enabled, got: %d", config.Browser.PoolSize)
	}

	// the public Nominatim usage policy allows one request per second
	if config.Geocoding.MinInterval < time.Second {
		return fmt.Errorf("geocoding.min_interval must be at least 1s, got: %s", config.Geocoding.MinInterval)
	}
	if config.Geocoding.UserAgent == "" {
		return fmt.Errorf("geocoding.user_agent is required")
	}

	return nil
}
