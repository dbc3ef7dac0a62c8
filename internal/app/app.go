package app

import (
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/shelfscout/backend/config"
	httpDelivery "github.com/shelfscout/backend/internal/delivery/http"
	"github.com/shelfscout/backend/internal/domain"
	"github.com/shelfscout/backend/internal/infrastructure/browser"
	"github.com/shelfscout/backend/internal/infrastructure/cache"
	"github.com/shelfscout/backend/internal/infrastructure/extractor"
	"github.com/shelfscout/backend/internal/infrastructure/geocoding"
	"github.com/shelfscout/backend/internal/infrastructure/metrics"
	"github.com/shelfscout/backend/internal/infrastructure/region"
	"github.com/shelfscout/backend/internal/infrastructure/sources"
	"github.com/shelfscout/backend/internal/usecase"
)

// App is the wired application shared by the server and the CLI
type App struct {
	Router    *gin.Engine
	Discovery *usecase.DiscoveryService
	Pricing   *usecase.PricingService
	Regions   *region.Model
	Metrics   *metrics.Metrics

	pool  *browser.Pool
	cache *cache.MemoryCache
}

// New builds every component from cfg. Close releases browsers and timers.
func New(cfg *config.Config) (*App, error) {
	m := metrics.New(prometheus.NewRegistry())
	memoryCache := cache.NewMemoryCache(cache.DefaultCleanupInterval)

	nominatim := geocoding.NewClient(geocoding.Config{
		BaseURL:     cfg.Geocoding.BaseURL,
		UserAgent:   cfg.Geocoding.UserAgent,
		MinInterval: cfg.Geocoding.MinInterval,
		Timeout:     cfg.Geocoding.Timeout,
	})
	geocoder := geocoding.NewCachedGeocoder(nominatim, memoryCache, cfg.Geocoding.CacheTTL, m)

	regions := region.NewModel(geocoder, region.Config{
		GeocodeUnknownCities: cfg.Region.GeocodeUnknownCities,
	})

	client, err := sources.NewHTTPClient(cfg.Scraper.HTTPTimeout)
	if err != nil {
		memoryCache.Close()
		return nil, fmt.Errorf("failed to create scraper HTTP client: %w", err)
	}

	deps := sources.Deps{
		Client:    client,
		Extractor: extractor.New(),
	}

	var pool *browser.Pool
	if cfg.Browser.Enabled {
		pool = browser.NewPool(browser.Config{
			Size:          cfg.Browser.PoolSize,
			Bin:           cfg.Browser.Bin,
			RenderTimeout: cfg.Scraper.RenderTimeout,
			SettleDelay:   cfg.Scraper.RenderSettle,
		})
		// only set when enabled so sources see a nil interface, not a nil *Pool
		deps.Renderer = pool
	}

	discovery := usecase.NewDiscoveryService(
		sources.Primary(deps),
		sources.Fallback(deps),
		m,
		usecase.DiscoveryConfig{
			EarlyExitThreshold: cfg.Scraper.EarlyExitThreshold,
			TrimDivisor:        cfg.Scraper.TrimDivisor,
			MaxSearchTerms:     cfg.Scraper.MaxSearchTerms,
			PolitenessDelay:    cfg.Scraper.PolitenessDelay,
			ParallelSources:    cfg.Scraper.ParallelSources,
		},
	)

	pricing := usecase.NewPricingService(discovery, regions, geocoder)
	handler := httpDelivery.NewHandler(pricing, regions)

	log.Info().
		Str("component", "app").
		Bool("browser", cfg.Browser.Enabled).
		Int("early_exit", cfg.Scraper.EarlyExitThreshold).
		Bool("parallel_sources", cfg.Scraper.ParallelSources).
		Bool("geocode_unknown_cities", cfg.Region.GeocodeUnknownCities).
		Msg("application wired")

	return &App{
		Router:    httpDelivery.SetupRouter(cfg, handler, m),
		Discovery: discovery,
		Pricing:   pricing,
		Regions:   regions,
		Metrics:   m,
		pool:      pool,
		cache:     memoryCache,
	}, nil
}

// Close shuts down the browser pool and the cache janitor
func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
	a.cache.Close()
}

// ConfigureLogging sets the global zerolog level and output. Development gets
// human-readable console output, everything else JSON.
func ConfigureLogging(level, environment string) {
	zerolog.TimeFieldFormat = time.RFC3339

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

// compile-time checks for the wiring above
var (
	_ domain.PageRenderer    = (*browser.Pool)(nil)
	_ domain.PriceDiscoverer = (*usecase.DiscoveryService)(nil)
	_ domain.RegionalIndex   = (*region.Model)(nil)
	_ domain.Geocoder        = (*geocoding.CachedGeocoder)(nil)
	_ domain.CacheRepository = (*cache.MemoryCache)(nil)
)
