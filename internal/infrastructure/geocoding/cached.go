package geocoding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shelfscout/backend/internal/domain"
)

// Geocode metric labels
const (
	opReverse = "reverse"
	opForward = "forward"

	outcomeCacheHit   = "cache_hit"
	outcomeOK         = "ok"
	outcomeNotFlorida = "not_florida"
	outcomeError      = "error"
)

const (
	defaultCacheTTL = 24 * time.Hour
	// 4 decimals is roughly 11m, well inside one city
	coordinateDecimals = 4
)

// Metrics receives geocoding lookup outcomes
type Metrics interface {
	IncGeocode(operation, outcome string)
}

// CachedGeocoder memoizes successful lookups of another Geocoder.
// Failures are not cached so a transient outage does not stick.
type CachedGeocoder struct {
	next    domain.Geocoder
	cache   domain.CacheRepository
	ttl     time.Duration
	metrics Metrics
}

// NewCachedGeocoder wraps next. m may be nil.
func NewCachedGeocoder(next domain.Geocoder, cache domain.CacheRepository, ttl time.Duration, m Metrics) *CachedGeocoder {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedGeocoder{next: next, cache: cache, ttl: ttl, metrics: m}
}

// ReverseGeocode serves from cache when a point in the same rounded cell was seen before
func (g *CachedGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (*domain.Location, error) {
	key := fmt.Sprintf("geo:reverse:%.*f:%.*f", coordinateDecimals, lat, coordinateDecimals, lon)
	if loc, ok := g.lookup(ctx, key); ok {
		g.observe(opReverse, outcomeCacheHit)
		return withCoordinates(loc, lat, lon), nil
	}

	loc, err := g.next.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		g.observe(opReverse, outcomeFor(err))
		return nil, err
	}

	g.store(ctx, key, loc)
	g.observe(opReverse, outcomeOK)
	return withCoordinates(loc, lat, lon), nil
}

// GeocodeCity serves from cache keyed by the normalized city and state
func (g *CachedGeocoder) GeocodeCity(ctx context.Context, city, state string) (*domain.Location, error) {
	key := fmt.Sprintf("geo:city:%s:%s", strings.ToLower(strings.TrimSpace(city)), strings.ToLower(strings.TrimSpace(state)))
	if loc, ok := g.lookup(ctx, key); ok {
		g.observe(opForward, outcomeCacheHit)
		return loc, nil
	}

	loc, err := g.next.GeocodeCity(ctx, city, state)
	if err != nil {
		g.observe(opForward, outcomeFor(err))
		return nil, err
	}

	g.store(ctx, key, loc)
	g.observe(opForward, outcomeOK)
	return copyLocation(loc), nil
}

func (g *CachedGeocoder) lookup(ctx context.Context, key string) (*domain.Location, bool) {
	v, err := g.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	loc, ok := v.(*domain.Location)
	if !ok {
		return nil, false
	}
	return copyLocation(loc), true
}

func (g *CachedGeocoder) store(ctx context.Context, key string, loc *domain.Location) {
	if err := g.cache.Set(ctx, key, copyLocation(loc), g.ttl); err != nil {
		log.Debug().Str("component", "geocoding").Str("key", key).Err(err).Msg("cache set failed")
	}
}

func (g *CachedGeocoder) observe(op, outcome string) {
	if g.metrics != nil {
		g.metrics.IncGeocode(op, outcome)
	}
}

func outcomeFor(err error) string {
	if errors.Is(err, domain.ErrNotInFlorida) {
		return outcomeNotFlorida
	}
	return outcomeError
}

// copyLocation keeps cached values immune to callers mutating results
func copyLocation(loc *domain.Location) *domain.Location {
	c := *loc
	return &c
}

func withCoordinates(loc *domain.Location, lat, lon float64) *domain.Location {
	c := copyLocation(loc)
	c.Coordinates = domain.Coordinates{Latitude: lat, Longitude: lon}
	return c
}
