package domain

import (
	"context"
	"time"
)

// PriceSource is one external site queried for candidate prices.
// Fetch returns (nil, nil) when the source answered but carried no prices.
type PriceSource interface {
	Name() string
	Fetch(ctx context.Context, term, city string) ([]float64, error)
}

// PriceExtractor turns raw markup or text into plausible candidate prices
type PriceExtractor interface {
	Extract(content string) []float64
}

// PageRenderer returns the rendered HTML of a URL
type PageRenderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// PriceDiscoverer is the engine boundary
type PriceDiscoverer interface {
	DiscoverPrice(ctx context.Context, itemName, city string) (float64, error)
}

// Geocoder maps coordinates to places and places to coordinates
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (*Location, error)
	GeocodeCity(ctx context.Context, city, state string) (*Location, error)
}

// RegionalIndex converts a place into a regional price multiplier
type RegionalIndex interface {
	MultiplierForCity(ctx context.Context, city string) float64
	MultiplierForCoordinates(lat, lon float64) float64
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
