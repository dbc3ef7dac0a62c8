package region

import (
	"context"
	"math"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/shelfscout/backend/internal/domain"
)

// Classification thresholds for ClassifyLocation; both are exclusive
const (
	HighCostAbove = 1.05
	LowCostBelow  = 0.98
)

// idwPower is the exponent of the inverse-distance weighting
const idwPower = 2

// minFuzzyNameLength is the shortest city name that may be matched with one typo
const minFuzzyNameLength = 5

// Hub is a reference city with a known cost-of-living index
type Hub struct {
	Name        string             `json:"name"`
	Coordinates domain.Coordinates `json:"coordinates"`
	Index       float64            `json:"index"`
}

// FloridaCenter is where unknown cities are placed
var FloridaCenter = domain.Coordinates{Latitude: 28.5383, Longitude: -81.3792}

var defaultHubs = []Hub{
	{Name: "miami", Coordinates: domain.Coordinates{Latitude: 25.7617, Longitude: -80.1918}, Index: 1.15},
	{Name: "orlando", Coordinates: domain.Coordinates{Latitude: 28.5383, Longitude: -81.3792}, Index: 1.02},
	{Name: "tampa", Coordinates: domain.Coordinates{Latitude: 27.9506, Longitude: -82.4572}, Index: 1.03},
	{Name: "jacksonville", Coordinates: domain.Coordinates{Latitude: 30.3322, Longitude: -81.6557}, Index: 0.95},
	{Name: "tallahassee", Coordinates: domain.Coordinates{Latitude: 30.4383, Longitude: -84.2807}, Index: 0.93},
	{Name: "key west", Coordinates: domain.Coordinates{Latitude: 24.5551, Longitude: -81.7800}, Index: 1.25},
}

// Cities with known coordinates but no index of their own
var otherCities = map[string]domain.Coordinates{
	"naples":          {Latitude: 26.1420, Longitude: -81.7948},
	"sarasota":        {Latitude: 27.3364, Longitude: -82.5307},
	"gainesville":     {Latitude: 29.6516, Longitude: -82.3248},
	"pensacola":       {Latitude: 30.4213, Longitude: -87.2169},
	"clearwater":      {Latitude: 27.9659, Longitude: -82.8001},
	"fort lauderdale": {Latitude: 26.1224, Longitude: -80.1373},
}

// Config holds configuration for the regional model
type Config struct {
	// GeocodeUnknownCities resolves names outside the built-in tables with the
	// geocoder before falling back to FloridaCenter
	GeocodeUnknownCities bool
}

// Model interpolates a regional price multiplier from the reference hubs
type Model struct {
	hubs     []Hub
	known    map[string]domain.Coordinates
	geocoder domain.Geocoder
	config   Config
}

// NewModel creates the model over the built-in hubs. geocoder may be nil.
func NewModel(geocoder domain.Geocoder, config Config) *Model {
	known := make(map[string]domain.Coordinates, len(defaultHubs)+len(otherCities))
	for _, h := range defaultHubs {
		known[h.Name] = h.Coordinates
	}
	for name, c := range otherCities {
		known[name] = c
	}

	return &Model{
		hubs:     defaultHubs,
		known:    known,
		geocoder: geocoder,
		config:   config,
	}
}

// Hubs returns the reference hubs in their canonical order
func (m *Model) Hubs() []Hub {
	return append([]Hub(nil), m.hubs...)
}

// CoordinatesFor resolves a city name. Lookup order: exact name, a single-typo
// match against a known name, the geocoder (when enabled), then FloridaCenter.
func (m *Model) CoordinatesFor(ctx context.Context, city string) domain.Coordinates {
	name := normalizeCity(city)

	if c, ok := m.known[name]; ok {
		return c
	}
	if c, ok := m.fuzzyLookup(name); ok {
		return c
	}

	if m.config.GeocodeUnknownCities && m.geocoder != nil && name != "" {
		loc, err := m.geocoder.GeocodeCity(ctx, city, "Florida")
		if err == nil {
			return loc.Coordinates
		}
		log.Debug().Str("component", "region").Str("city", city).Err(err).Msg("geocoding unknown city failed")
	}

	return FloridaCenter
}

// MultiplierForCity returns the multiplier at the city's resolved coordinates
func (m *Model) MultiplierForCity(ctx context.Context, city string) float64 {
	c := m.CoordinatesFor(ctx, city)
	return m.MultiplierForCoordinates(c.Latitude, c.Longitude)
}

// MultiplierForCoordinates interpolates the hub indices with inverse-distance
// weighting. A point exactly on a hub returns that hub's index unchanged.
func (m *Model) MultiplierForCoordinates(lat, lon float64) float64 {
	var weighted, total float64

	for _, h := range m.hubs {
		dist := math.Hypot(lat-h.Coordinates.Latitude, lon-h.Coordinates.Longitude)
		if dist == 0 {
			return h.Index
		}
		w := 1 / math.Pow(dist, idwPower)
		weighted += h.Index * w
		total += w
	}

	return weighted / total
}

// ClassifyLocation buckets a multiplier into a cost class
func ClassifyLocation(multiplier float64) domain.LocationType {
	switch {
	case multiplier > HighCostAbove:
		return domain.LocationHigh
	case multiplier < LowCostBelow:
		return domain.LocationLow
	default:
		return domain.LocationMedium
	}
}

// fuzzyLookup accepts one edit against a known name. Ambiguous matches are rejected.
func (m *Model) fuzzyLookup(name string) (domain.Coordinates, bool) {
	if len([]rune(name)) < minFuzzyNameLength {
		return domain.Coordinates{}, false
	}

	var (
		match domain.Coordinates
		found int
	)
	for known, c := range m.known {
		if len([]rune(known)) < minFuzzyNameLength {
			continue
		}
		if withinOneEdit(name, known) {
			match = c
			found++
		}
	}
	return match, found == 1
}

// normalizeCity lower-cases and collapses whitespace: "  Key   West " -> "key west"
func normalizeCity(city string) string {
	return strings.Join(strings.Fields(strings.ToLower(city)), " ")
}
