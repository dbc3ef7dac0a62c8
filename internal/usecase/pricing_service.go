package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/shelfscout/backend/internal/domain"
	"github.com/shelfscout/backend/internal/infrastructure/region"
)

// Supported coordinate box, inclusive: roughly the Florida peninsula and panhandle
const (
	MinLatitude  = 24.0
	MaxLatitude  = 31.0
	MinLongitude = -87.0
	MaxLongitude = -80.0
)

const (
	currencyUSD = "USD"
	stateName   = "Florida"
)

// vendorSpread is the half-width of the recommended selling range around the market average
var vendorSpread = decimal.NewFromFloat(0.05)

// PricingService answers consumer price checks and vendor pricing requests
type PricingService struct {
	discoverer domain.PriceDiscoverer
	regions    domain.RegionalIndex
	geocoder   domain.Geocoder
}

// NewPricingService creates a pricing service with dependencies
func NewPricingService(
	discoverer domain.PriceDiscoverer,
	regions domain.RegionalIndex,
	geocoder domain.Geocoder,
) *PricingService {
	return &PricingService{
		discoverer: discoverer,
		regions:    regions,
		geocoder:   geocoder,
	}
}

// ValidateCoordinates checks the supported coordinate box
func ValidateCoordinates(c domain.Coordinates) error {
	if c.Latitude < MinLatitude || c.Latitude > MaxLatitude ||
		c.Longitude < MinLongitude || c.Longitude > MaxLongitude {
		return fmt.Errorf("%w: %.4f, %.4f", domain.ErrOutOfRegion, c.Latitude, c.Longitude)
	}
	return nil
}

// resolvedPlace is the city a request resolves to and its multiplier
type resolvedPlace struct {
	city        string
	multiplier  float64
	coordinates *domain.Coordinates
}

// CheckPrice looks up the market price of a product near a city or point.
// Flow: validate -> resolve location -> discover price -> multiplier -> classify.
// On domain.ErrNoPriceData the returned result still names the product and city.
func (s *PricingService) CheckPrice(ctx context.Context, req *domain.PriceCheckRequest) (*domain.PriceCheckResult, error) {
	if req == nil {
		return nil, domain.ErrInvalidRequest
	}
	product := normalizeInput(req.Product)
	if product == "" {
		return nil, fmt.Errorf("%w: product", domain.ErrMissingParameter)
	}

	place, err := s.resolve(ctx, req.City, req.Coordinates)
	if err != nil {
		return nil, err
	}

	result := &domain.PriceCheckResult{
		Product: product,
		City:    place.city,
	}

	price, err := s.discoverer.DiscoverPrice(ctx, product, place.city)
	if err != nil {
		return result, err
	}

	result.Success = true
	result.Price = RoundTo(price, 2)
	result.Currency = currencyUSD
	result.Multiplier = RoundTo(place.multiplier, 3)
	result.LocationType = region.ClassifyLocation(place.multiplier)
	result.State = stateName
	result.Coordinates = place.coordinates

	log.Info().
		Str("component", "pricing").
		Str("product", product).
		Str("city", place.city).
		Float64("price", result.Price).
		Float64("multiplier", result.Multiplier).
		Msg("price check served")

	return result, nil
}

// VendorPricing recommends a selling range of ±5% around the competitor average.
// On domain.ErrNoPriceData the returned result still names the item and city.
func (s *PricingService) VendorPricing(ctx context.Context, req *domain.VendorRequest) (*domain.VendorRecommendation, error) {
	if req == nil {
		return nil, domain.ErrInvalidRequest
	}
	item := normalizeInput(req.Item)
	if item == "" {
		return nil, fmt.Errorf("%w: item", domain.ErrMissingParameter)
	}

	place, err := s.resolve(ctx, req.City, req.Coordinates)
	if err != nil {
		return nil, err
	}

	rec := &domain.VendorRecommendation{
		Item: item,
		City: place.city,
	}

	avg, err := s.discoverer.DiscoverPrice(ctx, item, place.city)
	if err != nil {
		return rec, err
	}

	low, high := VendorRange(avg)

	rec.Success = true
	rec.CompetitorAvg = RoundTo(avg, 2)
	rec.RecommendedMin = low
	rec.RecommendedMax = high
	rec.Multiplier = RoundTo(place.multiplier, 3)
	rec.LocationType = region.ClassifyLocation(place.multiplier)
	rec.State = stateName
	rec.Coordinates = place.coordinates

	return rec, nil
}

// VendorRange returns avg×0.95 and avg×1.05, rounded to cents
func VendorRange(avg float64) (low, high float64) {
	d := decimal.NewFromFloat(avg)
	one := decimal.NewFromInt(1)
	return RoundCurrency(d.Mul(one.Sub(vendorSpread))), RoundCurrency(d.Mul(one.Add(vendorSpread)))
}

// resolve turns a city or a coordinate pair into a city name and multiplier.
// Coordinates win when both are given; they are bounds-checked before any lookup.
func (s *PricingService) resolve(ctx context.Context, city string, coords *domain.Coordinates) (*resolvedPlace, error) {
	if coords != nil {
		if err := ValidateCoordinates(*coords); err != nil {
			return nil, err
		}
		if s.geocoder == nil {
			return nil, fmt.Errorf("%w: reverse geocoding is not configured", domain.ErrGeocodingFailure)
		}

		loc, err := s.geocoder.ReverseGeocode(ctx, coords.Latitude, coords.Longitude)
		if err != nil {
			if errors.Is(err, domain.ErrGeocodingFailure) || errors.Is(err, domain.ErrNotInFlorida) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", domain.ErrGeocodingFailure, err)
		}
		if loc.City == "" {
			return nil, fmt.Errorf("%w: could not determine city from coordinates", domain.ErrGeocodingFailure)
		}

		c := *coords
		return &resolvedPlace{
			city:        loc.City,
			multiplier:  s.regions.MultiplierForCoordinates(c.Latitude, c.Longitude),
			coordinates: &c,
		}, nil
	}

	city = normalizeInput(city)
	if city == "" {
		return nil, fmt.Errorf("%w: city or latitude/longitude", domain.ErrMissingParameter)
	}
	return &resolvedPlace{
		city:       city,
		multiplier: s.regions.MultiplierForCity(ctx, city),
	}, nil
}

// normalizeInput trims and collapses runs of whitespace
func normalizeInput(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
