package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfscout/backend/internal/domain"
	"github.com/shelfscout/backend/internal/infrastructure/region"
)

// mockDiscoverer returns a fixed price or error and records its inputs
type mockDiscoverer struct {
	price float64
	err   error
	calls []mockCall
}

func (m *mockDiscoverer) DiscoverPrice(ctx context.Context, itemName, city string) (float64, error) {
	m.calls = append(m.calls, mockCall{term: itemName, city: city})
	return m.price, m.err
}

// mockReverseGeocoder resolves every point to one location
type mockReverseGeocoder struct {
	loc   *domain.Location
	err   error
	calls int
}

func (m *mockReverseGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (*domain.Location, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.loc, nil
}

func (m *mockReverseGeocoder) GeocodeCity(ctx context.Context, city, state string) (*domain.Location, error) {
	return nil, errors.New("not used")
}

func newTestPricing(d *mockDiscoverer, g *mockReverseGeocoder) *PricingService {
	var geocoder domain.Geocoder
	if g != nil {
		geocoder = g
	}
	return NewPricingService(d, region.NewModel(nil, region.Config{}), geocoder)
}

func TestCheckPrice_ByCity(t *testing.T) {
	d := &mockDiscoverer{price: 2.00}
	svc := newTestPricing(d, nil)

	got, err := svc.CheckPrice(context.Background(), &domain.PriceCheckRequest{Product: " Coke ", City: "Miami"})
	require.NoError(t, err)

	assert.True(t, got.Success)
	assert.Equal(t, "Coke", got.Product)
	assert.Equal(t, "Miami", got.City)
	assert.Equal(t, 2.00, got.Price)
	assert.Equal(t, "USD", got.Currency)
	assert.Equal(t, 1.15, got.Multiplier)
	assert.Equal(t, domain.LocationHigh, got.LocationType)
	assert.Equal(t, "Florida", got.State)
	assert.Nil(t, got.Coordinates)
	assert.Equal(t, []mockCall{{term: "Coke", city: "Miami"}}, d.calls)
}

func TestCheckPrice_ByCoordinates(t *testing.T) {
	d := &mockDiscoverer{price: 3.49}
	g := &mockReverseGeocoder{loc: &domain.Location{City: "Tallahassee", State: "Florida"}}
	svc := newTestPricing(d, g)

	coords := &domain.Coordinates{Latitude: 30.4383, Longitude: -84.2807}
	got, err := svc.CheckPrice(context.Background(), &domain.PriceCheckRequest{Product: "Milk", City: "Miami", Coordinates: coords})
	require.NoError(t, err)

	assert.Equal(t, "Tallahassee", got.City, "coordinates win over city")
	assert.Equal(t, 0.93, got.Multiplier)
	assert.Equal(t, domain.LocationLow, got.LocationType)
	require.NotNil(t, got.Coordinates)
	assert.Equal(t, *coords, *got.Coordinates)
	assert.Equal(t, "Tallahassee", d.calls[0].city)
}

func TestCheckPrice_OutOfRegionRejectedBeforeLookups(t *testing.T) {
	d := &mockDiscoverer{price: 1}
	g := &mockReverseGeocoder{loc: &domain.Location{City: "New York"}}
	svc := newTestPricing(d, g)

	_, err := svc.CheckPrice(context.Background(), &domain.PriceCheckRequest{
		Product:     "Coke",
		Coordinates: &domain.Coordinates{Latitude: 40.0, Longitude: -74.0},
	})

	assert.ErrorIs(t, err, domain.ErrOutOfRegion)
	assert.Equal(t, 0, g.calls)
	assert.Empty(t, d.calls)
}

func TestCheckPrice_Errors(t *testing.T) {
	tests := []struct {
		name    string
		req     *domain.PriceCheckRequest
		geo     *mockReverseGeocoder
		wantErr error
	}{
		{"nil request", nil, nil, domain.ErrInvalidRequest},
		{"missing product", &domain.PriceCheckRequest{City: "Miami"}, nil, domain.ErrMissingParameter},
		{"missing location", &domain.PriceCheckRequest{Product: "Coke"}, nil, domain.ErrMissingParameter},
		{
			"geocoder not configured",
			&domain.PriceCheckRequest{Product: "Coke", Coordinates: &domain.Coordinates{Latitude: 27, Longitude: -82}},
			nil, domain.ErrGeocodingFailure,
		},
		{
			"geocoding failure",
			&domain.PriceCheckRequest{Product: "Coke", Coordinates: &domain.Coordinates{Latitude: 27, Longitude: -82}},
			&mockReverseGeocoder{err: errors.New("network down")}, domain.ErrGeocodingFailure,
		},
		{
			"not in florida",
			&domain.PriceCheckRequest{Product: "Coke", Coordinates: &domain.Coordinates{Latitude: 30.9, Longitude: -86.9}},
			&mockReverseGeocoder{err: domain.ErrNotInFlorida}, domain.ErrNotInFlorida,
		},
		{
			"no city from coordinates",
			&domain.PriceCheckRequest{Product: "Coke", Coordinates: &domain.Coordinates{Latitude: 27, Longitude: -82}},
			&mockReverseGeocoder{loc: &domain.Location{}}, domain.ErrGeocodingFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &mockDiscoverer{price: 1}
			svc := newTestPricing(d, tt.geo)

			_, err := svc.CheckPrice(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, d.calls)
		})
	}
}

func TestCheckPrice_NoData(t *testing.T) {
	svc := newTestPricing(&mockDiscoverer{err: domain.ErrNoPriceData}, nil)

	got, err := svc.CheckPrice(context.Background(), &domain.PriceCheckRequest{Product: "Unobtainium", City: "Orlando"})
	assert.ErrorIs(t, err, domain.ErrNoPriceData)
	require.NotNil(t, got)
	assert.False(t, got.Success)
	assert.Equal(t, "Unobtainium", got.Product)
	assert.Equal(t, "Orlando", got.City)
}

func TestVendorPricing(t *testing.T) {
	svc := newTestPricing(&mockDiscoverer{price: 2.00}, nil)

	got, err := svc.VendorPricing(context.Background(), &domain.VendorRequest{Item: "Coke", City: "Jacksonville"})
	require.NoError(t, err)

	assert.True(t, got.Success)
	assert.Equal(t, 2.00, got.CompetitorAvg)
	assert.Equal(t, 1.90, got.RecommendedMin)
	assert.Equal(t, 2.10, got.RecommendedMax)
	assert.Equal(t, 0.95, got.Multiplier)
	assert.Equal(t, domain.LocationLow, got.LocationType)
	assert.Equal(t, "Florida", got.State)
}

func TestVendorPricing_Errors(t *testing.T) {
	svc := newTestPricing(&mockDiscoverer{err: domain.ErrNoPriceData}, nil)

	_, err := svc.VendorPricing(context.Background(), &domain.VendorRequest{City: "Miami"})
	assert.ErrorIs(t, err, domain.ErrMissingParameter)

	got, err := svc.VendorPricing(context.Background(), &domain.VendorRequest{Item: "Caviar", City: "Naples"})
	assert.ErrorIs(t, err, domain.ErrNoPriceData)
	assert.Equal(t, "Caviar", got.Item)
	assert.Equal(t, "Naples", got.City)
}

func TestVendorRange(t *testing.T) {
	tests := []struct {
		avg       float64
		low, high float64
	}{
		{2.00, 1.90, 2.10},
		{3.49, 3.32, 3.66},
		{0.99, 0.94, 1.04},
	}

	for _, tt := range tests {
		low, high := VendorRange(tt.avg)
		assert.Equal(t, tt.low, low, "low for %v", tt.avg)
		assert.Equal(t, tt.high, high, "high for %v", tt.avg)
	}
}

func TestValidateCoordinates(t *testing.T) {
	tests := []struct {
		lat, lon float64
		ok       bool
	}{
		{25.7617, -80.1918, true},
		{24.0, -87.0, true},
		{31.0, -80.0, true},
		{40.0, -74.0, false},
		{23.99, -81.0, false},
		{28.0, -79.99, false},
		{28.0, -87.01, false},
	}

	for _, tt := range tests {
		err := ValidateCoordinates(domain.Coordinates{Latitude: tt.lat, Longitude: tt.lon})
		if tt.ok {
			assert.NoError(t, err)
		} else {
			assert.ErrorIs(t, err, domain.ErrOutOfRegion)
		}
	}
}
