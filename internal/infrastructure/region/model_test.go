package region

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shelfscout/backend/internal/domain"
)

// stubGeocoder answers GeocodeCity from a fixed table
type stubGeocoder struct {
	cities map[string]domain.Coordinates
	calls  int
}

func (s *stubGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (*domain.Location, error) {
	return nil, errors.New("not implemented")
}

func (s *stubGeocoder) GeocodeCity(ctx context.Context, city, state string) (*domain.Location, error) {
	s.calls++
	c, ok := s.cities[city]
	if !ok {
		return nil, domain.ErrGeocodingFailure
	}
	return &domain.Location{City: city, State: state, Coordinates: c}, nil
}

func TestMultiplierForCoordinates_ExactHubReturnsIndex(t *testing.T) {
	m := NewModel(nil, Config{})

	for _, h := range m.Hubs() {
		t.Run(h.Name, func(t *testing.T) {
			got := m.MultiplierForCoordinates(h.Coordinates.Latitude, h.Coordinates.Longitude)
			assert.Equal(t, h.Index, got)
		})
	}
}

func TestMultiplierForCoordinates_Interpolates(t *testing.T) {
	m := NewModel(nil, Config{})

	t.Run("stays within hub range", func(t *testing.T) {
		points := []domain.Coordinates{
			{Latitude: 26.1420, Longitude: -81.7948},
			{Latitude: 30.4213, Longitude: -87.2169},
			{Latitude: 24.0, Longitude: -80.0},
			{Latitude: 31.0, Longitude: -87.0},
		}
		for _, p := range points {
			got := m.MultiplierForCoordinates(p.Latitude, p.Longitude)
			assert.GreaterOrEqual(t, got, 0.93)
			assert.LessOrEqual(t, got, 1.25)
		}
	})

	t.Run("nearest hub dominates", func(t *testing.T) {
		nearMiami := m.MultiplierForCoordinates(25.77, -80.20)
		assert.InDelta(t, 1.15, nearMiami, 0.01)

		nearTallahassee := m.MultiplierForCoordinates(30.44, -84.28)
		assert.InDelta(t, 0.93, nearTallahassee, 0.01)
	})

	t.Run("fort lauderdale is pulled toward miami", func(t *testing.T) {
		got := m.MultiplierForCity(context.Background(), "Fort Lauderdale")
		assert.Greater(t, got, 1.05)
		assert.Less(t, got, 1.15)
	})
}

func TestCoordinatesFor(t *testing.T) {
	m := NewModel(nil, Config{})
	ctx := context.Background()

	tests := []struct {
		name string
		city string
		want domain.Coordinates
	}{
		{"hub", "miami", domain.Coordinates{Latitude: 25.7617, Longitude: -80.1918}},
		{"case and spacing", "  Key   West ", domain.Coordinates{Latitude: 24.5551, Longitude: -81.7800}},
		{"other city", "Naples", domain.Coordinates{Latitude: 26.1420, Longitude: -81.7948}},
		{"one typo", "Tallahasee", domain.Coordinates{Latitude: 30.4383, Longitude: -84.2807}},
		{"one typo in other city", "Sarasotta", domain.Coordinates{Latitude: 27.3364, Longitude: -82.5307}},
		{"too many typos", "Talahasee", FloridaCenter},
		{"short names need exact match", "Mimi", FloridaCenter},
		{"unknown city", "Daytona Beach", FloridaCenter},
		{"empty", "", FloridaCenter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.CoordinatesFor(ctx, tt.city))
		})
	}
}

func TestMultiplierForCity_UnknownUsesCenter(t *testing.T) {
	m := NewModel(nil, Config{})

	// the centre coincides with the orlando hub
	assert.Equal(t, 1.02, m.MultiplierForCity(context.Background(), "Atlantis"))
}

func TestCoordinatesFor_Geocoding(t *testing.T) {
	daytona := domain.Coordinates{Latitude: 29.2108, Longitude: -81.0228}

	t.Run("enabled", func(t *testing.T) {
		g := &stubGeocoder{cities: map[string]domain.Coordinates{"Daytona Beach": daytona}}
		m := NewModel(g, Config{GeocodeUnknownCities: true})

		assert.Equal(t, daytona, m.CoordinatesFor(context.Background(), "Daytona Beach"))
		assert.Equal(t, FloridaCenter, m.CoordinatesFor(context.Background(), "Nowhere"))
		assert.Equal(t, 2, g.calls)
	})

	t.Run("known cities skip the geocoder", func(t *testing.T) {
		g := &stubGeocoder{}
		m := NewModel(g, Config{GeocodeUnknownCities: true})

		m.CoordinatesFor(context.Background(), "Tampa")
		assert.Equal(t, 0, g.calls)
	})

	t.Run("disabled", func(t *testing.T) {
		g := &stubGeocoder{cities: map[string]domain.Coordinates{"Daytona Beach": daytona}}
		m := NewModel(g, Config{})

		assert.Equal(t, FloridaCenter, m.CoordinatesFor(context.Background(), "Daytona Beach"))
		assert.Equal(t, 0, g.calls)
	})
}

func TestClassifyLocation(t *testing.T) {
	tests := []struct {
		multiplier float64
		want       domain.LocationType
	}{
		{1.10, domain.LocationHigh},
		{1.25, domain.LocationHigh},
		{1.0501, domain.LocationHigh},
		{1.05, domain.LocationMedium},
		{1.00, domain.LocationMedium},
		{0.98, domain.LocationMedium},
		{0.97, domain.LocationLow},
		{0.93, domain.LocationLow},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyLocation(tt.multiplier), "multiplier %v", tt.multiplier)
	}
}

func TestWithinOneEdit(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"miami", "miami", true},
		{"miamii", "miami", true},
		{"maimi", "miami", false},
		{"orlanda", "orlando", true},
		{"orl", "orlando", false},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, withinOneEdit(tt.a, tt.b))
		})
	}
}
