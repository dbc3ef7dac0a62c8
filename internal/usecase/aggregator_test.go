package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfscout/backend/internal/domain"
)

func TestNewAggregator(t *testing.T) {
	assert.Equal(t, DefaultTrimDivisor, NewAggregator(0).trimDivisor)
	assert.Equal(t, DefaultTrimDivisor, NewAggregator(1).trimDivisor)
	assert.Equal(t, 4, NewAggregator(4).trimDivisor)
}

func TestAggregate(t *testing.T) {
	agg := NewAggregator(DefaultTrimDivisor)

	tests := []struct {
		name   string
		pool   []float64
		want   float64
		wantOK bool
	}{
		{name: "empty pool", pool: nil, wantOK: false},
		{name: "empty non-nil pool", pool: []float64{}, wantOK: false},
		{name: "single value", pool: []float64{3.49}, want: 3.49, wantOK: true},
		{name: "four values not trimmed", pool: []float64{1, 2, 3, 10}, want: 4.00, wantOK: true},
		{name: "five values trims one each end", pool: []float64{10, 1, 2, 3, 4}, want: 3.00, wantOK: true},
		{name: "ten values trims two each end", pool: []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 100}, want: 5.50, wantOK: true},
		{name: "rounds to cents", pool: []float64{1.00, 1.00, 1.01}, want: 1.00, wantOK: true},
		{name: "rounds half up", pool: []float64{1.005}, want: 1.01, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := agg.Aggregate(tt.pool)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestTrimRemovesSymmetricFifth(t *testing.T) {
	agg := NewAggregator(DefaultTrimDivisor)

	for n := 0; n <= 23; n++ {
		pool := make([]float64, n)
		for i := range pool {
			pool[n-1-i] = float64(i + 1)
		}

		trimmed := agg.Trim(pool)

		wantTrim := 0
		if n > 4 {
			wantTrim = n / 5
		}
		require.Len(t, trimmed, n-2*wantTrim, "n=%d", n)
		if len(trimmed) > 0 {
			assert.Equal(t, float64(wantTrim+1), trimmed[0], "n=%d lowest kept", n)
			assert.Equal(t, float64(n-wantTrim), trimmed[len(trimmed)-1], "n=%d highest kept", n)
		}
	}
}

func TestAggregateDoesNotMutatePool(t *testing.T) {
	pool := []float64{5, 4, 3, 2, 1}
	NewAggregator(0).Aggregate(pool)
	assert.Equal(t, []float64{5, 4, 3, 2, 1}, pool)
}

// A beverage pool with one 12-pack price: envelope drops it, trim drops the extremes.
func TestFilterThenAggregateSingleBeverage(t *testing.T) {
	pool := []float64{1.89, 1.95, 1.99, 2.05, 2.10, 10.50}

	filtered := FilterByEnvelope(pool, domain.CategoryBeverageSingle)
	assert.Equal(t, []float64{1.89, 1.95, 1.99, 2.05, 2.10}, filtered)

	agg := NewAggregator(DefaultTrimDivisor)
	assert.Equal(t, []float64{1.95, 1.99, 2.05}, agg.Trim(filtered))

	got, ok := agg.Aggregate(filtered)
	require.True(t, ok)
	assert.Equal(t, 2.00, got)
}

func TestRoundTo(t *testing.T) {
	assert.Equal(t, 1.042, RoundTo(1.04167, 3))
	assert.Equal(t, 2.1, RoundTo(2.0999, 2))
}
