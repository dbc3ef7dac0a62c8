package usecase

import (
	"sort"

	"github.com/shopspring/decimal"
)

const (
	// DefaultTrimDivisor drops len/5 (20%) of the sorted pool from each end
	DefaultTrimDivisor = 5

	// minTrimmedPoolSize is the largest pool averaged without trimming
	minTrimmedPoolSize = 4
)

// Aggregator reduces a candidate pool to one currency-rounded estimate
type Aggregator struct {
	trimDivisor int
}

// NewAggregator creates an aggregator. trimDivisor < 2 falls back to DefaultTrimDivisor.
func NewAggregator(trimDivisor int) *Aggregator {
	if trimDivisor < 2 {
		trimDivisor = DefaultTrimDivisor
	}
	return &Aggregator{trimDivisor: trimDivisor}
}

// Aggregate returns the symmetric trimmed mean of pool rounded to cents.
// ok is false if and only if pool is empty. pool is not modified.
func (a *Aggregator) Aggregate(pool []float64) (value float64, ok bool) {
	if len(pool) == 0 {
		return 0, false
	}

	kept := a.Trim(pool)

	sum := decimal.Zero
	for _, p := range kept {
		sum = sum.Add(decimal.NewFromFloat(p))
	}
	mean := sum.Div(decimal.NewFromInt(int64(len(kept))))

	return RoundCurrency(mean), true
}

// Trim returns a sorted copy of pool with len/trimDivisor elements removed from
// each end. Pools of four or fewer elements are only sorted.
func (a *Aggregator) Trim(pool []float64) []float64 {
	sorted := append([]float64(nil), pool...)
	sort.Float64s(sorted)

	if len(sorted) <= minTrimmedPoolSize {
		return sorted
	}

	trim := len(sorted) / a.trimDivisor
	return sorted[trim : len(sorted)-trim]
}

// RoundCurrency rounds half away from zero to two decimal places
func RoundCurrency(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// RoundTo rounds v to the given number of decimal places
func RoundTo(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
