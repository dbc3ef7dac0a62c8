package domain

import "time"

// PriceQuery is the immutable input of one discovery run
type PriceQuery struct {
	ItemName string `json:"itemName"`
	City     string `json:"city"`
}

// ProductCategory selects the plausible price envelope for a query
type ProductCategory string

const (
	CategoryBeverageSingle   ProductCategory = "beverage_single"
	CategoryBeverageBulk     ProductCategory = "beverage_bulk"
	CategorySnackRegular     ProductCategory = "snack_regular"
	CategorySnackFamily      ProductCategory = "snack_family"
	CategoryConfectionSingle ProductCategory = "confection_single"
	CategoryConfectionMulti  ProductCategory = "confection_multi"
	CategoryGeneric          ProductCategory = "generic"
)

// PriceEnvelope is an inclusive price range. An unbounded envelope filters nothing.
type PriceEnvelope struct {
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Unbounded bool    `json:"unbounded"`
}

// Contains reports whether price lies inside the envelope
func (e PriceEnvelope) Contains(price float64) bool {
	if e.Unbounded {
		return true
	}
	return price >= e.Min && price <= e.Max
}

// SourceAttempt is the outcome of one (term, source) fetch. Err is nil on success.
type SourceAttempt struct {
	Source   string        `json:"source"`
	Term     string        `json:"term"`
	Prices   []float64     `json:"prices,omitempty"`
	Err      error         `json:"-"`
	Duration time.Duration `json:"duration"`
	Fallback bool          `json:"fallback,omitempty"`
}

// Succeeded reports whether the attempt completed without a fetch error
func (a SourceAttempt) Succeeded() bool {
	return a.Err == nil
}

// Discovery is the full result of one discovery run, including diagnostics
type Discovery struct {
	Query        PriceQuery      `json:"query"`
	Terms        []string        `json:"terms"`
	Attempts     []SourceAttempt `json:"attempts"`
	RawPool      []float64       `json:"rawPool"`
	Category     ProductCategory `json:"category"`
	Filtered     []float64       `json:"filtered"`
	Price        float64         `json:"price"`
	Found        bool            `json:"found"`
	UsedFallback bool            `json:"usedFallback"`
}
