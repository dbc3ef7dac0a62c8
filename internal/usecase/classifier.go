package usecase

import (
	"github.com/shelfscout/backend/internal/domain"
)

// Keyword sets for classification, evaluated beverage first, then snack, then confection
var (
	beverageKeywords   = []string{"coke", "coca cola", "cola", "soda", "drink", "beverage"}
	beverageBulkTokens = []string{"pack", "case", "12", "24", "family", "bulk"}
	snackKeywords      = []string{"chip"}
	snackFamilyTokens  = []string{"family", "large"}
	confectionKeywords = []string{"chocolate"}
	confectionMulti    = []string{"pack", "case", "multi"}
)

var unbounded = domain.PriceEnvelope{Unbounded: true}

// categoryEnvelopes maps each category to its plausible unit-price range
var categoryEnvelopes = map[domain.ProductCategory]domain.PriceEnvelope{
	domain.CategoryBeverageSingle:   {Min: 0.50, Max: 5.00},
	domain.CategoryBeverageBulk:     unbounded,
	domain.CategorySnackRegular:     {Min: 1.00, Max: 7.00},
	domain.CategorySnackFamily:      {Min: 2.50, Max: 10.00},
	domain.CategoryConfectionSingle: {Min: 0.50, Max: 5.00},
	domain.CategoryConfectionMulti:  unbounded,
	domain.CategoryGeneric:          unbounded,
}

// Classify assigns a category to a product name from its keyword content
func Classify(itemName string) domain.ProductCategory {
	lower := normalizeName(itemName)

	switch {
	case mentionsAny(lower, beverageKeywords):
		if mentionsAny(lower, beverageBulkTokens) {
			return domain.CategoryBeverageBulk
		}
		return domain.CategoryBeverageSingle
	case mentionsAny(lower, snackKeywords):
		if mentionsAny(lower, snackFamilyTokens) {
			return domain.CategorySnackFamily
		}
		return domain.CategorySnackRegular
	case mentionsAny(lower, confectionKeywords):
		if mentionsAny(lower, confectionMulti) {
			return domain.CategoryConfectionMulti
		}
		return domain.CategoryConfectionSingle
	default:
		return domain.CategoryGeneric
	}
}

// EnvelopeFor returns the price envelope of a category. Unknown categories are unbounded.
func EnvelopeFor(category domain.ProductCategory) domain.PriceEnvelope {
	if env, ok := categoryEnvelopes[category]; ok {
		return env
	}
	return unbounded
}

// FilterByEnvelope returns a copy of pool restricted to the category envelope.
// Filtering is advisory: when nothing survives, a copy of the full pool is returned.
func FilterByEnvelope(pool []float64, category domain.ProductCategory) []float64 {
	envelope := EnvelopeFor(category)

	filtered := make([]float64, 0, len(pool))
	for _, p := range pool {
		if envelope.Contains(p) {
			filtered = append(filtered, p)
		}
	}

	if len(filtered) == 0 {
		return append([]float64(nil), pool...)
	}
	return filtered
}
