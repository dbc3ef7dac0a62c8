package usecase

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxSearchTerms caps the number of query variants tried per discovery run,
// the original name included.
const MaxSearchTerms = 3

// Keyword sets used by the expander, checked against the lower-cased item name
var (
	colaKeywords      = []string{"coke", "coca cola", "cola"}
	bulkDrinkSignals  = []string{"pack", "case", "12", "24"}
	genericSodaTokens = []string{"soda", "pop"}
)

// SearchTermExpander turns one product name into an ordered list of query variants
type SearchTermExpander struct {
	maxTerms int
}

// NewSearchTermExpander creates an expander. maxTerms outside 1..MaxSearchTerms falls back to MaxSearchTerms.
func NewSearchTermExpander(maxTerms int) *SearchTermExpander {
	if maxTerms <= 0 || maxTerms > MaxSearchTerms {
		maxTerms = MaxSearchTerms
	}
	return &SearchTermExpander{maxTerms: maxTerms}
}

// Expand returns the variants to try, in order. The first entry is always the
// original name; the rules are not exclusive, so drink, chip and chocolate
// variants can all be appended before the cap is applied.
func (e *SearchTermExpander) Expand(itemName string) []string {
	lower := normalizeName(itemName)
	terms := []string{itemName}

	// Drinks: "coke" rarely matches retailer listings, "coca cola" does
	switch {
	case mentionsAny(lower, colaKeywords) && !mentions(lower, "coca cola"):
		if !mentionsAny(lower, bulkDrinkSignals) {
			terms = append(terms, "coca cola 20 oz", "coca cola can", "coca cola bottle")
		}
		terms = append(terms, "coca cola", "coca cola 2 liter")
	case mentions(lower, "coca cola"):
		terms = append(terms, "coca cola 2 liter", "coca cola 20 oz", "coca cola can", "coke")
	case mentionsAny(lower, genericSodaTokens):
		terms = append(terms, "soda 2 liter")
	}

	if mentions(lower, "chip") {
		if !mentions(lower, "bag") && !mentions(lower, "family") {
			terms = append(terms, itemName+" bag")
		}
		terms = append(terms, "potato chips")
	}

	if mentions(lower, "chocolate") {
		if !mentions(lower, "bar") {
			terms = append(terms, itemName+" bar")
		}
		terms = append(terms, "chocolate bar")
	}

	if len(terms) > e.maxTerms {
		terms = terms[:e.maxTerms]
	}
	return terms
}

// normalizeName lower-cases a name and turns hyphens into spaces so that
// "Coca-Cola" and "coca cola" read the same
func normalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "-", " ")
}

// mentions reports whether keyword occurs in s at the start of a word.
// "chip" matches "chips" but "cola" does not match "chocolate".
func mentions(s, keyword string) bool {
	for offset := 0; offset < len(s); {
		idx := strings.Index(s[offset:], keyword)
		if idx < 0 {
			return false
		}
		pos := offset + idx
		if pos == 0 {
			return true
		}
		if prev, _ := utf8.DecodeLastRuneInString(s[:pos]); !isWordChar(prev) {
			return true
		}
		offset = pos + 1
	}
	return false
}

// mentionsAny reports whether any keyword is mentioned in s
func mentionsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if mentions(s, kw) {
			return true
		}
	}
	return false
}

func isWordChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
