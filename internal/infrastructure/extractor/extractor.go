package extractor

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Plausibility bound for a grocery unit price; both ends are exclusive
const (
	MinPlausiblePrice = 0.50
	MaxPlausiblePrice = 200.00
)

// Per-layer caps on how much of a page is scanned
const (
	maxElementsPerSelector = 15
	maxFreeTextMatches     = 20
)

// priceSelectors are tried in order; every selector contributes
var priceSelectors = []string{
	`[data-automation-id="product-price"]`,
	`.price-current`,
	`[itemprop="price"]`,
	`[data-testid="price"]`,
	`.price`,
	`[class*="price"]`,
	`[class*="Price"]`,
	`span[class*="currency"]`,
	`[data-price]`,
}

var (
	// loose pattern for price elements: "$3.49", "3.49", "$ 12"
	selectorPricePattern = regexp.MustCompile(`\$?\s*(\d+\.?\d{0,2})`)

	// strict pattern for free text: "$3.49" only
	textPricePattern = regexp.MustCompile(`\$\s*(\d+\.\d{2})`)
)

// Extractor pulls candidate prices out of retailer pages
type Extractor struct {
	min float64
	max float64
}

// New creates an extractor using the default plausibility bound
func New() *Extractor {
	return &Extractor{min: MinPlausiblePrice, max: MaxPlausiblePrice}
}

// Extract runs the structured-data, selector and free-text layers over content
// and returns the union of their plausible candidates in discovery order.
// Malformed markup or JSON never fails the call; the affected layer just yields nothing.
func (e *Extractor) Extract(content string) []float64 {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return e.fromText(content)
	}

	var prices []float64
	prices = append(prices, e.fromStructuredData(doc)...)
	prices = append(prices, e.fromSelectors(doc)...)
	prices = append(prices, e.fromText(visibleText(doc))...)
	return prices
}

// Plausible reports whether price lies strictly inside the plausibility bound
func (e *Extractor) Plausible(price float64) bool {
	return price > e.min && price < e.max
}

// fromStructuredData reads JSON-LD offer records
func (e *Extractor) fromStructuredData(doc *goquery.Document) []float64 {
	var prices []float64

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var data interface{}
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return
		}
		for _, record := range structuredRecords(data) {
			if price, ok := recordPrice(record); ok && e.Plausible(price) {
				prices = append(prices, price)
			}
		}
	})

	return prices
}

// structuredRecords flattens a JSON-LD payload into its top-level objects
func structuredRecords(data interface{}) []map[string]interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		records := []map[string]interface{}{v}
		if graph, ok := v["@graph"].([]interface{}); ok {
			records = append(records, structuredRecords(graph)...)
		}
		return records
	case []interface{}:
		var records []map[string]interface{}
		for _, item := range v {
			if m, ok := item.(map[string]interface{}); ok {
				records = append(records, m)
			}
		}
		return records
	default:
		return nil
	}
}

// recordPrice prefers offers.price and falls back to a top-level price field
func recordPrice(record map[string]interface{}) (float64, bool) {
	switch offers := record["offers"].(type) {
	case map[string]interface{}:
		if price, ok := parsePrice(offers["price"]); ok {
			return price, true
		}
		if price, ok := parsePrice(offers["lowPrice"]); ok {
			return price, true
		}
	case []interface{}:
		for _, o := range offers {
			if m, ok := o.(map[string]interface{}); ok {
				if price, ok := parsePrice(m["price"]); ok {
					return price, true
				}
			}
		}
	}
	return parsePrice(record["price"])
}

// parsePrice accepts JSON numbers and numeric strings
func parsePrice(v interface{}) (float64, bool) {
	switch p := v.(type) {
	case float64:
		return p, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// fromSelectors scans the known price elements
func (e *Extractor) fromSelectors(doc *goquery.Document) []float64 {
	var prices []float64

	for _, selector := range priceSelectors {
		matched := doc.Find(selector)
		limit := min(matched.Length(), maxElementsPerSelector)

		matched.Slice(0, limit).Each(func(_ int, s *goquery.Selection) {
			text := strings.ReplaceAll(s.Text(), ",", "")
			for _, m := range selectorPricePattern.FindAllStringSubmatch(text, -1) {
				if price, err := strconv.ParseFloat(m[1], 64); err == nil && e.Plausible(price) {
					prices = append(prices, price)
				}
			}
		})
	}

	return prices
}

// fromText applies the strict dollar pattern to rendered text
func (e *Extractor) fromText(text string) []float64 {
	var prices []float64

	for _, m := range textPricePattern.FindAllStringSubmatch(text, maxFreeTextMatches) {
		if price, err := strconv.ParseFloat(m[1], 64); err == nil && e.Plausible(price) {
			prices = append(prices, price)
		}
	}

	return prices
}

// visibleText returns the document text without script and style bodies
func visibleText(doc *goquery.Document) string {
	body := doc.Selection.Clone()
	body.Find("script, style, noscript, template").Remove()
	return body.Text()
}
