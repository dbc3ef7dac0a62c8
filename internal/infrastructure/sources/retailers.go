package sources

import (
	"fmt"
	"net/url"

	"github.com/shelfscout/backend/internal/domain"
)

// Source names, in the order the primary chain queries them
const (
	Walmart        = "walmart"
	Target         = "target"
	Instacart      = "instacart"
	Publix         = "publix"
	GoogleShopping = "google_shopping"
)

func walmartURL(term, _ string) string {
	return "https://www.walmart.com/search?q=" + url.QueryEscape(term)
}

func targetURL(term, _ string) string {
	return "https://www.target.com/s?searchTerm=" + url.QueryEscape(term)
}

// Publix is behind a login on its own site; Instacart's Publix storefront is not
func instacartPublixURL(term, _ string) string {
	return "https://www.instacart.com/store/publix/search_v3/" + url.PathEscape(term)
}

func publixURL(term, _ string) string {
	return "https://www.publix.com/shop/search?query=" + url.QueryEscape(term)
}

// ShoppingQuery is the free-text query sent to the shopping search fallback
func ShoppingQuery(itemName, city string) string {
	return fmt.Sprintf("%s price %s Florida grocery store", itemName, city)
}

func googleShoppingURL(term, city string) string {
	return "https://www.google.com/search?q=" + url.QueryEscape(ShoppingQuery(term, city)) + "&tbm=shop"
}

// Primary returns the retailer chain in query order
func Primary(deps Deps) []domain.PriceSource {
	return []domain.PriceSource{
		newSource(Walmart, deps,
			strategy{kind: viaRenderer, url: walmartURL},
			strategy{kind: viaHTTP, url: walmartURL, referer: googleReferer},
		),
		newSource(Target, deps,
			strategy{kind: viaRenderer, url: targetURL},
			strategy{kind: viaHTTP, url: targetURL},
		),
		newSource(Instacart, deps,
			strategy{kind: viaRenderer, url: instacartPublixURL},
		),
		newSource(Publix, deps,
			strategy{kind: viaRenderer, url: instacartPublixURL},
			strategy{kind: viaHTTP, url: publixURL},
		),
	}
}

// Fallback returns the broad shopping search used when the chain finds nothing.
// It is queried with the original item name and the city.
func Fallback(deps Deps) domain.PriceSource {
	s := newSource(GoogleShopping, deps,
		strategy{kind: viaRenderer, url: googleShoppingURL},
		strategy{kind: viaHTTP, url: googleShoppingURL},
	)
	s.exclusive = true
	return s
}
