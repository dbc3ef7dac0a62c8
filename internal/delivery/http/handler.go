package http

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/shelfscout/backend/internal/domain"
	"github.com/shelfscout/backend/internal/infrastructure/region"
)

const apiVersion = "1.0.0"

// listedCities are advertised by /api/cities besides the hubs. Any Florida city
// is accepted; unknown names are placed at the centre of the state.
var listedCities = []string{
	"naples", "sarasota", "gainesville", "pensacola",
	"clearwater", "fort lauderdale", "daytona beach",
}

var availableEndpoints = []string{
	"/api/health",
	"/api/price/check",
	"/api/price/vendor",
	"/api/cities",
}

// PricingService is the use case behind the price endpoints
type PricingService interface {
	CheckPrice(ctx context.Context, req *domain.PriceCheckRequest) (*domain.PriceCheckResult, error)
	VendorPricing(ctx context.Context, req *domain.VendorRequest) (*domain.VendorRecommendation, error)
}

// HubDirectory lists the reference hubs of the regional model
type HubDirectory interface {
	Hubs() []region.Hub
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	pricing PricingService
	hubs    HubDirectory
}

// NewHandler creates a new HTTP handler
func NewHandler(pricing PricingService, hubs HubDirectory) *Handler {
	return &Handler{
		pricing: pricing,
		hubs:    hubs,
	}
}

// endpoint names a price endpoint and its required parameter for error examples
type endpoint struct {
	path  string
	param string
}

var (
	checkEndpoint  = endpoint{path: "/api/price/check", param: "product"}
	vendorEndpoint = endpoint{path: "/api/price/vendor", param: "item"}
)

func (e endpoint) example(location string) string {
	return fmt.Sprintf("%s?%s=coca%%20cola&%s", e.path, e.param, location)
}

// Index describes the API
func (h *Handler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":        "Florida Regional Pricing API",
		"version":     apiVersion,
		"description": "Real-time price checking and vendor pricing recommendations for Florida",
		"endpoints": gin.H{
			"/api/health":       "Health check",
			"/api/price/check":  "Check price for a product (Consumer Mode)",
			"/api/price/vendor": "Get pricing recommendations (Vendor Mode)",
			"/api/cities":       "List supported Florida cities",
			"/metrics":          "Prometheus metrics",
		},
	})
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "Florida Pricing Engine",
	})
}

// ListCities lists the reference hubs and other well-known cities
func (h *Handler) ListCities(c *gin.Context) {
	var hubs []string
	if h.hubs != nil {
		for _, hub := range h.hubs.Hubs() {
			hubs = append(hubs, hub.Name)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"major_hubs":   hubs,
		"other_cities": listedCities,
		"note":         "Any Florida city can be used, but major hubs have more accurate pricing data",
	})
}

// CheckPrice handles consumer price checks (GET query or POST body)
func (h *Handler) CheckPrice(c *gin.Context) {
	params := readParams(c, checkEndpoint.param)

	coords, ok := h.validateParams(c, checkEndpoint, params)
	if !ok {
		return
	}

	result, err := h.pricing.CheckPrice(c.Request.Context(), &domain.PriceCheckRequest{
		Product:     params.name,
		City:        params.city,
		Coordinates: coords,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNoPriceData) {
			body := gin.H{
				"success":    false,
				"error":      "Could not find reliable price data",
				"suggestion": "Try a broader product name (e.g., 'Soda' instead of 'Coke')",
				"product":    params.name,
				"city":       params.city,
			}
			if result != nil {
				body["product"] = result.Product
				body["city"] = result.City
			}
			c.JSON(http.StatusNotFound, body)
			return
		}
		h.writeError(c, checkEndpoint, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// VendorPricing handles vendor pricing recommendations (GET query or POST body)
func (h *Handler) VendorPricing(c *gin.Context) {
	params := readParams(c, vendorEndpoint.param)

	coords, ok := h.validateParams(c, vendorEndpoint, params)
	if !ok {
		return
	}

	rec, err := h.pricing.VendorPricing(c.Request.Context(), &domain.VendorRequest{
		Item:        params.name,
		City:        params.city,
		Coordinates: coords,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNoPriceData) {
			body := gin.H{
				"success": false,
				"error":   "Data unavailable for this item",
				"item":    params.name,
				"city":    params.city,
			}
			if rec != nil {
				body["item"] = rec.Item
				body["city"] = rec.City
			}
			c.JSON(http.StatusNotFound, body)
			return
		}
		h.writeError(c, vendorEndpoint, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// NotFound lists the available endpoints
func (h *Handler) NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"error":               "Endpoint not found",
		"available_endpoints": availableEndpoints,
	})
}

// validateParams rejects requests that lack a name or a location, or whose
// coordinates are not decimals. It writes the 400 response itself.
func (h *Handler) validateParams(c *gin.Context, e endpoint, p priceParams) (*domain.Coordinates, bool) {
	if p.name == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   fmt.Sprintf("Missing required parameter: '%s'", e.param),
			"example": e.example("city=miami"),
		})
		return nil, false
	}

	coords, err := p.coordinates()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid coordinate format. Use decimal numbers.",
		})
		return nil, false
	}

	if coords == nil && p.city == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":        "Missing location: provide either 'city' or 'latitude'/'longitude'",
			"example_city": e.example("city=miami"),
			"example_gps":  e.example("latitude=25.7617&longitude=-80.1918"),
		})
		return nil, false
	}

	return coords, true
}

// writeError maps use case errors to HTTP responses
func (h *Handler) writeError(c *gin.Context, e endpoint, err error) {
	switch {
	case errors.Is(err, domain.ErrOutOfRegion):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Coordinates are outside Florida bounds",
			"note":  "Florida coordinates: 24-31°N, 80-87°W",
		})
	case errors.Is(err, domain.ErrGeocodingFailure), errors.Is(err, domain.ErrNotInFlorida):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to geocode coordinates",
			"details": err.Error(),
		})
	case errors.Is(err, domain.ErrMissingParameter), errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   err.Error(),
			"example": e.example("city=miami"),
		})
	default:
		log.Error().
			Str("component", "http").
			Str("path", e.path).
			Err(err).
			Msg("price request failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
	}
}

// priceParams are the raw inputs of a price endpoint
type priceParams struct {
	name      string
	city      string
	latitude  string
	longitude string
}

// coordinates returns nil unless both latitude and longitude were given
func (p priceParams) coordinates() (*domain.Coordinates, error) {
	if p.latitude == "" || p.longitude == "" {
		return nil, nil
	}

	lat, err := parseDecimal(p.latitude)
	if err != nil {
		return nil, err
	}
	lon, err := parseDecimal(p.longitude)
	if err != nil {
		return nil, err
	}

	return &domain.Coordinates{Latitude: lat, Longitude: lon}, nil
}

func parseDecimal(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidCoordinates, s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidCoordinates, s)
	}
	return v, nil
}

// readParams collects parameters from the query string on GET, and from the
// JSON body with a form fallback on POST
func readParams(c *gin.Context, nameKey string) priceParams {
	lookup := c.Query
	if c.Request.Method == http.MethodPost {
		body := jsonBody(c)
		lookup = func(key string) string {
			if v := body[key]; v != "" {
				return v
			}
			return c.PostForm(key)
		}
	}

	get := func(keys ...string) string {
		for _, k := range keys {
			if v := strings.TrimSpace(lookup(k)); v != "" {
				return v
			}
		}
		return ""
	}

	return priceParams{
		name:      get(nameKey),
		city:      get("city"),
		latitude:  get("latitude", "lat"),
		longitude: get("longitude", "lon"),
	}
}

// jsonBody decodes a JSON object body into strings. Numbers keep their
// shortest decimal form so {"lat": 25.76} and {"lat": "25.76"} read the same.
func jsonBody(c *gin.Context) map[string]string {
	values := map[string]string{}
	if c.ContentType() != gin.MIMEJSON {
		return values
	}

	var raw map[string]interface{}
	if err := c.ShouldBindJSON(&raw); err != nil {
		log.Debug().Str("component", "http").Err(err).Msg("ignoring malformed JSON body")
		return values
	}

	for k, v := range raw {
		switch val := v.(type) {
		case nil:
		case string:
			values[k] = val
		case float64:
			values[k] = strconv.FormatFloat(val, 'f', -1, 64)
		default:
			values[k] = fmt.Sprint(val)
		}
	}
	return values
}
