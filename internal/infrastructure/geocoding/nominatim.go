package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/shelfscout/backend/internal/domain"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "Florida-Pricing-Engine/1.0"

	maxAttempts = 3
	// zoom 10 asks Nominatim for city-level detail
	reverseZoom = "10"
)

// Config holds configuration for the Nominatim client
type Config struct {
	BaseURL   string
	UserAgent string
	// MinInterval is the minimum spacing between requests; the public
	// Nominatim usage policy allows one request per second
	MinInterval time.Duration
	Timeout     time.Duration
}

// Client talks to a Nominatim server. The rate limiter belongs to the
// instance, so two clients do not share a budget.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	rateLimiter *rate.Limiter
	backoff     func(attempt int) time.Duration
}

// NewClient creates a Nominatim client with defaults for unset fields
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		baseURL:     cfg.BaseURL,
		userAgent:   cfg.UserAgent,
		rateLimiter: rate.NewLimiter(rate.Every(cfg.MinInterval), 1),
		backoff:     exponentialBackoff,
	}
}

// exponentialBackoff returns the wait before retry number attempt: 500ms, 1s, 2s, ...
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// ReverseGeocode resolves coordinates to a Florida city.
// Returns domain.ErrNotInFlorida for points in another state.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (*domain.Location, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("zoom", reverseZoom)

	var place nominatimPlace
	if err := c.get(ctx, "/reverse", params, &place); err != nil {
		return nil, err
	}
	if place.Error != "" || place.Address == nil {
		return nil, fmt.Errorf("%w: no address for %.4f,%.4f", domain.ErrGeocodingFailure, lat, lon)
	}

	if !place.Address.inFlorida() {
		log.Info().
			Str("component", "geocoding").
			Str("state", place.Address.State).
			Float64("lat", lat).
			Float64("lon", lon).
			Msg("reverse geocode outside Florida")
		return nil, fmt.Errorf("%w: %s", domain.ErrNotInFlorida, place.Address.State)
	}

	loc := mapToLocation(&place, domain.Coordinates{})
	// callers asked about this exact point, not the centroid Nominatim snapped to
	loc.Coordinates = domain.Coordinates{Latitude: lat, Longitude: lon}
	if loc.City == "" {
		return nil, fmt.Errorf("%w: no city for %.4f,%.4f", domain.ErrGeocodingFailure, lat, lon)
	}
	return loc, nil
}

// GeocodeCity resolves "<city>, <state>, USA" to coordinates
func (c *Client) GeocodeCity(ctx context.Context, city, state string) (*domain.Location, error) {
	if state == "" {
		state = "Florida"
	}

	params := url.Values{}
	params.Set("q", fmt.Sprintf("%s, %s, USA", city, state))
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("addressdetails", "1")

	var places []nominatimPlace
	if err := c.get(ctx, "/search", params, &places); err != nil {
		return nil, err
	}
	if len(places) == 0 {
		return nil, fmt.Errorf("%w: city %q not found", domain.ErrGeocodingFailure, city)
	}

	loc := mapToLocation(&places[0], domain.Coordinates{})
	if loc.Coordinates == (domain.Coordinates{}) {
		return nil, fmt.Errorf("%w: no coordinates for %q", domain.ErrGeocodingFailure, city)
	}
	// keep the caller's spelling; the address block may name a suburb instead
	loc.City = city
	return loc, nil
}

// get performs a rate-limited GET with retries on transport errors, 429 and 5xx
func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepContext(ctx, c.backoff(attempt-1)); err != nil {
				return fmt.Errorf("%w: %v", domain.ErrGeocodingFailure, err)
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: rate limiter: %v", domain.ErrGeocodingFailure, err)
		}

		body, status, err := c.doRequest(ctx, reqURL)
		if err != nil {
			log.Warn().Str("component", "geocoding").Int("attempt", attempt).Err(err).Msg("request failed")
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}

		if status == http.StatusTooManyRequests || status >= http.StatusInternalServerError {
			log.Warn().Str("component", "geocoding").Int("attempt", attempt).Int("status", status).Msg("retryable status")
			lastErr = fmt.Errorf("%w: status %d", domain.ErrGeocodingFailure, status)
			continue
		}
		if status != http.StatusOK {
			return fmt.Errorf("%w: status %d", domain.ErrGeocodingFailure, status)
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", domain.ErrGeocodingFailure, err)
		}
		return nil
	}

	log.Error().Str("component", "geocoding").Str("path", path).Err(lastErr).Msg("all retries failed")
	return lastErr
}

// doRequest executes one GET and returns the body and status code
func (c *Client) doRequest(ctx context.Context, reqURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrGeocodingFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: failed to read body: %v", domain.ErrGeocodingFailure, err)
	}
	return body, resp.StatusCode, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
