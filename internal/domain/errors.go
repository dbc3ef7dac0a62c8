package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoPriceData is returned when every term, every source and the fallback source produced no candidates
	ErrNoPriceData = errors.New("no reliable price data found")

	// ErrSourceUnavailable is returned when one source could not be fetched or parsed
	ErrSourceUnavailable = errors.New("price source unavailable")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrMissingParameter is returned when a required request parameter is absent
	ErrMissingParameter = errors.New("missing required parameter")

	// ErrInvalidCoordinates is returned when latitude/longitude cannot be parsed
	ErrInvalidCoordinates = errors.New("invalid coordinate format")

	// ErrOutOfRegion is returned when coordinates fall outside the supported region
	ErrOutOfRegion = errors.New("coordinates are outside Florida bounds")

	// ErrGeocodingFailure is returned when reverse or forward geocoding fails
	ErrGeocodingFailure = errors.New("geocoding failed")

	// ErrNotInFlorida is returned when a geocoded location lies in another state
	ErrNotInFlorida = errors.New("location is not in Florida")

	// ErrBrowserUnavailable is returned when no page-rendering session can be launched
	ErrBrowserUnavailable = errors.New("page rendering browser unavailable")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)

// FetchError records why one source failed for one search term.
type FetchError struct {
	Source string
	Term   string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("source %s (term %q): %v", e.Source, e.Term, e.Err)
}

// Unwrap exposes both the cause and ErrSourceUnavailable to errors.Is.
func (e *FetchError) Unwrap() []error {
	return []error{ErrSourceUnavailable, e.Err}
}
