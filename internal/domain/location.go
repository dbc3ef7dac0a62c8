package domain

// LocationType is the caller-facing cost classification of a regional multiplier
type LocationType string

const (
	LocationHigh   LocationType = "HIGH"
	LocationMedium LocationType = "MEDIUM"
	LocationLow    LocationType = "LOW"
)

// Coordinates is a latitude/longitude pair in decimal degrees
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location is the result of a geocoding lookup
type Location struct {
	City        string      `json:"city"`
	State       string      `json:"state"`
	StateCode   string      `json:"state_code,omitempty"`
	County      string      `json:"county,omitempty"`
	Coordinates Coordinates `json:"coordinates"`
	FullAddress string      `json:"full_address,omitempty"`
}

// PriceCheckRequest is a consumer price check; either City or Coordinates must be set
type PriceCheckRequest struct {
	Product     string
	City        string
	Coordinates *Coordinates
}

// PriceCheckResult is the consumer-mode answer
type PriceCheckResult struct {
	Success      bool         `json:"success"`
	Product      string       `json:"product"`
	City         string       `json:"city"`
	Price        float64      `json:"price"`
	Currency     string       `json:"currency"`
	LocationType LocationType `json:"location_type"`
	Multiplier   float64      `json:"multiplier"`
	State        string       `json:"state"`
	Coordinates  *Coordinates `json:"coordinates,omitempty"`
}

// VendorRequest asks for a recommended selling range; either City or Coordinates must be set
type VendorRequest struct {
	Item        string
	City        string
	Coordinates *Coordinates
}

// VendorRecommendation is the vendor-mode answer
type VendorRecommendation struct {
	Success        bool         `json:"success"`
	Item           string       `json:"item"`
	City           string       `json:"city"`
	CompetitorAvg  float64      `json:"competitor_avg"`
	RecommendedMin float64      `json:"recommended_min"`
	RecommendedMax float64      `json:"recommended_max"`
	LocationType   LocationType `json:"location_type"`
	Multiplier     float64      `json:"multiplier"`
	State          string       `json:"state"`
	Coordinates    *Coordinates `json:"coordinates,omitempty"`
}
