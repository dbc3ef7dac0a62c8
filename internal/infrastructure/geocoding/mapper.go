package geocoding

import (
	"strconv"
	"strings"

	"github.com/shelfscout/backend/internal/domain"
)

// floridaStateCode is the ISO 3166-2 subdivision suffix Nominatim reports for Florida
const floridaStateCode = "FL"

// nominatimAddress is the subset of the addressdetails block we read
type nominatimAddress struct {
	City         string `json:"city"`
	Town         string `json:"town"`
	Village      string `json:"village"`
	Municipality string `json:"municipality"`
	County       string `json:"county"`
	State        string `json:"state"`
	StateCode    string `json:"state_code"`
	ISO3166      string `json:"ISO3166-2-lvl4"`
}

// nominatimPlace is one reverse or search result
type nominatimPlace struct {
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	DisplayName string            `json:"display_name"`
	Address     *nominatimAddress `json:"address"`
	Error       string            `json:"error"`
}

// cityName picks the most specific settlement name available. Rural points
// often carry only a county, which is used without its " County" suffix.
func (a *nominatimAddress) cityName() string {
	for _, name := range []string{a.City, a.Town, a.Village, a.Municipality} {
		if name != "" {
			return name
		}
	}
	return trimCounty(a.County)
}

// stateCode returns the two-letter state code, reading the ISO field when
// the plain one is missing ("US-FL" -> "FL")
func (a *nominatimAddress) stateCode() string {
	if a.StateCode != "" {
		return strings.ToUpper(a.StateCode)
	}
	if _, code, ok := strings.Cut(a.ISO3166, "-"); ok {
		return strings.ToUpper(code)
	}
	return ""
}

// inFlorida accepts either signal: the state code or the state name
func (a *nominatimAddress) inFlorida() bool {
	return a.stateCode() == floridaStateCode || strings.Contains(strings.ToLower(a.State), "florida")
}

func trimCounty(county string) string {
	return strings.TrimSpace(strings.Replace(county, " County", "", 1))
}

// mapToLocation converts a Nominatim place to our domain Location.
// coords are used when the place does not carry parseable coordinates.
func mapToLocation(p *nominatimPlace, coords domain.Coordinates) *domain.Location {
	loc := &domain.Location{
		Coordinates: coords,
		FullAddress: p.DisplayName,
	}

	if lat, err := strconv.ParseFloat(p.Lat, 64); err == nil {
		if lon, err := strconv.ParseFloat(p.Lon, 64); err == nil {
			loc.Coordinates = domain.Coordinates{Latitude: lat, Longitude: lon}
		}
	}

	if p.Address != nil {
		loc.City = p.Address.cityName()
		loc.State = p.Address.State
		loc.StateCode = p.Address.stateCode()
		loc.County = trimCounty(p.Address.County)
	}

	return loc
}
