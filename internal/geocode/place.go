// Package geocode resolves delivery coordinates into postal address parts.
package geocode

import (
	"context"
	"strings"
)

// Reverser turns a coordinate pair into a Place.
type Reverser interface {
	Reverse(ctx context.Context, lat, lon float64) (*Place, error)
}

// Place is the address breakdown returned by a reverse lookup.
type Place struct {
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
}

var localityFields = []string{"city", "town", "village", "hamlet", "municipality"}

// NYC boroughs are reported as districts of "City of New York"; surface the district instead.
var nycDistrictFields = []string{"borough", "city_district", "suburb", "neighbourhood"}

// Locality returns the most specific settlement name for the place.
func (p *Place) Locality() string {
	if p == nil {
		return ""
	}
	city := firstField(p.Address, localityFields...)
	if isNewYorkCity(city) {
		if district := firstField(p.Address, nycDistrictFields...); district != "" {
			return district
		}
	}
	return city
}

// State returns the two-letter state code when known, else the raw state name.
func (p *Place) State() string {
	if p == nil {
		return ""
	}
	state := p.Address["state"]
	if abbr := StateAbbreviation(state); abbr != "" {
		return abbr
	}
	return state
}

func (p *Place) Postcode() string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(p.Address["postcode"])
}

func isNewYorkCity(city string) bool {
	switch strings.ToLower(city) {
	case "city of new york", "new york", "new york city":
		return true
	}
	return false
}

func firstField(m map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(m[k]); v != "" {
			return v
		}
	}
	return ""
}

// ComposeAddress keeps the street part of a known address (everything before
// the first comma) and appends "City, ST ZIP" from place. With no known
// address the place's house number and road become the street part.
func ComposeAddress(known string, place *Place) string {
	if place == nil {
		return strings.TrimSpace(known)
	}
	street := strings.TrimSpace(known)
	if i := strings.Index(street, ","); i >= 0 {
		street = strings.TrimSpace(street[:i])
	}
	if street == "" {
		street = strings.TrimSpace(strings.Join(nonEmpty(place.Address["house_number"], place.Address["road"]), " "))
	}

	stateZip := strings.Join(nonEmpty(place.State(), place.Postcode()), " ")
	parts := nonEmpty(street, place.Locality(), stateZip)
	if len(parts) == 0 {
		return strings.TrimSpace(place.DisplayName)
	}
	return strings.Join(parts, ", ")
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
