package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// GeoPoint is a WGS84 coordinate pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point lies in WGS84 range.
func (p GeoPoint) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Zip tolerates numeric zips in hand-authored JSON ("41101.0" or 41101.0)
// and always marshals back as a string.
type Zip string

func (z *Zip) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*z = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*z = Zip(CleanZip(s))
		return nil
	}
	// bare number: keep the literal digits, then strip any ".0"
	*z = Zip(CleanZip(string(b)))
	return nil
}

func (z Zip) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(z))
}

// CleanZip trims whitespace and drops a trailing ".0" left behind by
// numeric-JSON coercion in spreadsheet exports.
func CleanZip(s string) string {
	s = strings.TrimSpace(s)
	return strings.TrimSuffix(s, ".0")
}

// StoreHours is a descriptive weekly schedule. It is rendered, never parsed.
type StoreHours struct {
	TotalHours *string           `json:"total_hours,omitempty"`
	Hours      map[string]string `json:"hours,omitempty"` // sun|mon|tues|wed|thur|fri|sat -> "7-11"
}

// StoreRecord is one store in the dataset. Coordinates are present only
// after the enricher has successfully geocoded the address; GeocodedAddr
// records the exact composite address those coordinates belong to.
type StoreRecord struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Zip     Zip    `json:"zip,omitempty"`
	Phone   string `json:"phone,omitempty"`

	Lat *float64 `json:"lat,omitempty"`
	Lng *float64 `json:"lng,omitempty"`

	Amenities map[string]bool `json:"amenities,omitempty"`
	Food      map[string]bool `json:"food,omitempty"`
	Fuel      map[string]bool `json:"fuel,omitempty"`

	StoreHours *StoreHours `json:"store_hours,omitempty"`
	AltHours   *StoreHours `json:"alt_hours,omitempty"`

	GeocodedAddr string `json:"__addr,omitempty"`
}

// Coords returns the record's coordinates, or false when not yet geocoded.
func (s StoreRecord) Coords() (GeoPoint, bool) {
	if s.Lat == nil || s.Lng == nil {
		return GeoPoint{}, false
	}
	return GeoPoint{Lat: *s.Lat, Lng: *s.Lng}, true
}

// FullAddress joins the non-empty address parts with ", ". The result is
// what gets geocoded and what GeocodedAddr is compared against.
func (s StoreRecord) FullAddress() string {
	var parts []string
	for _, p := range []string{s.Address, s.City, s.State, string(s.Zip)} {
		if t := strings.TrimSpace(p); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, ", ")
}

// Normalize trims display fields and cleans the zip in place.
func (s *StoreRecord) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Address = strings.TrimSpace(s.Address)
	s.City = strings.TrimSpace(s.City)
	s.State = strings.TrimSpace(s.State)
	s.Zip = Zip(CleanZip(string(s.Zip)))
	s.Phone = strings.TrimSpace(s.Phone)
}

// Facet defaults below are literal business rules carried over from the
// dataset conventions (ATM assumed present, Marathon is the house fuel
// brand). They are data, not inferred behavior.

var DefaultAmenities = map[string]bool{
	"atm":         true,
	"beerCave":    false,
	"beerSales":   false,
	"e85":         false,
	"diesel":      false,
	"kerosene":    false,
	"open24Hours": false,
	"showers":     false,
	"rvDump":      false,
	"fuel":        false,
	"carwash":     false,
}

var DefaultFood = map[string]bool{
	"clarkscafe":    false,
	"krispykrunchy": false,
	"champs":        false,
	"hangar":        false,
	"jacks":         false,
	"grabngo":       false,
}

var DefaultFuel = map[string]bool{
	"marathon": true,
	"arco":     false,
}

// facetValue resolves a single facet against its defaults.
func facetValue(facets, defaults map[string]bool, key string) bool {
	if v, ok := facets[key]; ok {
		return v
	}
	return defaults[key]
}
