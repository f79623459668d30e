package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigMissing means the geocoding API key is absent. Fatal for the
	// enricher; the API degrades address search instead of crashing.
	ErrConfigMissing = errors.New("geocoding API key not configured")

	// ErrEmptyAddress marks a record with no usable address parts.
	ErrEmptyAddress = errors.New("empty address")

	// ErrGeocodeFailed is the base class for any failed resolution.
	ErrGeocodeFailed = errors.New("geocode failed")
)

// Upstream status strings used when the failure did not come from the
// geocoding service itself.
const (
	StatusEmptyAddress = "EMPTY_ADDRESS"
	StatusNetworkError = "NETWORK_ERROR"
	StatusZeroResults  = "ZERO_RESULTS"
)

// GeocodeError carries the upstream status of a failed resolution.
type GeocodeError struct {
	Status  string // e.g. ZERO_RESULTS, OVER_QUERY_LIMIT, NETWORK_ERROR
	Message string // upstream error_message, may be empty
}

func (e *GeocodeError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("geocode failed: %s", e.Status)
	}
	return fmt.Sprintf("geocode failed: %s: %s", e.Status, e.Message)
}

func (e *GeocodeError) Unwrap() error { return ErrGeocodeFailed }

// GeocodeStatus extracts the upstream status from err, or "" when err is
// not a geocode failure.
func GeocodeStatus(err error) string {
	var ge *GeocodeError
	if errors.As(err, &ge) {
		return ge.Status
	}
	return ""
}
