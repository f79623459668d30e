package domain

import "context"

// Geocoder resolves a composite address to a coordinate. Implementations
// return *GeocodeError for non-OK upstream statuses and network failures.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (GeoPoint, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// SearchResult is one ranked store returned by a radius search.
type SearchResult struct {
	ID            string      `json:"id"`
	DistanceMiles float64     `json:"distance_miles"`
	Store         StoreRecord `json:"store"`
}
