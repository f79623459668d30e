package app

import (
	"context"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"store_locator/internal/dataset"
	"store_locator/internal/domain"
	"store_locator/internal/geo"
)

const (
	// MaxResults caps every search response.
	MaxResults = 30

	// addressCacheSize bounds the in-process resolution cache so a long
	// session cannot grow it without limit.
	addressCacheSize = 200
)

// QueryService resolves user locations and runs radius searches over an
// immutable in-memory dataset. Address resolutions are cached in a bounded
// LRU and, when configured, a shared Redis cache; concurrent lookups of the
// same address collapse into one upstream call.
type QueryService struct {
	geocoder domain.Geocoder // nil when the API key is missing (degraded mode)
	cache    domain.Cache    // optional shared cache
	ds       *dataset.Dataset
	cacheTTL time.Duration

	addrLRU *lru.Cache[string, domain.GeoPoint]
	sf      singleflight.Group
}

func NewQueryService(g domain.Geocoder, c domain.Cache, ds *dataset.Dataset, ttl time.Duration) *QueryService {
	l, _ := lru.New[string, domain.GeoPoint](addressCacheSize)
	return &QueryService{geocoder: g, cache: c, ds: ds, cacheTTL: ttl, addrLRU: l}
}

// CanResolve reports whether free-text address search is available.
func (s *QueryService) CanResolve() bool { return s.geocoder != nil }

// Dataset exposes the loaded store dataset for listing endpoints.
func (s *QueryService) Dataset() *dataset.Dataset { return s.ds }

// ResolveLocation turns free-text into a coordinate. The cache key is the
// trimmed, lower-cased text, so repeated searches of the same address within
// a session are free.
func (s *QueryService) ResolveLocation(ctx context.Context, text string) (domain.GeoPoint, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.GeoPoint{}, domain.ErrEmptyAddress
	}
	if s.geocoder == nil {
		return domain.GeoPoint{}, domain.ErrConfigMissing
	}

	key := "geo:" + strings.ToLower(text)

	if pt, ok := s.addrLRU.Get(key); ok {
		return pt, nil
	}
	if s.cache != nil {
		var pt domain.GeoPoint
		if ok, _ := s.cache.Get(ctx, key, &pt); ok {
			s.addrLRU.Add(key, pt)
			return pt, nil
		}
	}

	v, err, _ := s.sf.Do(key, func() (any, error) {
		pt, err := s.geocoder.Geocode(ctx, text)
		if err != nil {
			return nil, err
		}
		s.addrLRU.Add(key, pt)
		if s.cache != nil {
			_ = s.cache.Set(ctx, key, pt, int(s.cacheTTL.Seconds()))
		}
		return pt, nil
	})
	if err != nil {
		return domain.GeoPoint{}, err
	}
	return v.(domain.GeoPoint), nil
}

// Search ranks stores within radiusMiles of origin that satisfy sel,
// nearest first, capped at MaxResults. Stores without coordinates are
// excluded. Ties keep dataset key order.
func (s *QueryService) Search(origin domain.GeoPoint, radiusMiles float64, sel domain.FilterSelection) []domain.SearchResult {
	results := make([]domain.SearchResult, 0, MaxResults)

	for _, id := range s.ds.IDs() {
		rec, _ := s.ds.Get(id)
		pt, ok := rec.Coords()
		if !ok {
			continue
		}
		d := geo.DistanceMiles(origin, pt)
		if d > radiusMiles {
			continue
		}
		if !domain.Matches(rec, sel) {
			continue
		}
		results = append(results, domain.SearchResult{ID: id, DistanceMiles: d, Store: rec})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].DistanceMiles < results[j].DistanceMiles
	})
	if len(results) > MaxResults {
		results = results[:MaxResults]
	}
	return results
}
