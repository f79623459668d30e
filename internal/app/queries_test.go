package app_test

import (
	"context"
	"errors"
	"math"
	"strconv"
	"testing"
	"time"

	"store_locator/internal/app"
	"store_locator/internal/dataset"
	"store_locator/internal/domain"
)

// ---- fakes ----

type fakeGeocoder struct {
	points map[string]domain.GeoPoint
	fail   error
	calls  int
}

func (f *fakeGeocoder) Geocode(ctx context.Context, address string) (domain.GeoPoint, error) {
	f.calls++
	if f.fail != nil {
		return domain.GeoPoint{}, f.fail
	}
	if pt, ok := f.points[address]; ok {
		return pt, nil
	}
	return domain.GeoPoint{}, &domain.GeocodeError{Status: domain.StatusZeroResults}
}

type fakeCache struct {
	store map[string]domain.GeoPoint
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	*(dst.(*domain.GeoPoint)) = v
	return true, nil
}
func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string]domain.GeoPoint{}
	}
	c.store[key] = v.(domain.GeoPoint)
	return nil
}
func (c *fakeCache) Del(ctx context.Context, key string) error { return nil }

// storeAt places a store due north of origin at an exact haversine distance.
func storeAt(origin domain.GeoPoint, miles float64) domain.StoreRecord {
	lat := origin.Lat + miles*180/(math.Pi*3958.8)
	lng := origin.Lng
	return domain.StoreRecord{Lat: &lat, Lng: &lng}
}

func buildDataset(t *testing.T, recs map[string]domain.StoreRecord) *dataset.Dataset {
	t.Helper()
	ds := dataset.New()
	for id, r := range recs {
		if err := ds.Put(id, r); err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
	}
	return ds
}

// ---- search ----

func TestSearch_RadiusAndOrdering(t *testing.T) {
	origin := domain.GeoPoint{Lat: 38.4784, Lng: -82.6379} // Ashland, KY
	ds := buildDataset(t, map[string]domain.StoreRecord{
		"1": storeAt(origin, 24.9),
		"2": storeAt(origin, 3.1),
		"3": storeAt(origin, 25.1),
		"4": storeAt(origin, 40),
	})
	q := app.NewQueryService(nil, nil, ds, time.Minute)

	got := q.Search(origin, 25, domain.FilterSelection{})
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].ID != "2" || got[1].ID != "1" {
		t.Fatalf("wrong order: %s, %s", got[0].ID, got[1].ID)
	}
	if got[0].DistanceMiles >= got[1].DistanceMiles {
		t.Fatal("results not ascending by distance")
	}
	for _, r := range got {
		if r.DistanceMiles > 25 {
			t.Fatalf("result %s beyond radius: %v", r.ID, r.DistanceMiles)
		}
	}
}

func TestSearch_SkipsStoresWithoutCoordinates(t *testing.T) {
	origin := domain.GeoPoint{Lat: 38, Lng: -83}
	ds := buildDataset(t, map[string]domain.StoreRecord{
		"1": storeAt(origin, 1),
		"2": {Name: "never geocoded"},
	})
	q := app.NewQueryService(nil, nil, ds, time.Minute)

	got := q.Search(origin, 100, domain.FilterSelection{})
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("expected only the geocoded store, got %+v", got)
	}
}

func TestSearch_AppliesFacetFilter(t *testing.T) {
	origin := domain.GeoPoint{Lat: 38, Lng: -83}
	recs := map[string]domain.StoreRecord{}
	for i, id := range []string{"1", "2", "3", "4", "5"} {
		recs[id] = storeAt(origin, float64(i+1))
	}
	for _, id := range []string{"2", "5"} {
		r := recs[id]
		r.Amenities = map[string]bool{"diesel": true}
		recs[id] = r
	}
	ds := buildDataset(t, recs)
	q := app.NewQueryService(nil, nil, ds, time.Minute)

	sel := domain.FilterSelection{Amenities: map[string]bool{"diesel": true}}
	got := q.Search(origin, 1000, sel)
	if len(got) != 2 {
		t.Fatalf("expected 2 diesel stores, got %d", len(got))
	}
	if got[0].ID != "2" || got[1].ID != "5" {
		t.Fatalf("unexpected ids: %s, %s", got[0].ID, got[1].ID)
	}
}

func TestSearch_CapsAtThirtyResults(t *testing.T) {
	origin := domain.GeoPoint{Lat: 38, Lng: -83}
	recs := map[string]domain.StoreRecord{}
	for i := 1; i <= 45; i++ {
		recs[strconv.Itoa(i)] = storeAt(origin, float64(i)/10)
	}
	ds := buildDataset(t, recs)
	q := app.NewQueryService(nil, nil, ds, time.Minute)

	got := q.Search(origin, 100, domain.FilterSelection{})
	if len(got) != app.MaxResults {
		t.Fatalf("expected cap of %d, got %d", app.MaxResults, len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].DistanceMiles < got[i-1].DistanceMiles {
			t.Fatal("results not sorted ascending")
		}
	}
}

// ---- resolve ----

func TestResolveLocation_CachesByNormalizedText(t *testing.T) {
	g := &fakeGeocoder{points: map[string]domain.GeoPoint{
		"Ashland, KY": {Lat: 38.4784, Lng: -82.6379},
	}}
	q := app.NewQueryService(g, &fakeCache{}, dataset.New(), time.Minute)

	pt, err := q.ResolveLocation(context.Background(), "Ashland, KY")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if pt.Lat != 38.4784 {
		t.Fatalf("unexpected point: %+v", pt)
	}

	// Same text with different case/padding hits the cache.
	if _, err := q.ResolveLocation(context.Background(), "  ashland, ky "); err != nil {
		t.Fatalf("resolve cached: %v", err)
	}
	if g.calls != 1 {
		t.Fatalf("expected 1 upstream call, got %d", g.calls)
	}
}

func TestResolveLocation_SharedCacheHitSkipsUpstream(t *testing.T) {
	g := &fakeGeocoder{}
	c := &fakeCache{store: map[string]domain.GeoPoint{
		"geo:ashland, ky": {Lat: 1, Lng: 2},
	}}
	q := app.NewQueryService(g, c, dataset.New(), time.Minute)

	pt, err := q.ResolveLocation(context.Background(), "Ashland, KY")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if pt.Lat != 1 || pt.Lng != 2 {
		t.Fatalf("unexpected point: %+v", pt)
	}
	if g.calls != 0 {
		t.Fatalf("upstream called %d times on cache hit", g.calls)
	}
}

func TestResolveLocation_FailureIsRecoverable(t *testing.T) {
	g := &fakeGeocoder{fail: &domain.GeocodeError{Status: domain.StatusZeroResults}}
	q := app.NewQueryService(g, nil, dataset.New(), time.Minute)

	if _, err := q.ResolveLocation(context.Background(), "nowhere"); !errors.Is(err, domain.ErrGeocodeFailed) {
		t.Fatalf("expected geocode failure, got %v", err)
	}

	// Failures must not be cached: a retry goes upstream again.
	g.fail = nil
	g.points = map[string]domain.GeoPoint{"nowhere": {Lat: 5, Lng: 6}}
	pt, err := q.ResolveLocation(context.Background(), "nowhere")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if pt.Lat != 5 {
		t.Fatalf("unexpected point after retry: %+v", pt)
	}
}

func TestResolveLocation_Degraded(t *testing.T) {
	q := app.NewQueryService(nil, nil, dataset.New(), time.Minute)
	if q.CanResolve() {
		t.Fatal("CanResolve should be false without a geocoder")
	}
	if _, err := q.ResolveLocation(context.Background(), "Ashland, KY"); !errors.Is(err, domain.ErrConfigMissing) {
		t.Fatalf("expected ErrConfigMissing, got %v", err)
	}
}

func TestResolveLocation_EmptyText(t *testing.T) {
	g := &fakeGeocoder{}
	q := app.NewQueryService(g, nil, dataset.New(), time.Minute)
	if _, err := q.ResolveLocation(context.Background(), "   "); !errors.Is(err, domain.ErrEmptyAddress) {
		t.Fatalf("expected ErrEmptyAddress, got %v", err)
	}
}
