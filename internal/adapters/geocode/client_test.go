package geocode_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"store_locator/internal/adapters/geocode"
	"store_locator/internal/domain"
)

func okBody(lat, lng float64) string {
	return fmt.Sprintf(`{"status":"OK","results":[{"geometry":{"location":{"lat":%v,"lng":%v}}}]}`, lat, lng)
}

func TestGeocode_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("address"); got != "Ashland, KY" {
			t.Errorf("address param = %q", got)
		}
		if r.URL.Query().Get("key") == "" {
			t.Error("missing key param")
		}
		fmt.Fprint(w, okBody(38.4784, -82.6379))
	}))
	defer ts.Close()

	cl, err := geocode.New(ts.URL, "test-key", 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	pt, err := cl.Geocode(context.Background(), "Ashland, KY")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if pt.Lat != 38.4784 || pt.Lng != -82.6379 {
		t.Fatalf("unexpected point: %+v", pt)
	}
}

func TestGeocode_NonOKStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"ZERO_RESULTS","results":[]}`)
	}))
	defer ts.Close()

	cl, _ := geocode.New(ts.URL, "test-key", 100)
	_, err := cl.Geocode(context.Background(), "nowhere at all")
	if !errors.Is(err, domain.ErrGeocodeFailed) {
		t.Fatalf("expected geocode failure, got %v", err)
	}
	if st := domain.GeocodeStatus(err); st != "ZERO_RESULTS" {
		t.Fatalf("status = %q, want ZERO_RESULTS", st)
	}
}

func TestGeocode_CarriesErrorMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid."}`)
	}))
	defer ts.Close()

	cl, _ := geocode.New(ts.URL, "bad-key", 100)
	_, err := cl.Geocode(context.Background(), "Ashland, KY")
	var ge *domain.GeocodeError
	if !errors.As(err, &ge) {
		t.Fatalf("expected *GeocodeError, got %T", err)
	}
	if ge.Status != "REQUEST_DENIED" || ge.Message == "" {
		t.Fatalf("unexpected error payload: %+v", ge)
	}
}

func TestGeocode_RetriesTransient5xx(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			w.WriteHeader(500)
		default:
			fmt.Fprint(w, okBody(1, 2))
		}
	}))
	defer ts.Close()

	cl, _ := geocode.New(ts.URL, "test-key", 100)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pt, err := cl.Geocode(ctx, "somewhere")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if pt.Lat != 1 || pt.Lng != 2 {
		t.Fatalf("unexpected point: %+v", pt)
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected retries, got %d hits", hits)
	}
}

func TestGeocode_NetworkErrorMapsToTaxonomy(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close() // refuse connections

	cl, _ := geocode.New(ts.URL, "test-key", 100)
	_, err := cl.Geocode(context.Background(), "Ashland, KY")
	if st := domain.GeocodeStatus(err); st != domain.StatusNetworkError {
		t.Fatalf("status = %q, want %q (err=%v)", st, domain.StatusNetworkError, err)
	}
}

func TestNew_RequiresKey(t *testing.T) {
	_, err := geocode.New("", "", 5)
	if !errors.Is(err, domain.ErrConfigMissing) {
		t.Fatalf("expected ErrConfigMissing, got %v", err)
	}
}
