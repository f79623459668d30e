// internal/adapters/geocode/client.go
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"store_locator/internal/adapters/observability"
	"store_locator/internal/domain"
)

// DefaultBaseURL is the Google-style geocoding endpoint. The response shape
// is {status, results[{geometry:{location:{lat,lng}}}], error_message}.
const DefaultBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

type Client struct {
	base string
	key  string
	hc   *retryablehttp.Client
	rl   *rate.Limiter
}

// New builds a geocoding client. An empty key is a configuration error:
// callers decide whether that is fatal (enricher) or degraded (API).
func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, domain.ErrConfigMissing
	}
	if base == "" {
		base = DefaultBaseURL
	}
	if rps <= 0 {
		rps = 5
	}

	rc := retryablehttp.NewClient()
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.RetryMax = 3
	rc.HTTPClient.Timeout = 10 * time.Second
	rc.Logger = nil // request logging happens at the caller

	return &Client{
		base: base,
		key:  key,
		hc:   rc,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// response mirrors the upstream JSON envelope. Non-OK statuses come back
// with HTTP 200, so they are detected here rather than by retry policy.
type response struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
	ErrorMessage string `json:"error_message"`
}

// Geocode resolves one composite address. Network failures and non-OK
// statuses both surface as *domain.GeocodeError.
func (c *Client) Geocode(ctx context.Context, address string) (domain.GeoPoint, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return domain.GeoPoint{}, err
	}

	q := url.Values{}
	q.Set("address", address)
	q.Set("key", c.key)
	u := c.base + "?" + q.Encode()

	start := time.Now()
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.GeoPoint{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "store-locator/1.0")

	resp, err := c.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return domain.GeoPoint{}, ctx.Err()
		}
		observability.ObserveExternal("geocode", "geocode", 0, time.Since(start))
		return domain.GeoPoint{}, &domain.GeocodeError{
			Status:  domain.StatusNetworkError,
			Message: err.Error(),
		}
	}
	defer resp.Body.Close()
	observability.ObserveExternal("geocode", "geocode", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return domain.GeoPoint{}, &domain.GeocodeError{
			Status:  domain.StatusNetworkError,
			Message: fmt.Sprintf("bad status %d", resp.StatusCode),
		}
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.GeoPoint{}, &domain.GeocodeError{
			Status:  domain.StatusNetworkError,
			Message: "decode: " + err.Error(),
		}
	}

	if body.Status != "OK" || len(body.Results) == 0 {
		st := body.Status
		if st == "" {
			st = "UNKNOWN"
		}
		return domain.GeoPoint{}, &domain.GeocodeError{Status: st, Message: body.ErrorMessage}
	}

	loc := body.Results[0].Geometry.Location
	return domain.GeoPoint{Lat: loc.Lat, Lng: loc.Lng}, nil
}
