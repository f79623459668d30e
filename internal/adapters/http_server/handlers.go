// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"store_locator/internal/adapters/observability"
	"store_locator/internal/app"
	"store_locator/internal/domain"
)

const (
	defaultRadiusMiles = 25
	maxRadiusMiles     = 500
)

type Handlers struct{ Q *app.QueryService }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/stores", h.listStores)
	s.mux.Get("/v1/stores/search", h.searchStores)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

// parseFacets turns "diesel,atm" into a selection map.
func parseFacets(csv string) map[string]bool {
	csv = strings.TrimSpace(csv)
	if csv == "" {
		return nil
	}
	m := map[string]bool{}
	for _, k := range strings.Split(csv, ",") {
		if k = strings.TrimSpace(k); k != "" {
			m[k] = true
		}
	}
	return m
}

type storeItem struct {
	ID    string             `json:"id"`
	Store domain.StoreRecord `json:"store"`
}

type storesResponse struct {
	Count  int         `json:"count"`
	Stores []storeItem `json:"stores"`
}

func (h *Handlers) listStores(w http.ResponseWriter, r *http.Request) {
	ds := h.Q.Dataset()
	out := storesResponse{Stores: make([]storeItem, 0, ds.Len())}
	for _, id := range ds.IDs() {
		rec, _ := ds.Get(id)
		out.Stores = append(out.Stores, storeItem{ID: id, Store: rec})
	}
	out.Count = len(out.Stores)
	writeJSON(w, r, out)
}

type searchResponse struct {
	Origin      domain.GeoPoint       `json:"origin"`
	RadiusMiles float64               `json:"radius_miles"`
	Count       int                   `json:"count"`
	Results     []domain.SearchResult `json:"results"`
}

func (h *Handlers) searchStores(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	radius := float64(defaultRadiusMiles)
	if rs := q.Get("radius"); rs != "" {
		v, err := strconv.ParseFloat(rs, 64)
		if err != nil || v <= 0 || v > maxRadiusMiles {
			writeProblem(w, http.StatusBadRequest, "Invalid radius",
				"radius must be a number of miles in (0, 500]")
			return
		}
		radius = v
	}

	sel := domain.FilterSelection{
		Amenities: parseFacets(q.Get("amenities")),
		Food:      parseFacets(q.Get("food")),
		Fuel:      parseFacets(q.Get("fuel")),
	}

	origin, ok := h.resolveOrigin(w, r)
	if !ok {
		return // problem already written
	}

	results := h.Q.Search(origin, radius, sel)
	observability.ObserveSearch(len(results))

	writeJSON(w, r, searchResponse{
		Origin:      origin,
		RadiusMiles: radius,
		Count:       len(results),
		Results:     results,
	})
}

// resolveOrigin extracts the search origin from either explicit lat/lng
// (device geolocation, supplied by the client) or a free-text address.
// Failure modes stay distinguishable: bad input is 400, an unresolvable
// address is 404, missing configuration is 503, upstream trouble is 502.
func (h *Handlers) resolveOrigin(w http.ResponseWriter, r *http.Request) (domain.GeoPoint, bool) {
	q := r.URL.Query()
	latStr, lngStr := q.Get("lat"), q.Get("lng")

	if latStr != "" || lngStr != "" {
		lat, errLat := strconv.ParseFloat(latStr, 64)
		lng, errLng := strconv.ParseFloat(lngStr, 64)
		if errLat != nil || errLng != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid coordinates",
				"lat and lng must both be numbers")
			return domain.GeoPoint{}, false
		}
		pt := domain.GeoPoint{Lat: lat, Lng: lng}
		if !pt.Valid() {
			writeProblem(w, http.StatusBadRequest, "Invalid coordinates",
				"lat must be in [-90,90] and lng in [-180,180]")
			return domain.GeoPoint{}, false
		}
		return pt, true
	}

	address := strings.TrimSpace(q.Get("address"))
	if address == "" {
		writeProblem(w, http.StatusBadRequest, "Missing location",
			"provide either address or lat+lng")
		return domain.GeoPoint{}, false
	}
	if !h.Q.CanResolve() {
		writeProblem(w, http.StatusServiceUnavailable, "Search unavailable",
			"address search is not configured; supply lat+lng instead")
		return domain.GeoPoint{}, false
	}

	pt, err := h.Q.ResolveLocation(r.Context(), address)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrConfigMissing):
			writeProblem(w, http.StatusServiceUnavailable, "Search unavailable",
				"address search is not configured; supply lat+lng instead")
		case domain.GeocodeStatus(err) == domain.StatusZeroResults:
			writeProblem(w, http.StatusNotFound, "Address not found",
				"could not locate that address; try adding a city or ZIP")
		default:
			log.Warn().Err(err).Str("address", address).Msg("address resolution failed")
			writeProblem(w, http.StatusBadGateway, "Lookup failed",
				"the location service did not respond; try again shortly")
		}
		return domain.GeoPoint{}, false
	}
	return pt, true
}
