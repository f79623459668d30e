package app

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"store_locator/internal/dataset"
	"store_locator/internal/domain"
)

// Pacing defaults: sleep PaceDelay after every PaceEvery geocoding calls.
// Throughput shaping for the upstream quota, not a correctness requirement.
const (
	DefaultPaceEvery = 5
	DefaultPaceDelay = 150 * time.Millisecond
)

// Failure is one unresolved address from an enrichment run.
type Failure struct {
	ID      string
	Address string
	Status  string
	Message string
}

// EnrichReport summarizes a completed run.
type EnrichReport struct {
	Unchanged bool // source hash matched the previous output; nothing done
	Total     int
	Geocoded  int
	Reused    int
	Failures  []Failure
}

// EnrichmentService turns the source store file into the derived, geocoded
// file. Coordinates from the previous output are copied forward whenever the
// composite address is unchanged, so an unchanged store never costs an API
// call.
type EnrichmentService struct {
	geocoder  domain.Geocoder
	PaceEvery int
	PaceDelay time.Duration
}

func NewEnrichmentService(g domain.Geocoder) *EnrichmentService {
	return &EnrichmentService{
		geocoder:  g,
		PaceEvery: DefaultPaceEvery,
		PaceDelay: DefaultPaceDelay,
	}
}

// Run executes one enrichment pass. Per-record failures never abort the
// run; the derived file and (when needed) the failure CSV are always
// written. The only errors returned are I/O problems and context
// cancellation.
func (s *EnrichmentService) Run(ctx context.Context, srcPath, outPath, failPath string, force bool) (EnrichReport, error) {
	srcHash, err := dataset.HashFile(srcPath)
	if err != nil {
		return EnrichReport{}, err
	}

	prev, err := dataset.Load(outPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("path", outPath).Msg("previous output unreadable, regeocoding everything")
		}
		prev = dataset.New()
	}

	if !force && prev.Meta.SrcHash == srcHash {
		log.Info().Str("src", srcPath).Msg("source unchanged, skipping geocode")
		return EnrichReport{Unchanged: true}, nil
	}

	src, err := dataset.Load(srcPath)
	if err != nil {
		return EnrichReport{}, err
	}

	out := dataset.New()
	out.Meta = dataset.Meta{
		SrcHash:     srcHash,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}

	report := EnrichReport{Total: src.Len()}
	calls := 0

	for _, id := range src.IDs() {
		rec, _ := src.Get(id)
		rec.Normalize()
		addr := rec.FullAddress()

		if addr == "" {
			log.Warn().Str("id", id).Msg("skipping store with empty address")
			report.Failures = append(report.Failures, Failure{ID: id, Status: domain.StatusEmptyAddress})
			_ = out.Put(id, rec)
			continue
		}

		// Reuse previous coordinates when the address is unchanged.
		if prevRec, ok := prev.Get(id); ok && prevRec.GeocodedAddr == addr {
			if pt, ok := prevRec.Coords(); ok {
				rec.Lat, rec.Lng = &pt.Lat, &pt.Lng
				rec.GeocodedAddr = addr
				report.Reused++
				_ = out.Put(id, rec)
				continue
			}
		}

		log.Info().Str("id", id).Str("addr", addr).Msg("geocoding")
		pt, gerr := s.geocoder.Geocode(ctx, addr)
		calls++

		switch {
		case gerr == nil:
			rec.Lat, rec.Lng = &pt.Lat, &pt.Lng
			rec.GeocodedAddr = addr
			report.Geocoded++
		case ctx.Err() != nil:
			return report, ctx.Err()
		default:
			status := domain.GeocodeStatus(gerr)
			if status == "" {
				status = "UNKNOWN"
			}
			var message string
			var ge *domain.GeocodeError
			if errors.As(gerr, &ge) {
				message = ge.Message
			}
			log.Error().Str("id", id).Str("addr", addr).Str("status", status).Msg("geocode failed")
			rec.GeocodedAddr = addr
			report.Failures = append(report.Failures, Failure{ID: id, Address: addr, Status: status, Message: message})
		}
		_ = out.Put(id, rec)

		if s.PaceEvery > 0 && calls%s.PaceEvery == 0 {
			if !sleepCtx(ctx, s.PaceDelay) {
				return report, ctx.Err()
			}
		}
	}

	if err := out.Write(outPath); err != nil {
		return report, err
	}
	log.Info().Str("path", outPath).Int("stores", out.Len()).Msg("wrote geocoded dataset")

	if len(report.Failures) > 0 && failPath != "" {
		if err := writeFailureCSV(failPath, report.Failures); err != nil {
			return report, err
		}
		log.Warn().Int("failures", len(report.Failures)).Str("path", failPath).Msg("wrote failure report")
	}

	return report, nil
}

func writeFailureCSV(path string, failures []Failure) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	_ = w.Write([]string{"id", "address", "status", "error_message"})
	for _, fl := range failures {
		_ = w.Write([]string{fl.ID, fl.Address, fl.Status, fl.Message})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// sleepCtx waits for d or returns false if ctx is done first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
