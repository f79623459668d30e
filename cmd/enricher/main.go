package main

import (
	"context"
	"flag"
	"os"

	"github.com/rs/zerolog/log"

	"store_locator/internal/adapters/geocode"
	"store_locator/internal/adapters/observability"
	"store_locator/internal/app"
	"store_locator/internal/shared"
)

func main() {
	force := flag.Bool("force", false, "re-geocode even when the source file is unchanged")
	flag.Parse()

	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	// Missing key is fatal here: a batch run without it can do no work.
	if cfg.GeocodeKey == "" {
		log.Error().Msg("GOOGLE_MAPS_API_KEY is not set; add it to .env.local or the environment")
		os.Exit(1)
	}

	client, err := geocode.New(cfg.GeocodeBase, cfg.GeocodeKey, cfg.GeocodeRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize geocoding client")
	}

	log.Info().
		Str("src", cfg.StoresSrc).
		Str("out", cfg.StoresOut).
		Bool("force", *force).
		Msg("enricher starting")

	svc := app.NewEnrichmentService(client)
	report, err := svc.Run(ctx, cfg.StoresSrc, cfg.StoresOut, cfg.FailureCSV, *force)
	if err != nil {
		log.Fatal().Err(err).Msg("enrichment failed")
	}

	if report.Unchanged {
		log.Info().Msg("source unchanged, nothing to do (use --force to rebuild)")
		return
	}

	log.Info().
		Int("total", report.Total).
		Int("geocoded", report.Geocoded).
		Int("reused", report.Reused).
		Int("failed", len(report.Failures)).
		Msg("enrichment completed")
}
