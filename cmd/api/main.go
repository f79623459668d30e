package main

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"store_locator/internal/adapters/geocode"
	server "store_locator/internal/adapters/http_server"
	"store_locator/internal/adapters/observability"
	redisad "store_locator/internal/adapters/redis"
	"store_locator/internal/app"
	"store_locator/internal/dataset"
	"store_locator/internal/domain"
	"store_locator/internal/shared"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// stores: the API only ever reads the derived (geocoded) file
	ds, err := dataset.Load(cfg.StoresOut)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.StoresOut).Msg("failed to load store dataset (run the enricher first)")
	}
	log.Info().Int("stores", ds.Len()).Str("generated_at", ds.Meta.GeneratedAt).Msg("store dataset loaded")

	// geocoder: a missing key degrades address search instead of aborting
	var geocoder domain.Geocoder
	if client, err := geocode.New(cfg.GeocodeBase, cfg.GeocodeKey, cfg.GeocodeRPS); err == nil {
		geocoder = client
	} else if errors.Is(err, domain.ErrConfigMissing) {
		log.Warn().Msg("no geocoding API key; address search disabled, coordinate search still available")
	} else {
		log.Fatal().Err(err).Msg("failed to initialize geocoding client")
	}

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	q := app.NewQueryService(geocoder, cache, ds, cfg.CacheTTL)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Q: q})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
