package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	GeocodeBase string
	GeocodeKey  string
	GeocodeRPS  int
	CacheTTL    time.Duration
	StoresSrc   string
	StoresOut   string
	FailureCSV  string
}

func Load() Config {
	// .env.local wins over .env; both are optional.
	_ = godotenv.Overload(".env.local")
	_ = godotenv.Load(".env")

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),
		GeocodeBase: env("GEOCODE_BASE_URL", "https://maps.googleapis.com/maps/api/geocode/json"),
		GeocodeKey:  env("GOOGLE_MAPS_API_KEY", ""),
		GeocodeRPS:  atoi("GEOCODE_RPS", 5),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		StoresSrc:   env("STORES_SRC", "data/stores.json"),
		StoresOut:   env("STORES_OUT", "data/stores.geocoded.json"),
		FailureCSV:  env("GEOCODE_FAILURES_CSV", "data/geocode_failures.csv"),
	}
	if c.GeocodeKey == "" {
		log.Warn().Msg("GOOGLE_MAPS_API_KEY is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
