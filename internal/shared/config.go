package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	MapboxBase  string
	MapboxToken string
	Workers     int
	DatasetPath string
	CacheTTL    time.Duration
	SessionTTL  time.Duration
}

func Load() Config {
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
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/foodfinder?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),
		MapboxBase:  env("MAPBOX_BASE_URL", "https://api.mapbox.com"),
		MapboxToken: env("MAPBOX_TOKEN", ""),
		Workers:     atoi("INGEST_WORKERS", 8),
		DatasetPath: env("DATASET_PATH", "dataset/gisdata.json"),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		SessionTTL:  time.Duration(atoi("SESSION_TTL_SECONDS", 86400)) * time.Second,
	}
	if c.MapboxToken == "" {
		log.Warn().Msg("MAPBOX_TOKEN is empty; direction requests will fail upstream")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
