package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	server "foodfinder/internal/adapters/http_server"
	"foodfinder/internal/adapters/mapbox"
	"foodfinder/internal/adapters/observability"
	redisad "foodfinder/internal/adapters/redis"
	"foodfinder/internal/app"
	"foodfinder/internal/mapview"
	"foodfinder/internal/shared"
	mysqlrepo "foodfinder/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps; cache and session store share one redis connection
	repo := mysqlrepo.New(db)
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPass, DB: cfg.RedisDB})
	cache := redisad.NewWithClient(rdb)
	sessions := redisad.NewSessionsWithClient(rdb)

	directions, err := mapbox.New(cfg.MapboxBase, cfg.MapboxToken, 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Mapbox client")
	}

	auth := app.NewAuthService(repo, sessions, cfg.SessionTTL)
	dataset := app.NewDatasetService(repo, cache, cfg.CacheTTL)
	views := mapview.NewRegistry(dataset, directions)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Auth: auth, Sessions: sessions, Views: views})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
