package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"foodfinder/internal/adapters/observability"
	redisad "foodfinder/internal/adapters/redis"
	"foodfinder/internal/app"
	"foodfinder/internal/domain"
	"foodfinder/internal/shared"
	mysqlrepo "foodfinder/internal/storage/mysql"
)

// datasetRecord mirrors the scraped gisdata JSON export field-for-field.
type datasetRecord struct {
	Title            string   `json:"title"`
	Price            *string  `json:"price"`
	CategoryName     string   `json:"categoryName"`
	Address          string   `json:"address"`
	Neighborhood     string   `json:"neighborhood"`
	Street           string   `json:"street"`
	City             string   `json:"city"`
	State            string   `json:"state"`
	CountryCode      string   `json:"countryCode"`
	Phone            *string  `json:"phone"`
	PhoneUnformatted *string  `json:"phoneUnformatted"`
	Latitude         float64  `json:"latitude"`
	Longitude        float64  `json:"longitude"`
	PlusCode         string   `json:"plusCode"`
	TotalScore       *float64 `json:"totalScore"`
	ImageURL         string   `json:"imageUrl"`
}

func (d datasetRecord) toDomain() domain.RestaurantRecord {
	return domain.RestaurantRecord{
		Title:            d.Title,
		Price:            d.Price,
		CategoryName:     d.CategoryName,
		Address:          d.Address,
		Neighborhood:     d.Neighborhood,
		Street:           d.Street,
		City:             d.City,
		State:            d.State,
		CountryCode:      d.CountryCode,
		Phone:            d.Phone,
		PhoneUnformatted: d.PhoneUnformatted,
		Latitude:         d.Latitude,
		Longitude:        d.Longitude,
		PlusCode:         d.PlusCode,
		TotalScore:       d.TotalScore,
		ImageURL:         d.ImageURL,
	}
}

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Str("dataset", cfg.DatasetPath).
		Int("workers", cfg.Workers).
		Msg("ingestor starting")

	raw, err := os.ReadFile(cfg.DatasetPath)
	if err != nil {
		log.Fatal().Err(err).Msg("read dataset file failed")
	}
	var records []datasetRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		log.Fatal().Err(err).Msg("parse dataset file failed")
	}
	log.Info().Int("records", len(records)).Msg("dataset parsed")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	ing := app.NewIngestionService(repo, cache)
	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var wg sync.WaitGroup

	for _, rec := range records {
		rec := rec

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, int64(1)); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(r datasetRecord) {
			defer wg.Done()
			defer sem.Release(int64(1))

			if err := ing.IngestRestaurant(ctx, r.toDomain()); err != nil {
				log.Warn().Str("title", r.Title).Err(err).Msg("ingest failed")
				return
			}
			log.Info().Str("title", r.Title).Msg("ingest ok")
		}(rec)
	}

	wg.Wait()
	log.Info().Msg("ingestion completed")
}
