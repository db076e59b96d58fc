package app

import (
	"context"
	"fmt"

	"foodfinder/internal/domain"
)

// IngestionService upserts scraped restaurant records into gisdata and
// keeps the dataset cache coherent.
type IngestionService struct {
	repo  domain.RestaurantRepository
	cache domain.Cache
}

func NewIngestionService(r domain.RestaurantRepository, cache domain.Cache) *IngestionService {
	return &IngestionService{repo: r, cache: cache}
}

func (s *IngestionService) IngestRestaurant(ctx context.Context, rec domain.RestaurantRecord) error {
	if rec.Title == "" {
		return fmt.Errorf("restaurant record without title")
	}
	if rec.Latitude < -90 || rec.Latitude > 90 || rec.Longitude < -180 || rec.Longitude > 180 {
		return fmt.Errorf("restaurant %q has out-of-range coordinates", rec.Title)
	}
	if err := s.repo.UpsertRestaurant(ctx, rec); err != nil {
		return fmt.Errorf("upsert restaurant %q: %w", rec.Title, err)
	}
	// A changed row invalidates the whole bulk-load key.
	if s.cache != nil {
		_ = s.cache.Del(ctx, datasetCacheKey)
	}
	return nil
}
