package app

import (
	"context"
	"time"

	"foodfinder/internal/domain"
)

const datasetCacheKey = "gisdata:all"

// DatasetService serves the full restaurant table, loaded once per
// map-view open and cached between views.
type DatasetService struct {
	repo     domain.RestaurantRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewDatasetService(r domain.RestaurantRepository, c domain.Cache, ttl time.Duration) *DatasetService {
	return &DatasetService{repo: r, cache: c, cacheTTL: ttl}
}

func (s *DatasetService) Load(ctx context.Context) ([]domain.RestaurantRecord, error) {
	var cached []domain.RestaurantRecord
	if ok, _ := s.cache.Get(ctx, datasetCacheKey, &cached); ok {
		return cached, nil
	}
	recs, err := s.repo.ListRestaurants(ctx)
	if err != nil {
		return nil, err
	}

	// copy slice to avoid aliasing the repo's backing array
	cp := make([]domain.RestaurantRecord, len(recs))
	copy(cp, recs)

	_ = s.cache.Set(ctx, datasetCacheKey, cp, int(s.cacheTTL.Seconds()))
	return cp, nil
}
