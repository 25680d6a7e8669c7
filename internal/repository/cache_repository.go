package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/luzatrade/findmiss-sub000/internal/models"
)

const topPageCacheKey = "exposure:top_page_boosts"

// BoostCacheRepository caches the current top-page boost set. The feed reads
// it on every request while the set itself changes rarely, so a short TTL
// keeps MySQL out of the hot path.
type BoostCacheRepository interface {
	// GetTopPage retrieves the cached boost set; (nil, nil) on a miss
	GetTopPage(ctx context.Context) ([]*models.TopPageBoost, error)

	// SetTopPage stores the boost set with the given TTL
	SetTopPage(ctx context.Context, boosts []*models.TopPageBoost, ttl time.Duration) error

	// Invalidate drops the cached set after a mutation
	Invalidate(ctx context.Context) error
}

type boostCacheRepository struct {
	client *redis.Client
}

// NewBoostCacheRepository creates a new boost cache repository
func NewBoostCacheRepository(client *redis.Client) BoostCacheRepository {
	return &boostCacheRepository{
		client: client,
	}
}

func (r *boostCacheRepository) GetTopPage(ctx context.Context) ([]*models.TopPageBoost, error) {
	val, err := r.client.Get(ctx, topPageCacheKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get top page boosts: %w", err)
	}

	boosts := []*models.TopPageBoost{}
	if err := json.Unmarshal([]byte(val), &boosts); err != nil {
		// Treat a corrupt cache entry as a miss
		return nil, nil
	}

	return boosts, nil
}

func (r *boostCacheRepository) SetTopPage(ctx context.Context, boosts []*models.TopPageBoost, ttl time.Duration) error {
	payload, err := json.Marshal(boosts)
	if err != nil {
		return fmt.Errorf("failed to marshal top page boosts: %w", err)
	}

	return r.client.Set(ctx, topPageCacheKey, payload, ttl).Err()
}

func (r *boostCacheRepository) Invalidate(ctx context.Context) error {
	return r.client.Del(ctx, topPageCacheKey).Err()
}
