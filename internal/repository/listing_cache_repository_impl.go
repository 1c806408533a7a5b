package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"doctor-listing-service/internal/domain/entity"
	domainRepo "doctor-listing-service/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	RedisFacetsKey        = "listing:facets"
	RedisSessionKeyPrefix = "listing:session:"
	redisListingOpTimeout = 2 * time.Second
)

type listingCacheRepository struct {
	client *redis.Client
}

func NewListingCacheRepository(client *redis.Client) domainRepo.ListingCacheRepository {
	return &listingCacheRepository{client: client}
}

func (r *listingCacheRepository) GetFacets(ctx context.Context) (*entity.ListingFacets, error) {
	var facets entity.ListingFacets
	found, err := r.getJSON(ctx, RedisFacetsKey, &facets)
	if err != nil || !found {
		return nil, err
	}
	return &facets, nil
}

func (r *listingCacheRepository) SetFacets(ctx context.Context, facets *entity.ListingFacets, ttl time.Duration) error {
	return r.setJSON(ctx, RedisFacetsKey, facets, ttl)
}

func (r *listingCacheRepository) SaveSession(ctx context.Context, sessionID uuid.UUID, state entity.ListingState, ttl time.Duration) error {
	return r.setJSON(ctx, sessionKey(sessionID), state, ttl)
}

func (r *listingCacheRepository) LoadSession(ctx context.Context, sessionID uuid.UUID) (*entity.ListingState, error) {
	var state entity.ListingState
	found, err := r.getJSON(ctx, sessionKey(sessionID), &state)
	if err != nil || !found {
		return nil, err
	}
	return &state, nil
}

func (r *listingCacheRepository) DeleteSession(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, redisListingOpTimeout)
	defer cancel()

	deleted, err := r.client.Del(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	return deleted > 0, nil
}

func (r *listingCacheRepository) getJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, redisListingOpTimeout)
	defer cancel()

	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (r *listingCacheRepository) setJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, redisListingOpTimeout)
	defer cancel()

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	if err := r.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func sessionKey(sessionID uuid.UUID) string {
	return RedisSessionKeyPrefix + sessionID.String()
}
