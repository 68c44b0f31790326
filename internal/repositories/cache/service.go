// Package cache is a JSON cache over redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"paybaba/internal/models"

	"github.com/redis/go-redis/v9"
)

type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, defaultTTL time.Duration) *CacheService {
	return &CacheService{
		client: client,
		ttl:    defaultTTL,
	}
}

// Base operations
func (s *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	return s.SetWithTTL(ctx, key, value, s.ttl)
}

func (s *CacheService) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

// Get reports false on a miss.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache value: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

// GenerateKey builds keys of the form entity:kind:value.
func GenerateKey(entityType, keyType string, value interface{}) string {
	return fmt.Sprintf("%s:%s:%v", entityType, keyType, value)
}

func latestScoreKey(merchantID string) string {
	return GenerateKey("credit_score", "latest", merchantID)
}

// Credit score caching. A miss is (nil, nil).
func (s *CacheService) GetLatestScore(ctx context.Context, merchantID string) (*models.CreditScoreSnapshot, error) {
	var snapshot models.CreditScoreSnapshot
	found, err := s.Get(ctx, latestScoreKey(merchantID), &snapshot)
	if err != nil || !found {
		return nil, err
	}
	return &snapshot, nil
}

func (s *CacheService) SetLatestScore(ctx context.Context, snapshot *models.CreditScoreSnapshot) error {
	if snapshot == nil {
		return errors.New("cannot cache nil snapshot")
	}
	return s.Set(ctx, latestScoreKey(snapshot.MerchantID), snapshot)
}

// Close closes the Redis client connection
func (s *CacheService) Close() error {
	return s.client.Close()
}
