package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shoplistapp/auth-service/pkg/database"
)

// TokenDenylist tracks revoked refresh-token hashes in Redis. It is a fast
// first check on refresh; the database revocation state stays authoritative.
type TokenDenylist struct {
	redis *database.Redis
}

// NewTokenDenylist creates a new token denylist
func NewTokenDenylist(redis *database.Redis) *TokenDenylist {
	return &TokenDenylist{redis: redis}
}

// Add records a revoked token hash until its natural expiry
func (s *TokenDenylist) Add(ctx context.Context, tokenHash string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	key := fmt.Sprintf("denylist:refresh:%s", tokenHash)
	if err := s.redis.Client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to add token hash to denylist: %w", err)
	}
	return nil
}

// Contains checks whether a token hash is denylisted
func (s *TokenDenylist) Contains(ctx context.Context, tokenHash string) (bool, error) {
	key := fmt.Sprintf("denylist:refresh:%s", tokenHash)
	exists, err := s.redis.Client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check denylist: %w", err)
	}
	return exists > 0, nil
}
