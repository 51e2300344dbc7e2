package app

import (
	"context"
	"time"

	"github.com/shoplistapp/auth-service/internal/repository"
	"go.uber.org/zap"
)

// TokenJanitor periodically deletes expired refresh-token rows. Expired
// tokens are already unusable; this only keeps the table from growing
// without bound.
type TokenJanitor struct {
	tokens   repository.TokenRepository
	interval time.Duration
	logger   *zap.Logger
}

func NewTokenJanitor(tokens repository.TokenRepository, interval time.Duration, logger *zap.Logger) *TokenJanitor {
	return &TokenJanitor{
		tokens:   tokens,
		interval: interval,
		logger:   logger,
	}
}

// Run sweeps once immediately and then on every interval tick until the
// context is cancelled
func (j *TokenJanitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		if err := j.tokens.DeleteExpired(ctx); err != nil {
			j.logger.Warn("Failed to delete expired refresh tokens", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
