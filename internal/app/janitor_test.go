package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shoplistapp/auth-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// countingTokenRepository records DeleteExpired calls
type countingTokenRepository struct {
	deleteExpiredCalls atomic.Int64
}

func (r *countingTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	return nil
}

func (r *countingTokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	return nil, nil
}

func (r *countingTokenRepository) GetByID(ctx context.Context, id string) (*domain.RefreshToken, error) {
	return nil, nil
}

func (r *countingTokenRepository) GetByUserID(ctx context.Context, userID string) ([]*domain.RefreshToken, error) {
	return nil, nil
}

func (r *countingTokenRepository) Rotate(ctx context.Context, presentedID string, successor *domain.RefreshToken) error {
	return nil
}

func (r *countingTokenRepository) Revoke(ctx context.Context, tokenID string) error {
	return nil
}

func (r *countingTokenRepository) DeleteExpired(ctx context.Context) error {
	r.deleteExpiredCalls.Add(1)
	return nil
}

func (r *countingTokenRepository) ListAll(ctx context.Context) ([]*domain.RefreshToken, error) {
	return nil, nil
}

func (r *countingTokenRepository) DeleteAll(ctx context.Context) error {
	return nil
}

func TestTokenJanitor_SweepsImmediatelyAndOnTicks(t *testing.T) {
	repo := &countingTokenRepository{}
	janitor := NewTokenJanitor(repo, 10*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		janitor.Run(ctx)
		close(done)
	}()

	// First sweep happens before the first tick
	assert.Eventually(t, func() bool {
		return repo.deleteExpiredCalls.Load() >= 1
	}, time.Second, time.Millisecond)

	// And further sweeps follow on the interval
	assert.Eventually(t, func() bool {
		return repo.deleteExpiredCalls.Load() >= 3
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Janitor did not stop on context cancellation")
	}
}
