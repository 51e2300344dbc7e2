package service

import (
	"context"
	"time"

	"github.com/shoplistapp/auth-service/internal/domain"
	"github.com/shoplistapp/auth-service/internal/dto"
)

// ClientInfo carries optional request metadata stored with refresh tokens
type ClientInfo struct {
	UserAgent string
	IPAddress string
}

// AuthService defines methods for authentication operations
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest, client ClientInfo) (*dto.TokenResponse, error)
	LoginWithGoogle(ctx context.Context, idToken string, client ClientInfo) (*dto.TokenResponse, error)
	Refresh(ctx context.Context, rawRefreshToken string, client ClientInfo) (*dto.TokenResponse, error)
	Logout(ctx context.Context, rawRefreshToken string) error
	ValidateAccessToken(ctx context.Context, token string) (*domain.Principal, error)
	GetUser(ctx context.Context, userID string) (*dto.UserResponse, error)
}

// Denylist tracks revoked refresh-token hashes for fast rejection
type Denylist interface {
	Add(ctx context.Context, tokenHash string, ttl time.Duration) error
	Contains(ctx context.Context, tokenHash string) (bool, error)
}

// GoogleIdentity is the normalized result of verifying a Google ID token
type GoogleIdentity struct {
	Email         string
	Name          string
	ExternalID    string
	EmailVerified bool
}

// GoogleVerifier is the external verification boundary for Google ID tokens.
// Implementations are injected so the core never talks to Google directly
// in tests.
type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (*GoogleIdentity, error)
}
