package repository

import (
	"context"

	"github.com/shoplistapp/auth-service/internal/domain"
)

// UserRepository defines methods for user operations. Users are always
// loaded with their roles attached.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
}

// RoleRepository defines methods for role operations
type RoleRepository interface {
	Create(ctx context.Context, role *domain.Role) error
	GetByName(ctx context.Context, name string) (*domain.Role, error)
	GetForUser(ctx context.Context, userID string) ([]domain.Role, error)
	Assign(ctx context.Context, userID, roleID string) error
}

// TokenRepository defines methods for refresh token operations. The store
// holds opaque records keyed by id and token hash; hashing and rotation
// policy live in the service layer.
type TokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	GetByID(ctx context.Context, id string) (*domain.RefreshToken, error)
	GetByUserID(ctx context.Context, userID string) ([]*domain.RefreshToken, error)

	// Rotate atomically revokes the presented token, links it to the
	// successor and persists the successor. Exactly one of two concurrent
	// rotations of the same token succeeds; the loser gets ErrTokenRotated.
	Rotate(ctx context.Context, presentedID string, successor *domain.RefreshToken) error

	// Revoke sets revoked_at if it is not already set; returns
	// ErrAlreadyRevoked when the compare-and-set finds it set.
	Revoke(ctx context.Context, tokenID string) error

	DeleteExpired(ctx context.Context) error

	// ListAll and DeleteAll exist for test support only
	ListAll(ctx context.Context) ([]*domain.RefreshToken, error)
	DeleteAll(ctx context.Context) error
}

// IdentityRepository defines methods for linked external identities
type IdentityRepository interface {
	Create(ctx context.Context, identity *domain.LinkedIdentity) error
	GetByProvider(ctx context.Context, provider domain.Provider, providerUserID string) (*domain.LinkedIdentity, error)
	GetByUserID(ctx context.Context, userID string) ([]*domain.LinkedIdentity, error)
}
