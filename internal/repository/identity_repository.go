package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shoplistapp/auth-service/internal/domain"
	"github.com/shoplistapp/auth-service/pkg/database"
)

// identityRepository implements IdentityRepository interface
type identityRepository struct {
	db *database.Postgres
}

// NewIdentityRepository creates a new linked identity repository
func NewIdentityRepository(db *database.Postgres) IdentityRepository {
	return &identityRepository{db: db}
}

// Create links an external identity to a user
func (r *identityRepository) Create(ctx context.Context, identity *domain.LinkedIdentity) error {
	query := `
		INSERT INTO linked_identities (id, user_id, provider, provider_user_id, email, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if identity.ID == "" {
		identity.ID = uuid.New().String()
	}
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = time.Now()
	}

	_, err := r.db.DB.ExecContext(ctx, query,
		identity.ID,
		identity.UserID,
		string(identity.Provider),
		identity.ProviderUserID,
		identity.Email,
		identity.CreatedAt,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation on (provider, provider_user_id)
				return fmt.Errorf("identity already linked: %w", ErrDuplicateIdentity)
			}
		}
		return fmt.Errorf("failed to link identity: %w", err)
	}

	return nil
}

// GetByProvider retrieves a linked identity by provider and external user id
func (r *identityRepository) GetByProvider(ctx context.Context, provider domain.Provider, providerUserID string) (*domain.LinkedIdentity, error) {
	query := `
		SELECT id, user_id, provider, provider_user_id, email, created_at
		FROM linked_identities
		WHERE provider = $1 AND provider_user_id = $2
	`

	identity := &domain.LinkedIdentity{}
	var email sql.NullString
	var providerName string

	err := r.db.DB.QueryRowContext(ctx, query, string(provider), providerUserID).Scan(
		&identity.ID,
		&identity.UserID,
		&providerName,
		&identity.ProviderUserID,
		&email,
		&identity.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("linked identity not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get linked identity: %w", err)
	}

	identity.Provider = domain.Provider(providerName)
	if email.Valid {
		identity.Email = &email.String
	}

	return identity, nil
}

// GetByUserID retrieves all linked identities for a user
func (r *identityRepository) GetByUserID(ctx context.Context, userID string) ([]*domain.LinkedIdentity, error) {
	query := `
		SELECT id, user_id, provider, provider_user_id, email, created_at
		FROM linked_identities
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get linked identities: %w", err)
	}
	defer rows.Close()

	var identities []*domain.LinkedIdentity
	for rows.Next() {
		identity := &domain.LinkedIdentity{}
		var email sql.NullString
		var providerName string

		err := rows.Scan(
			&identity.ID,
			&identity.UserID,
			&providerName,
			&identity.ProviderUserID,
			&email,
			&identity.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan linked identity: %w", err)
		}

		identity.Provider = domain.Provider(providerName)
		if email.Valid {
			identity.Email = &email.String
		}

		identities = append(identities, identity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate linked identities: %w", err)
	}

	return identities, nil
}
