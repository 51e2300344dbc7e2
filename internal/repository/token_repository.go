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

// tokenRepository implements TokenRepository interface
type tokenRepository struct {
	db *database.Postgres
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(db *database.Postgres) TokenRepository {
	return &tokenRepository{db: db}
}

const tokenColumns = `id, user_id, token_hash, expires_at, revoked_at, replaced_by_token_id, created_at, last_used_at, user_agent, ip_address`

// Create creates a new refresh token in the database
func (r *tokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at, user_agent, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}

	_, err := r.db.DB.ExecContext(ctx, query,
		token.ID,
		token.UserID,
		token.TokenHash,
		token.ExpiresAt,
		token.CreatedAt,
		token.UserAgent,
		token.IPAddress,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation on token_hash
				return fmt.Errorf("token with hash already exists: %w", ErrDuplicateToken)
			}
		}
		return fmt.Errorf("failed to create token: %w", err)
	}

	return nil
}

// GetByTokenHash retrieves a refresh token by its hash
func (r *tokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	query := fmt.Sprintf(`SELECT %s FROM refresh_tokens WHERE token_hash = $1`, tokenColumns)

	token, err := scanToken(r.db.DB.QueryRowContext(ctx, query, tokenHash))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("token with hash not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get token by hash: %w", err)
	}

	return token, nil
}

// GetByID retrieves a refresh token by ID
func (r *tokenRepository) GetByID(ctx context.Context, id string) (*domain.RefreshToken, error) {
	query := fmt.Sprintf(`SELECT %s FROM refresh_tokens WHERE id = $1`, tokenColumns)

	token, err := scanToken(r.db.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("token with id %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get token by id: %w", err)
	}

	return token, nil
}

// GetByUserID retrieves all refresh tokens for a user
func (r *tokenRepository) GetByUserID(ctx context.Context, userID string) ([]*domain.RefreshToken, error) {
	query := fmt.Sprintf(`SELECT %s FROM refresh_tokens WHERE user_id = $1 ORDER BY created_at DESC`, tokenColumns)

	rows, err := r.db.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tokens by user id: %w", err)
	}
	defer rows.Close()

	return collectTokens(rows)
}

// Rotate revokes the presented token and persists its successor in one
// transaction. The UPDATE only matches while revoked_at is still NULL, so
// concurrent rotations of the same token serialize to a single winner.
func (r *tokenRepository) Rotate(ctx context.Context, presentedID string, successor *domain.RefreshToken) error {
	tx, err := r.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin rotation: %w", err)
	}
	defer tx.Rollback()

	if successor.ID == "" {
		successor.ID = uuid.New().String()
	}
	if successor.CreatedAt.IsZero() {
		successor.CreatedAt = time.Now()
	}

	now := time.Now()
	result, err := tx.ExecContext(ctx, `
		UPDATE refresh_tokens
		SET revoked_at = $2, replaced_by_token_id = $3, last_used_at = $2
		WHERE id = $1 AND revoked_at IS NULL
	`, presentedID, now, successor.ID)
	if err != nil {
		return fmt.Errorf("failed to revoke presented token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("token with id %s: %w", presentedID, ErrTokenRotated)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at, user_agent, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		successor.ID,
		successor.UserID,
		successor.TokenHash,
		successor.ExpiresAt,
		successor.CreatedAt,
		successor.UserAgent,
		successor.IPAddress,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" {
				return fmt.Errorf("successor token hash collision: %w", ErrDuplicateToken)
			}
		}
		return fmt.Errorf("failed to create successor token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rotation: %w", err)
	}

	return nil
}

// Revoke sets revoked_at on a token that is not yet revoked
func (r *tokenRepository) Revoke(ctx context.Context, tokenID string) error {
	result, err := r.db.DB.ExecContext(ctx, `
		UPDATE refresh_tokens
		SET revoked_at = $2
		WHERE id = $1 AND revoked_at IS NULL
	`, tokenID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		// Either missing or already revoked; distinguish for the caller
		if _, err := r.GetByID(ctx, tokenID); err != nil {
			return err
		}
		return fmt.Errorf("token with id %s: %w", tokenID, ErrAlreadyRevoked)
	}

	return nil
}

// DeleteExpired deletes all expired refresh tokens
func (r *tokenRepository) DeleteExpired(ctx context.Context) error {
	_, err := r.db.DB.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at < $1`, time.Now())
	if err != nil {
		return fmt.Errorf("failed to delete expired tokens: %w", err)
	}

	return nil
}

// ListAll retrieves every refresh token; test support only
func (r *tokenRepository) ListAll(ctx context.Context) ([]*domain.RefreshToken, error) {
	query := fmt.Sprintf(`SELECT %s FROM refresh_tokens ORDER BY created_at`, tokenColumns)

	rows, err := r.db.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	defer rows.Close()

	return collectTokens(rows)
}

// DeleteAll removes every refresh token; test support only
func (r *tokenRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.DB.ExecContext(ctx, `DELETE FROM refresh_tokens`); err != nil {
		return fmt.Errorf("failed to delete all tokens: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanToken(row rowScanner) (*domain.RefreshToken, error) {
	token := &domain.RefreshToken{}
	var revokedAt, lastUsedAt sql.NullTime
	var replacedBy, userAgent, ipAddress sql.NullString

	err := row.Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.ExpiresAt,
		&revokedAt,
		&replacedBy,
		&token.CreatedAt,
		&lastUsedAt,
		&userAgent,
		&ipAddress,
	)
	if err != nil {
		return nil, err
	}

	if revokedAt.Valid {
		token.RevokedAt = &revokedAt.Time
	}
	if lastUsedAt.Valid {
		token.LastUsedAt = &lastUsedAt.Time
	}
	if replacedBy.Valid {
		token.ReplacedByTokenID = &replacedBy.String
	}
	if userAgent.Valid {
		token.UserAgent = &userAgent.String
	}
	if ipAddress.Valid {
		token.IPAddress = &ipAddress.String
	}

	return token, nil
}

func collectTokens(rows *sql.Rows) ([]*domain.RefreshToken, error) {
	var tokens []*domain.RefreshToken
	for rows.Next() {
		token, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan token: %w", err)
		}
		tokens = append(tokens, token)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tokens: %w", err)
	}

	return tokens, nil
}
