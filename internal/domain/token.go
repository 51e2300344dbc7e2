package domain

import (
	"errors"
	"time"
)

// ErrAlreadyRevoked is returned when revoking a refresh token twice
var ErrAlreadyRevoked = errors.New("refresh token already revoked")

// RefreshToken represents a persisted refresh token record. Only the sha256
// hash of the raw value is stored. Rotation links a record to its successor
// through ReplacedByTokenID.
type RefreshToken struct {
	ID                string     `json:"id" db:"id"`
	UserID            string     `json:"user_id" db:"user_id"`
	TokenHash         string     `json:"-" db:"token_hash"`
	ExpiresAt         time.Time  `json:"expires_at" db:"expires_at"`
	RevokedAt         *time.Time `json:"revoked_at" db:"revoked_at"`
	ReplacedByTokenID *string    `json:"replaced_by_token_id" db:"replaced_by_token_id"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	LastUsedAt        *time.Time `json:"last_used_at" db:"last_used_at"`
	UserAgent         *string    `json:"user_agent" db:"user_agent"`
	IPAddress         *string    `json:"ip_address" db:"ip_address"`
}

// IsExpired reports whether the token is past its expiry
func (t *RefreshToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// IsRevoked reports whether the token has been revoked
func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// IsValid reports whether the token is neither expired nor revoked
func (t *RefreshToken) IsValid() bool {
	return !t.IsExpired() && !t.IsRevoked()
}

// WasReused reports whether presenting this token signals replay: it was
// already rotated away, so a successor exists.
func (t *RefreshToken) WasReused() bool {
	return t.IsRevoked() && t.ReplacedByTokenID != nil
}

// Revoke marks the token revoked at the given time
func (t *RefreshToken) Revoke(at time.Time) error {
	if t.RevokedAt != nil {
		return ErrAlreadyRevoked
	}
	t.RevokedAt = &at
	return nil
}

// AccessClaims represents the claims embedded in an access token
type AccessClaims struct {
	UserID   string   `json:"user_id"`
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Provider Provider `json:"provider"`
	Roles    []string `json:"roles"`
	Issuer   string   `json:"iss"`
	Exp      int64    `json:"exp"`
	Iat      int64    `json:"iat"`
}

// IsExpired checks if the claims are past their expiry
func (c AccessClaims) IsExpired() bool {
	return time.Now().Unix() > c.Exp
}

// Principal is the authenticated identity attached to a request
type Principal struct {
	UserID string   `json:"user_id"`
	Email  string   `json:"email"`
	Roles  []string `json:"roles"`
}

// HasRole reports whether the principal carries the given role
func (p Principal) HasRole(name string) bool {
	for _, r := range p.Roles {
		if r == name {
			return true
		}
	}
	return false
}
