package domain

import (
	"errors"
	"time"
)

// Provider identifies where a user's credentials live
type Provider string

const (
	ProviderLocal  Provider = "LOCAL"
	ProviderGoogle Provider = "GOOGLE"
)

// Status represents the account lifecycle state
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusDisabled Status = "DISABLED"
)

// ErrPasswordRequired is returned when a local user is missing a password hash
var ErrPasswordRequired = errors.New("local users require a password hash")

// User represents a user in the system
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	PasswordHash *string   `json:"-" db:"password_hash"`
	Provider     Provider  `json:"provider" db:"provider"`
	Status       Status    `json:"status" db:"status"`
	Roles        []Role    `json:"roles"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Validate checks the provider/password invariant: LOCAL accounts carry a
// password hash, GOOGLE accounts never require one.
func (u *User) Validate() error {
	if u.Provider == ProviderLocal && (u.PasswordHash == nil || *u.PasswordHash == "") {
		return ErrPasswordRequired
	}
	return nil
}

// IsActive reports whether the account may authenticate
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// Disable marks the account as disabled
func (u *User) Disable() {
	u.Status = StatusDisabled
}

// Activate marks the account as active
func (u *User) Activate() {
	u.Status = StatusActive
}

// Rename changes the display name
func (u *User) Rename(name string) {
	u.Name = name
}

// ChangePassword replaces the stored password hash
func (u *User) ChangePassword(hash string) {
	u.PasswordHash = &hash
}

// AddRole attaches a role, ignoring duplicates
func (u *User) AddRole(role Role) {
	for _, r := range u.Roles {
		if r.Name == role.Name {
			return
		}
	}
	u.Roles = append(u.Roles, role)
}

// RoleNames returns the names of all attached roles
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

// LinkedIdentity represents an external identity connection for a user
type LinkedIdentity struct {
	ID             string    `json:"id" db:"id"`
	UserID         string    `json:"user_id" db:"user_id"`
	Provider       Provider  `json:"provider" db:"provider"`
	ProviderUserID string    `json:"provider_user_id" db:"provider_user_id"`
	Email          *string   `json:"email" db:"email"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
