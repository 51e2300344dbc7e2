package domain

import "time"

// RoleUser is the default role assigned to every new account
const RoleUser = "USER"

// Role represents a named permission group. Names are unique and uppercase;
// only the description is mutable after creation.
type Role struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
