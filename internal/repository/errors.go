package repository

import "errors"

// Common repository errors
var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEmail is returned when trying to create a user with an existing email
	ErrDuplicateEmail = errors.New("user with this email already exists")

	// ErrDuplicateToken is returned when trying to create a token with an existing hash
	ErrDuplicateToken = errors.New("token with this hash already exists")

	// ErrDuplicateIdentity is returned when trying to link an already linked external identity
	ErrDuplicateIdentity = errors.New("external identity already linked")

	// ErrDuplicateRole is returned when trying to create a role with an existing name
	ErrDuplicateRole = errors.New("role with this name already exists")

	// ErrTokenRotated is returned when the compare-and-set on revocation loses
	// to a concurrent rotation of the same token
	ErrTokenRotated = errors.New("token was already rotated")

	// ErrAlreadyRevoked is returned when revoking a token that is already revoked
	ErrAlreadyRevoked = errors.New("token is already revoked")
)
