package service

import "errors"

// Authentication error taxonomy. Handlers map these to HTTP statuses with
// errors.Is; the service never retries, it fails fast with one of these.
var (
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// responses cannot be used to enumerate accounts
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidExternalToken is returned when Google token verification fails
	// or the email is not verified
	ErrInvalidExternalToken = errors.New("invalid external identity token")

	// ErrValidation wraps rejected registration input; anything else the
	// service returns is an infrastructure failure
	ErrValidation = errors.New("validation failed")

	// ErrEmailTaken is returned when registering an email that already exists
	ErrEmailTaken = errors.New("email is already registered")

	// ErrAccountDisabled is returned when a disabled account tries to authenticate
	ErrAccountDisabled = errors.New("account is disabled")

	// ErrTokenNotFound is returned when a presented refresh token is unknown
	ErrTokenNotFound = errors.New("refresh token not found")

	// ErrTokenExpired is returned when a presented refresh token is past expiry
	ErrTokenExpired = errors.New("refresh token expired")

	// ErrTokenRevoked is returned when a refresh token was revoked without
	// rotation, e.g. via logout
	ErrTokenRevoked = errors.New("refresh token revoked")

	// ErrTokenAlreadyUsed is returned when a rotated token is presented again;
	// this is treated as a replay signal and revokes the whole lineage
	ErrTokenAlreadyUsed = errors.New("refresh token already used")
)
