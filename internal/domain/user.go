package domain

import (
	"strings"

	"github.com/google/uuid"
)

//nolint:gochecknoglobals
var (
	// ErrUserNotFound is returned when the acting or referenced user does not exist.
	ErrUserNotFound = NewError(KindNotFound, "User.NotFound", "The specified user was not found.")
	// ErrUsernameAlreadyInUse is returned when registering a taken username.
	ErrUsernameAlreadyInUse = NewError(KindConflict, "Auth.UsernameAlreadyInUse",
		"The specified username is already in use.")
	// ErrInvalidCredentials is returned when the username/password combination is incorrect.
	// Unknown usernames and wrong passwords are deliberately indistinguishable.
	ErrInvalidCredentials = NewError(KindUnauthorized, "Auth.InvalidCredentials",
		"The provided username or password is incorrect.")

	ErrEmptyUsername     = NewValidationError("User.Username", "Username cannot be empty or whitespace.")
	ErrEmptyPasswordHash = NewValidationError("User.Password", "Password hash cannot be empty or whitespace.")
)

// User represents an authenticated principal.
type User struct {
	ID           uuid.UUID // Immutable identifier
	Username     string    // Unique login name
	PasswordHash string    // Output of the password hasher, never plaintext
	Audit
}

// NewUser creates a user with a fresh identifier.
// Empty or whitespace fields are rejected with a validation error.
func NewUser(username, passwordHash string) (*User, error) {
	if strings.TrimSpace(username) == "" {
		return nil, ErrEmptyUsername
	}

	if strings.TrimSpace(passwordHash) == "" {
		return nil, ErrEmptyPasswordHash
	}

	return &User{
		ID:           NewID(),
		Username:     username,
		PasswordHash: passwordHash,
	}, nil
}

// NewID returns a new time-ordered identifier.
func NewID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}
