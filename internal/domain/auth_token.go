package domain

import (
	"time"

	"github.com/google/uuid"
)

//nolint:gochecknoglobals
var (
	// ErrNoAuthToken is returned when a bearer token is required but not provided.
	ErrNoAuthToken = NewError(KindUnauthorized, "Auth.NoToken", "No authentication token was provided.")
	// ErrInvalidAuthToken is returned when a token is malformed, forged, expired or revoked.
	ErrInvalidAuthToken = NewError(KindUnauthorized, "Auth.InvalidToken",
		"The provided authentication token is invalid or expired.")
)

// LoginRequest carries the credentials of a login attempt.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=12"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest carries the credentials of a new account.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=12"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents a response containing an authentication token.
type LoginResponse struct {
	Token string `json:"token"`
}

// TokenValidationResponse identifies the user a valid token was issued for.
type TokenValidationResponse struct {
	UserID    uuid.UUID `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}
