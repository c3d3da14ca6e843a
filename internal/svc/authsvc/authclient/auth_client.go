package authclient

import (
	"context"

	"github.com/google/uuid"
)

// AuthClient defines the interface for validating authentication tokens.
type AuthClient interface {
	// Validate checks if the given token is valid.
	// Returns the ID of the user the token was issued for, whether the token
	// is valid, and any error encountered during validation.
	Validate(ctx context.Context, token string) (uuid.UUID, bool, error)
}
