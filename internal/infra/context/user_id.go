package context

import (
	"context"

	"github.com/google/uuid"
)

const contextKeyUserID = contextKey("userID")

// UserIDFromContext extracts the acting user's ID from the context.
// Returns uuid.Nil and false if no user has been authenticated.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(contextKeyUserID).(uuid.UUID)

	return userID, ok && userID != uuid.Nil
}

// WithUserID creates a new context carrying the authenticated user's ID.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, contextKeyUserID, userID)
}
