package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/mkrupp/simpletodo/internal/domain"
	context_ "github.com/mkrupp/simpletodo/internal/infra/context"
	"github.com/mkrupp/simpletodo/internal/infra/logging"
)

const AuthorizationHeader = "Authorization"

// TokenValidator resolves a bearer token to the user it was issued for.
// ok is false for tokens that are well-formed but not acceptable.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (userID uuid.UUID, ok bool, err error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func BearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get(AuthorizationHeader))
	if header == "" {
		return "", false
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)

	return token, token != ""
}

// AuthorizingMiddleware rejects requests without a valid bearer token. On
// success the token's user ID is added to the request context.
func AuthorizingMiddleware(
	next http.Handler,
	validator TokenValidator,
	log logging.Logger,
) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := BearerToken(r)
		if !ok {
			log.WarnContext(r.Context(), "no token provided")
			WriteProblem(w, r, domain.ErrNoAuthToken)

			return
		}

		userID, ok, err := validator.Validate(r.Context(), token)
		if err != nil {
			log.ErrorContext(r.Context(), "validate token failed", "error", err)
			WriteProblem(w, r, fmt.Errorf("validate token: %w", err))

			return
		} else if !ok {
			log.WarnContext(r.Context(), "invalid token")
			WriteProblem(w, r, domain.ErrInvalidAuthToken)

			return
		}

		next.ServeHTTP(w, r.WithContext(context_.WithUserID(r.Context(), userID)))
	})
}

// Authorize adapts AuthorizingMiddleware for chi's Use and With.
func Authorize(validator TokenValidator, log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return AuthorizingMiddleware(next, validator, log)
	}
}
