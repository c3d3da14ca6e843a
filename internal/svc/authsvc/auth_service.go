package authsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mkrupp/simpletodo/internal/domain"
	"github.com/mkrupp/simpletodo/internal/infra/logging"
	"github.com/mkrupp/simpletodo/internal/repo/token"
	"github.com/mkrupp/simpletodo/internal/repo/user"
)

// ErrTokenRevoked explains why an otherwise valid token was rejected.
var ErrTokenRevoked = errors.New("token revoked")

// AuthService registers users, logs them in and manages the lifetime of
// their access tokens.
type AuthService struct {
	UserRepo    user.Repository
	RevokedRepo token.Repository
	Hasher      PasswordHasher
	Issuer      *TokenIssuer
	Log         logging.Logger
}

// NewAuthService creates an AuthService from repository factories.
// Repositories created before a failure are closed again.
func NewAuthService(
	userRepoFactory user.RepositoryFactory,
	revokedRepoFactory token.RepositoryFactory,
	hasher PasswordHasher,
	issuer *TokenIssuer,
) (*AuthService, error) {
	userRepo, err := userRepoFactory()
	if err != nil {
		return nil, fmt.Errorf("new user repo: %w", err)
	}

	revokedRepo, err := revokedRepoFactory()
	if err != nil {
		userRepo.Close()

		return nil, fmt.Errorf("new revoked token repo: %w", err)
	}

	return &AuthService{
		UserRepo:    userRepo,
		RevokedRepo: revokedRepo,
		Hasher:      hasher,
		Issuer:      issuer,
		Log:         logging.GetLogger("svc.authsvc.auth_service"),
	}, nil
}

// Register creates an account. A taken username is domain.ErrUsernameAlreadyInUse.
func (s *AuthService) Register(ctx context.Context, username, password string) (err error) {
	log := s.Log.With(logging.Group("user", "username", username))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "register user failed", "error", err)
		} else {
			log.DebugContext(ctx, "user registered")
		}
	}()

	_, exists, err := s.UserRepo.GetUserByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	} else if exists {
		return domain.ErrUsernameAlreadyInUse
	}

	passwordHash, err := s.Hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	newUser, err := domain.NewUser(username, passwordHash)
	if err != nil {
		return fmt.Errorf("new user: %w", err)
	}

	if err := s.UserRepo.CreateUser(ctx, newUser); err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

// Login authenticates a user and returns a signed access token. Unknown users
// and wrong passwords are both domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (_ string, err error) {
	log := s.Log.With(logging.Group("user", "username", username))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "login failed", "error", err)
		} else {
			log.DebugContext(ctx, "login successful")
		}
	}()

	found, ok, err := s.UserRepo.GetUserByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("get user: %w", err)
	} else if !ok {
		return "", domain.ErrInvalidCredentials
	}

	if !s.Hasher.Verify(password, found.PasswordHash) {
		return "", domain.ErrInvalidCredentials
	}

	signed, err := s.Issuer.Generate(found)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	return signed, nil
}

// ValidateToken verifies a token and checks it has not been revoked.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (claims TokenClaims, err error) {
	log := s.Log

	defer func() {
		if err != nil {
			log.WarnContext(ctx, "validate token failed", "error", err)
		} else {
			log.DebugContext(ctx, "token validated")
		}
	}()

	claims, err = s.Issuer.Validate(tokenString)
	if err != nil {
		return TokenClaims{}, fmt.Errorf("validate token: %w", err)
	}

	log = log.With(logging.Group("token",
		"sub", claims.Subject,
		"jti", claims.ID,
		"exp", claims.ExpiresAt.UTC().Format(time.RFC3339),
	))

	revoked, err := s.RevokedRepo.IsRevoked(ctx, claims.ID)
	if err != nil {
		return TokenClaims{}, fmt.Errorf("check revocation: %w", err)
	} else if revoked {
		return TokenClaims{}, errors.Join(domain.ErrInvalidAuthToken, ErrTokenRevoked)
	}

	return claims, nil
}

// Logout revokes a valid token until it expires.
func (s *AuthService) Logout(ctx context.Context, tokenString string) (err error) {
	defer func() {
		if err != nil {
			s.Log.ErrorContext(ctx, "logout failed", "error", err)
		} else {
			s.Log.DebugContext(ctx, "logged out")
		}
	}()

	claims, err := s.ValidateToken(ctx, tokenString)
	if err != nil {
		return err
	}

	if err := s.RevokedRepo.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}

	return nil
}

// Close releases resources held by the service, such as database connections.
func (s *AuthService) Close() error {
	return errors.Join(
		wrapClose("close user repo", s.UserRepo.Close()),
		wrapClose("close revoked token repo", s.RevokedRepo.Close()),
	)
}

func wrapClose(msg string, err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%s: %w", msg, err)
}
