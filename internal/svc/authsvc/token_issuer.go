package authsvc

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mkrupp/simpletodo/internal/domain"
	"github.com/mkrupp/simpletodo/internal/util/clock"
)

const minSecretKeySize = 32

// ErrInvalidTokenConfig is returned by NewTokenIssuer for unusable settings.
var ErrInvalidTokenConfig = errors.New("invalid token config")

// TokenConfig holds the token signing parameters. None has a default: a
// missing variable aborts startup.
type TokenConfig struct {
	SecretKey        string `env:"SECRET_KEY"`
	Issuer           string `env:"ISSUER"`
	Audience         string `env:"AUDIENCE"`
	ExpiresInMinutes int    `env:"EXPIRES_IN_MINUTES"`
}

// Validate reports the first unusable setting.
func (c TokenConfig) Validate() error {
	switch {
	case strings.TrimSpace(c.SecretKey) == "":
		return fmt.Errorf("%w: secret key is empty", ErrInvalidTokenConfig)
	case len(c.SecretKey) < minSecretKeySize:
		return fmt.Errorf("%w: secret key must be at least %d bytes", ErrInvalidTokenConfig, minSecretKeySize)
	case strings.TrimSpace(c.Issuer) == "":
		return fmt.Errorf("%w: issuer is empty", ErrInvalidTokenConfig)
	case strings.TrimSpace(c.Audience) == "":
		return fmt.Errorf("%w: audience is empty", ErrInvalidTokenConfig)
	case c.ExpiresInMinutes <= 0:
		return fmt.Errorf("%w: expiry must be positive", ErrInvalidTokenConfig)
	default:
		return nil
	}
}

// TokenClaims are the claims carried by an access token. The subject is the
// user ID.
type TokenClaims struct {
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c TokenClaims) UserID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse subject: %w", err)
	}

	return id, nil
}

// TokenIssuer signs and verifies HS256 access tokens.
type TokenIssuer struct {
	cfg    TokenConfig
	key    []byte
	clock  clock.Clock
	parser *jwt.Parser
}

// NewTokenIssuer validates cfg and creates a TokenIssuer reading time from clk.
func NewTokenIssuer(cfg TokenConfig, clk clock.Clock) (*TokenIssuer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &TokenIssuer{
		cfg:   cfg,
		key:   []byte(cfg.SecretKey),
		clock: clk,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithAudience(cfg.Audience),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
			jwt.WithTimeFunc(clk.Now),
		),
	}, nil
}

// Generate issues a token for user expiring ExpiresInMinutes from now.
func (ti *TokenIssuer) Generate(user *domain.User) (string, error) {
	now := ti.clock.Now()

	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			Issuer:    ti.cfg.Issuer,
			Audience:  jwt.ClaimStrings{ti.cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ti.cfg.ExpiresInMinutes) * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Validate verifies the signature, issuer, audience and lifetime of token.
// Every failure is domain.ErrInvalidAuthToken.
func (ti *TokenIssuer) Validate(token string) (TokenClaims, error) {
	var claims TokenClaims

	if _, err := ti.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return ti.key, nil
	}); err != nil {
		return TokenClaims{}, errors.Join(domain.ErrInvalidAuthToken, fmt.Errorf("parse token: %w", err))
	}

	if _, err := claims.UserID(); err != nil {
		return TokenClaims{}, errors.Join(domain.ErrInvalidAuthToken, err)
	}

	return claims, nil
}
