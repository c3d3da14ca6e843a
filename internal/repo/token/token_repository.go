package token

import (
	"context"
	"time"

	"github.com/mkrupp/simpletodo/internal/util/clock"
)

// Repository records revoked tokens by their jti until they would have
// expired anyway.
type Repository interface {
	// Revoke marks jti as revoked until the given time.
	// Revoking an already expired token is a no-op.
	Revoke(ctx context.Context, jti string, until time.Time) error

	// IsRevoked reports whether jti has been revoked and is still tracked.
	IsRevoked(ctx context.Context, jti string) (bool, error)

	// Close releases any resources held by the repository.
	Close() error
}

// RepositoryFactory is a function that creates a new Repository instance.
type RepositoryFactory func() (Repository, error)

// Config selects the revocation store. An empty RedisAddr keeps revocations
// in process memory.
type Config struct {
	RedisAddr     string `env:"REDIS_ADDR" default:""`
	RedisPassword string `env:"REDIS_PASSWORD" default:""`
	RedisDB       int    `env:"REDIS_DB" default:"0"`
	KeyPrefix     string `env:"KEY_PREFIX" default:"simpletodo:revoked:"`
}

// RepositoryFactoryFor returns the factory for the configured store.
func RepositoryFactoryFor(cfg Config, clk clock.Clock) RepositoryFactory {
	if cfg.RedisAddr == "" {
		return func() (Repository, error) {
			return NewMemoryRepository(clk), nil
		}
	}

	return RedisRepositoryFactory(cfg, clk)
}
