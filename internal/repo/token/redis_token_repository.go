package token

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mkrupp/simpletodo/internal/infra/logging"
	"github.com/mkrupp/simpletodo/internal/util/clock"
)

// RedisRepository implements Repository with expiring redis keys.
type RedisRepository struct {
	client    *redis.Client
	clock     clock.Clock
	keyPrefix string
	log       logging.Logger
}

var _ Repository = (*RedisRepository)(nil)

// RedisRepositoryFactory creates a factory function that returns a new RedisRepository.
func RedisRepositoryFactory(cfg Config, clk clock.Clock) RepositoryFactory {
	return func() (Repository, error) {
		//nolint:exhaustruct
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		return NewRedisRepository(client, cfg.KeyPrefix, clk), nil
	}
}

// NewRedisRepository wraps an existing client.
func NewRedisRepository(client *redis.Client, keyPrefix string, clk clock.Clock) *RedisRepository {
	return &RedisRepository{
		client:    client,
		clock:     clk,
		keyPrefix: keyPrefix,
		log:       logging.GetLogger("repo.token.redis_token_repository"),
	}
}

func (r *RedisRepository) key(jti string) string {
	return r.keyPrefix + jti
}

// Revoke implements Repository.Revoke. The key expires with the token.
func (r *RedisRepository) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := until.Sub(r.clock.Now())
	if ttl <= 0 {
		return nil
	}

	if err := r.client.Set(ctx, r.key(jti), until.UTC().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("set revoked token: %w", err)
	}

	return nil
}

// IsRevoked implements Repository.IsRevoked.
func (r *RedisRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}

	return n > 0, nil
}

// Close implements Repository.Close by closing the client.
func (r *RedisRepository) Close() error {
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("close redis: %w", err)
	}

	r.log.Debug("client closed")

	return nil
}
