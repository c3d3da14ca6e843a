package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkrupp/simpletodo/internal/domain"
	"github.com/mkrupp/simpletodo/internal/infra/database"
	"github.com/mkrupp/simpletodo/internal/infra/logging"
	"github.com/mkrupp/simpletodo/internal/util/clock"
)

const postgresUserColumns = "id::text, username, password_hash, created_at, updated_at"

// PostgresUserRepository implements Repository on a pgx connection pool.
type PostgresUserRepository struct {
	pool  *pgxpool.Pool
	clock clock.Clock
	log   logging.Logger
}

var _ Repository = (*PostgresUserRepository)(nil)

// PostgresUserRepositoryFactory creates a factory function that returns a new PostgresUserRepository.
func PostgresUserRepositoryFactory(ctx context.Context, cfg database.PostgresConfig, clk clock.Clock) RepositoryFactory {
	return func() (Repository, error) {
		return NewPostgresUserRepository(ctx, cfg, clk)
	}
}

// NewPostgresUserRepository connects to PostgreSQL and creates the schema if needed.
func NewPostgresUserRepository(
	ctx context.Context,
	cfg database.PostgresConfig,
	clk clock.Clock,
) (*PostgresUserRepository, error) {
	pool, err := database.OpenPostgres(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	return &PostgresUserRepository{
		pool:  pool,
		clock: clk,
		log:   logging.GetLogger("repo.user.postgres_user_repository"),
	}, nil
}

// CreateUser implements Repository.CreateUser using PostgreSQL.
func (r *PostgresUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	user.StampCreated(r.clock.Now())

	_, err := r.pool.Exec(ctx,
		"INSERT INTO users (id, username, password_hash, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)",
		user.ID.String(), user.Username, user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if database.IsPostgresUniqueViolation(err) {
			err = errors.Join(domain.ErrUsernameAlreadyInUse, err)
		}

		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetUserByUsername implements Repository.GetUserByUsername using PostgreSQL.
func (r *PostgresUserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, bool, error) {
	return r.queryUser(ctx, "SELECT "+postgresUserColumns+" FROM users WHERE username = $1", username)
}

// GetUserByID implements Repository.GetUserByID using PostgreSQL.
func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, bool, error) {
	return r.queryUser(ctx, "SELECT "+postgresUserColumns+" FROM users WHERE id = $1", id.String())
}

// UserExists implements Repository.UserExists using PostgreSQL.
func (r *PostgresUserRepository) UserExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool

	err := r.pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)", id.String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query user exists: %w", err)
	}

	return exists, nil
}

func (r *PostgresUserRepository) queryUser(ctx context.Context, query string, arg any) (*domain.User, bool, error) {
	var (
		user domain.User
		id   string
	)

	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&id, &user.Username, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, fmt.Errorf("query user: %w", err)
	}

	if user.ID, err = uuid.Parse(id); err != nil {
		return nil, false, fmt.Errorf("parse user id: %w", err)
	}

	user.CreatedAt = user.CreatedAt.UTC()

	return &user, true, nil
}

// Close implements Repository.Close by closing the connection pool.
func (r *PostgresUserRepository) Close() error {
	r.pool.Close()
	r.log.Debug("pool closed")

	return nil
}
