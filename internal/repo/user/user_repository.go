package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mkrupp/simpletodo/internal/domain"
	"github.com/mkrupp/simpletodo/internal/infra/database"
	"github.com/mkrupp/simpletodo/internal/util/clock"
)

// Repository defines the interface for user data persistence.
type Repository interface {
	// GetUserByUsername retrieves a user by their username.
	// Returns the user and true if found, or nil and false if not found.
	GetUserByUsername(ctx context.Context, username string) (*domain.User, bool, error)

	// GetUserByID retrieves a user by their ID.
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, bool, error)

	// UserExists reports whether a user with the given ID exists.
	UserExists(ctx context.Context, id uuid.UUID) (bool, error)

	// CreateUser persists a new user and stamps its creation time.
	// Returns domain.ErrUsernameAlreadyInUse if the username is taken.
	CreateUser(ctx context.Context, user *domain.User) error

	// Close releases any resources held by the repository.
	Close() error
}

// RepositoryFactory is a function that creates a new Repository instance.
type RepositoryFactory func() (Repository, error)

// RepositoryFactoryFor returns the factory for the configured database driver.
func RepositoryFactoryFor(ctx context.Context, cfg database.Config, clk clock.Clock) (RepositoryFactory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	switch cfg.Driver {
	case database.DriverPostgres:
		return PostgresUserRepositoryFactory(ctx, cfg.Postgres, clk), nil
	case database.DriverMySQL:
		return GormUserRepositoryFactory(ctx, cfg.MySQL, clk), nil
	default:
		return SQLiteUserRepositoryFactory(ctx, cfg.SQLite, clk), nil
	}
}
