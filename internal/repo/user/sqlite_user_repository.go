package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mkrupp/simpletodo/internal/domain"
	"github.com/mkrupp/simpletodo/internal/infra/database"
	"github.com/mkrupp/simpletodo/internal/infra/logging"
	"github.com/mkrupp/simpletodo/internal/util/clock"
)

const sqliteUserColumns = "id, username, password_hash, created_at, updated_at"

// SQLiteUserRepository implements Repository using SQLite as the storage backend.
type SQLiteUserRepository struct {
	db        *sql.DB
	clock     clock.Clock
	log       logging.Logger
	writeLock *sync.Mutex // go-sqlite does not support concurrent writes
}

var _ Repository = (*SQLiteUserRepository)(nil)

// SQLiteUserRepositoryFactory creates a factory function that returns a new SQLiteUserRepository.
func SQLiteUserRepositoryFactory(ctx context.Context, cfg database.SQLiteConfig, clk clock.Clock) RepositoryFactory {
	return func() (Repository, error) {
		return NewSQLiteUserRepository(ctx, cfg, clk)
	}
}

// NewSQLiteUserRepository opens the database at cfg.Path, creating the schema if needed.
func NewSQLiteUserRepository(
	ctx context.Context,
	cfg database.SQLiteConfig,
	clk clock.Clock,
) (*SQLiteUserRepository, error) {
	db, err := database.OpenSQLite(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	return &SQLiteUserRepository{
		db:    db,
		clock: clk,
		log: logging.GetLogger("repo.user.sqlite_user_repository").With(
			logging.Group("db", "path", cfg.Path),
		),
		writeLock: new(sync.Mutex),
	}, nil
}

// CreateUser implements Repository.CreateUser using SQLite.
func (r *SQLiteUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	user.StampCreated(r.clock.Now())

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO users ("+sqliteUserColumns+") VALUES (?, ?, ?, ?, ?)",
		user.ID.String(),
		user.Username,
		user.PasswordHash,
		database.UnixNano(user.CreatedAt),
		database.NullUnixNano(user.UpdatedAt),
	)
	if err != nil {
		if database.IsSQLiteUniqueViolation(err) {
			err = errors.Join(domain.ErrUsernameAlreadyInUse, err)
		}

		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetUserByUsername implements Repository.GetUserByUsername using SQLite.
func (r *SQLiteUserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, bool, error) {
	return r.queryUser(ctx, "SELECT "+sqliteUserColumns+" FROM users WHERE username = ?", username)
}

// GetUserByID implements Repository.GetUserByID using SQLite.
func (r *SQLiteUserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, bool, error) {
	return r.queryUser(ctx, "SELECT "+sqliteUserColumns+" FROM users WHERE id = ?", id.String())
}

// UserExists implements Repository.UserExists using SQLite.
func (r *SQLiteUserRepository) UserExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool

	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM users WHERE id = ?)",
		id.String(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query user exists: %w", err)
	}

	return exists, nil
}

func (r *SQLiteUserRepository) queryUser(ctx context.Context, query string, arg any) (*domain.User, bool, error) {
	var (
		user      domain.User
		id        string
		createdAt int64
		updatedAt sql.NullInt64
	)

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&id, &user.Username, &user.PasswordHash, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, fmt.Errorf("query user: %w", err)
	}

	if user.ID, err = uuid.Parse(id); err != nil {
		return nil, false, fmt.Errorf("parse user id: %w", err)
	}

	user.CreatedAt = database.FromUnixNano(createdAt)
	user.UpdatedAt = database.FromNullUnixNano(updatedAt)

	return &user, true, nil
}

// Close implements Repository.Close by closing the database connection.
func (r *SQLiteUserRepository) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	r.log.Debug("db closed")

	return nil
}
