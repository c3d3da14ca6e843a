package todo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkrupp/simpletodo/internal/domain"
	"github.com/mkrupp/simpletodo/internal/infra/database"
	"github.com/mkrupp/simpletodo/internal/infra/logging"
	"github.com/mkrupp/simpletodo/internal/util/clock"
)

const (
	postgresTodoColumns   = "id::text, title, description, is_completed, user_id::text, created_at, updated_at"
	pgForeignKeyViolation = "23503"
)

// PostgresTodoRepository implements Repository on a pgx connection pool.
type PostgresTodoRepository struct {
	pool  *pgxpool.Pool
	clock clock.Clock
	log   logging.Logger
}

var _ Repository = (*PostgresTodoRepository)(nil)

// PostgresTodoRepositoryFactory creates a factory function that returns a new PostgresTodoRepository.
func PostgresTodoRepositoryFactory(ctx context.Context, cfg database.PostgresConfig, clk clock.Clock) RepositoryFactory {
	return func() (Repository, error) {
		return NewPostgresTodoRepository(ctx, cfg, clk)
	}
}

// NewPostgresTodoRepository connects to PostgreSQL and creates the schema if needed.
func NewPostgresTodoRepository(
	ctx context.Context,
	cfg database.PostgresConfig,
	clk clock.Clock,
) (*PostgresTodoRepository, error) {
	pool, err := database.OpenPostgres(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	return &PostgresTodoRepository{
		pool:  pool,
		clock: clk,
		log:   logging.GetLogger("repo.todo.postgres_todo_repository"),
	}, nil
}

func scanPostgresItem(row pgx.Row) (*domain.TodoItem, error) {
	var (
		item       domain.TodoItem
		id, userID string
		err        error
	)

	if err = row.Scan(
		&id, &item.Title, &item.Description, &item.IsCompleted, &userID, &item.CreatedAt, &item.UpdatedAt,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}

	if item.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse item id: %w", err)
	}

	if item.UserID, err = uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("parse owner id: %w", err)
	}

	item.CreatedAt = item.CreatedAt.UTC()

	return &item, nil
}

// GetItem implements Repository.GetItem using PostgreSQL.
func (r *PostgresTodoRepository) GetItem(ctx context.Context, id uuid.UUID) (*domain.TodoItem, bool, error) {
	item, err := scanPostgresItem(r.pool.QueryRow(ctx,
		"SELECT "+postgresTodoColumns+" FROM todo_items WHERE id = $1", id.String(),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, fmt.Errorf("query item: %w", err)
	}

	return item, true, nil
}

// ListItemsByOwner implements Repository.ListItemsByOwner using PostgreSQL.
// Count and page are read in one repeatable-read transaction.
func (r *PostgresTodoRepository) ListItemsByOwner(
	ctx context.Context,
	ownerID uuid.UUID,
	params domain.PaginationParams,
) (domain.PagedList[domain.TodoItem], error) {
	if err := params.Validate(); err != nil {
		return domain.PagedList[domain.TodoItem]{}, err
	}

	//nolint:exhaustruct
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return domain.PagedList[domain.TodoItem]{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var total int
	if err := tx.QueryRow(ctx,
		"SELECT COUNT(*) FROM todo_items WHERE user_id = $1", ownerID.String(),
	).Scan(&total); err != nil {
		return domain.PagedList[domain.TodoItem]{}, fmt.Errorf("count items: %w", err)
	}

	rows, err := tx.Query(ctx,
		"SELECT "+postgresTodoColumns+" FROM todo_items WHERE user_id = $1 "+
			"ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3",
		ownerID.String(), params.PageSize, params.Offset(),
	)
	if err != nil {
		return domain.PagedList[domain.TodoItem]{}, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.TodoItem, 0, params.PageSize)

	for rows.Next() {
		item, err := scanPostgresItem(rows)
		if err != nil {
			return domain.PagedList[domain.TodoItem]{}, fmt.Errorf("scan item: %w", err)
		}

		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return domain.PagedList[domain.TodoItem]{}, fmt.Errorf("iterate items: %w", err)
	}

	return pageOf(items, params, total)
}

// CreateItem implements Repository.CreateItem using PostgreSQL.
func (r *PostgresTodoRepository) CreateItem(ctx context.Context, item *domain.TodoItem) error {
	item.StampCreated(r.clock.Now())

	_, err := r.pool.Exec(ctx,
		"INSERT INTO todo_items (id, title, description, is_completed, user_id, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7)",
		item.ID.String(), item.Title, item.Description, item.IsCompleted,
		item.UserID.String(), item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			err = errors.Join(domain.ErrUserNotFound, err)
		}

		return fmt.Errorf("insert item: %w", err)
	}

	return nil
}

// UpdateItem implements Repository.UpdateItem using PostgreSQL.
func (r *PostgresTodoRepository) UpdateItem(ctx context.Context, item *domain.TodoItem) error {
	item.StampUpdated(r.clock.Now())

	tag, err := r.pool.Exec(ctx,
		"UPDATE todo_items SET title = $1, description = $2, is_completed = $3, updated_at = $4 WHERE id = $5",
		item.Title, item.Description, item.IsCompleted, item.UpdatedAt, item.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTodoItemNotFound
	}

	return nil
}

// DeleteItem implements Repository.DeleteItem using PostgreSQL.
func (r *PostgresTodoRepository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM todo_items WHERE id = $1", id.String())
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTodoItemNotFound
	}

	return nil
}

// Close implements Repository.Close by closing the connection pool.
func (r *PostgresTodoRepository) Close() error {
	r.pool.Close()
	r.log.Debug("pool closed")

	return nil
}
