package todo

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

const sqliteTodoColumns = "id, title, description, is_completed, user_id, created_at, updated_at"

// SQLiteTodoRepository implements Repository using SQLite as the storage backend.
type SQLiteTodoRepository struct {
	db        *sql.DB
	clock     clock.Clock
	log       logging.Logger
	writeLock *sync.Mutex // go-sqlite does not support concurrent writes
}

var _ Repository = (*SQLiteTodoRepository)(nil)

// SQLiteTodoRepositoryFactory creates a factory function that returns a new SQLiteTodoRepository.
func SQLiteTodoRepositoryFactory(ctx context.Context, cfg database.SQLiteConfig, clk clock.Clock) RepositoryFactory {
	return func() (Repository, error) {
		return NewSQLiteTodoRepository(ctx, cfg, clk)
	}
}

// NewSQLiteTodoRepository opens the database at cfg.Path, creating the schema if needed.
func NewSQLiteTodoRepository(
	ctx context.Context,
	cfg database.SQLiteConfig,
	clk clock.Clock,
) (*SQLiteTodoRepository, error) {
	db, err := database.OpenSQLite(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	return &SQLiteTodoRepository{
		db:    db,
		clock: clk,
		log: logging.GetLogger("repo.todo.sqlite_todo_repository").With(
			logging.Group("db", "path", cfg.Path),
		),
		writeLock: new(sync.Mutex),
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteItem(row rowScanner) (*domain.TodoItem, error) {
	var (
		item       domain.TodoItem
		id, userID string
		createdAt  int64
		updatedAt  sql.NullInt64
		err        error
	)

	if err = row.Scan(&id, &item.Title, &item.Description, &item.IsCompleted, &userID, &createdAt, &updatedAt); err != nil {
		return nil, err //nolint:wrapcheck
	}

	if item.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse item id: %w", err)
	}

	if item.UserID, err = uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("parse owner id: %w", err)
	}

	item.CreatedAt = database.FromUnixNano(createdAt)
	item.UpdatedAt = database.FromNullUnixNano(updatedAt)

	return &item, nil
}

// GetItem implements Repository.GetItem using SQLite.
func (r *SQLiteTodoRepository) GetItem(ctx context.Context, id uuid.UUID) (*domain.TodoItem, bool, error) {
	item, err := scanSQLiteItem(r.db.QueryRowContext(ctx,
		"SELECT "+sqliteTodoColumns+" FROM todo_items WHERE id = ?", id.String(),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, fmt.Errorf("query item: %w", err)
	}

	return item, true, nil
}

// ListItemsByOwner implements Repository.ListItemsByOwner using SQLite.
// Count and page are read in one transaction.
func (r *SQLiteTodoRepository) ListItemsByOwner(
	ctx context.Context,
	ownerID uuid.UUID,
	params domain.PaginationParams,
) (domain.PagedList[domain.TodoItem], error) {
	if err := params.Validate(); err != nil {
		return domain.PagedList[domain.TodoItem]{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.PagedList[domain.TodoItem]{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var total int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM todo_items WHERE user_id = ?", ownerID.String(),
	).Scan(&total); err != nil {
		return domain.PagedList[domain.TodoItem]{}, fmt.Errorf("count items: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		"SELECT "+sqliteTodoColumns+" FROM todo_items WHERE user_id = ? "+
			"ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		ownerID.String(), params.PageSize, params.Offset(),
	)
	if err != nil {
		return domain.PagedList[domain.TodoItem]{}, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.TodoItem, 0, params.PageSize)

	for rows.Next() {
		item, err := scanSQLiteItem(rows)
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

// CreateItem implements Repository.CreateItem using SQLite.
func (r *SQLiteTodoRepository) CreateItem(ctx context.Context, item *domain.TodoItem) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	item.StampCreated(r.clock.Now())

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO todo_items ("+sqliteTodoColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		item.ID.String(),
		item.Title,
		item.Description,
		item.IsCompleted,
		item.UserID.String(),
		database.UnixNano(item.CreatedAt),
		database.NullUnixNano(item.UpdatedAt),
	)
	if err != nil {
		if database.IsSQLiteForeignKeyViolation(err) {
			err = errors.Join(domain.ErrUserNotFound, err)
		}

		return fmt.Errorf("insert item: %w", err)
	}

	return nil
}

// UpdateItem implements Repository.UpdateItem using SQLite.
func (r *SQLiteTodoRepository) UpdateItem(ctx context.Context, item *domain.TodoItem) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	item.StampUpdated(r.clock.Now())

	res, err := r.db.ExecContext(ctx,
		"UPDATE todo_items SET title = ?, description = ?, is_completed = ?, updated_at = ? WHERE id = ?",
		item.Title,
		item.Description,
		item.IsCompleted,
		database.NullUnixNano(item.UpdatedAt),
		item.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}

	return requireAffected(res)
}

// DeleteItem implements Repository.DeleteItem using SQLite.
func (r *SQLiteTodoRepository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	res, err := r.db.ExecContext(ctx, "DELETE FROM todo_items WHERE id = ?", id.String())
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return domain.ErrTodoItemNotFound
	}

	return nil
}

// Close implements Repository.Close by closing the database connection.
func (r *SQLiteTodoRepository) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	r.log.Debug("db closed")

	return nil
}
