package todo

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mkrupp/simpletodo/internal/domain"
	"github.com/mkrupp/simpletodo/internal/infra/database"
	"github.com/mkrupp/simpletodo/internal/util/clock"
)

// Repository defines the interface for to-do item persistence.
// Writes are single statements; concurrent writers to one item resolve as
// last write wins.
type Repository interface {
	// GetItem retrieves an item by ID regardless of owner.
	// Returns the item and true if found, or nil and false if not found.
	GetItem(ctx context.Context, id uuid.UUID) (*domain.TodoItem, bool, error)

	// ListItemsByOwner returns one page of the owner's items, newest first.
	ListItemsByOwner(
		ctx context.Context,
		ownerID uuid.UUID,
		params domain.PaginationParams,
	) (domain.PagedList[domain.TodoItem], error)

	// CreateItem persists a new item and stamps its creation time.
	CreateItem(ctx context.Context, item *domain.TodoItem) error

	// UpdateItem persists title, description and completion and stamps the
	// update time. Returns domain.ErrTodoItemNotFound if the item is gone.
	UpdateItem(ctx context.Context, item *domain.TodoItem) error

	// DeleteItem removes an item. Returns domain.ErrTodoItemNotFound if absent.
	DeleteItem(ctx context.Context, id uuid.UUID) error

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
		return PostgresTodoRepositoryFactory(ctx, cfg.Postgres, clk), nil
	case database.DriverMySQL:
		return GormTodoRepositoryFactory(ctx, cfg.MySQL, clk), nil
	default:
		return SQLiteTodoRepositoryFactory(ctx, cfg.SQLite, clk), nil
	}
}

func pageOf(items []domain.TodoItem, params domain.PaginationParams, total int) (domain.PagedList[domain.TodoItem], error) {
	page, err := domain.NewPagedList(items, params.Page, params.PageSize, total)
	if err != nil {
		return domain.PagedList[domain.TodoItem]{}, fmt.Errorf("new paged list: %w", err)
	}

	return page, nil
}
