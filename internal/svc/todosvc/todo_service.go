package todosvc

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mkrupp/simpletodo/internal/domain"
	"github.com/mkrupp/simpletodo/internal/infra/logging"
	"github.com/mkrupp/simpletodo/internal/repo/todo"
	"github.com/mkrupp/simpletodo/internal/repo/user"
)

// TodoService manages the to-do items of authenticated users. Every operation
// first confirms the acting user still exists.
type TodoService struct {
	Config   TodoConfig
	UserRepo user.Repository
	TodoRepo todo.Repository
	Log      logging.Logger
}

// NewTodoService creates a TodoService from repository factories.
// Repositories created before a failure are closed again.
func NewTodoService(
	userRepoFactory user.RepositoryFactory,
	todoRepoFactory todo.RepositoryFactory,
	cfg TodoConfig,
) (*TodoService, error) {
	userRepo, err := userRepoFactory()
	if err != nil {
		return nil, fmt.Errorf("new user repo: %w", err)
	}

	todoRepo, err := todoRepoFactory()
	if err != nil {
		userRepo.Close()

		return nil, fmt.Errorf("new todo repo: %w", err)
	}

	return &TodoService{
		Config:   cfg,
		UserRepo: userRepo,
		TodoRepo: todoRepo,
		Log:      logging.GetLogger("svc.todosvc.todo_service"),
	}, nil
}

func (s *TodoService) requireUser(ctx context.Context, userID uuid.UUID) error {
	exists, err := s.UserRepo.UserExists(ctx, userID)
	if err != nil {
		return fmt.Errorf("check user exists: %w", err)
	} else if !exists {
		return domain.ErrUserNotFound
	}

	return nil
}

// ownedItem loads an item the user owns. Items owned by someone else are
// reported exactly like missing ones.
func (s *TodoService) ownedItem(ctx context.Context, userID, itemID uuid.UUID) (*domain.TodoItem, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	item, ok, err := s.TodoRepo.GetItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	} else if !ok || !item.OwnedBy(userID) {
		return nil, domain.ErrTodoItemNotFound
	}

	return item, nil
}

// ListPaged returns one page of the user's items, newest first. An unknown
// user gets an empty list rather than an error, whatever the page asked for.
func (s *TodoService) ListPaged(
	ctx context.Context,
	userID uuid.UUID,
	params domain.PaginationParams,
) (_ domain.PagedList[domain.TodoItemDTO], err error) {
	log := s.Log.With(logging.Group("page", "page", params.Page, "size", params.PageSize))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "list items failed", "error", err)
		} else {
			log.DebugContext(ctx, "items listed")
		}
	}()

	if err := s.requireUser(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.EmptyPagedList[domain.TodoItemDTO](), nil
		}

		return domain.PagedList[domain.TodoItemDTO]{}, err
	}

	if err := params.Validate(); err != nil {
		return domain.PagedList[domain.TodoItemDTO]{}, err
	}

	page, err := s.TodoRepo.ListItemsByOwner(ctx, userID, params)
	if err != nil {
		return domain.PagedList[domain.TodoItemDTO]{}, fmt.Errorf("list items: %w", err)
	}

	return domain.MapPagedList(page, domain.TodoItem.ToDTO), nil
}

// GetByID returns one of the user's items.
func (s *TodoService) GetByID(ctx context.Context, userID, itemID uuid.UUID) (_ domain.TodoItemDTO, err error) {
	log := s.Log.With(logging.Group("item", "id", itemID))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "get item failed", "error", err)
		} else {
			log.DebugContext(ctx, "item retrieved")
		}
	}()

	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return domain.TodoItemDTO{}, err
	}

	return item.ToDTO(), nil
}

// Create adds a new, incomplete item and returns its ID.
func (s *TodoService) Create(ctx context.Context, userID uuid.UUID, req domain.TodoItemCreate) (_ uuid.UUID, err error) {
	log := s.Log

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "create item failed", "error", err)
		} else {
			log.DebugContext(ctx, "item created")
		}
	}()

	if err := s.requireUser(ctx, userID); err != nil {
		return uuid.Nil, err
	}

	item, err := domain.NewTodoItem(req.Title, req.Description, userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("new item: %w", err)
	}

	log = log.With(logging.Group("item", "id", item.ID))

	if err := s.TodoRepo.CreateItem(ctx, item); err != nil {
		return uuid.Nil, fmt.Errorf("create item: %w", err)
	}

	return item.ID, nil
}

// Update replaces title and description. The item is always persisted.
func (s *TodoService) Update(
	ctx context.Context,
	userID, itemID uuid.UUID,
	req domain.TodoItemUpdate,
) (err error) {
	log := s.Log.With(logging.Group("item", "id", itemID))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "update item failed", "error", err)
		} else {
			log.DebugContext(ctx, "item updated")
		}
	}()

	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return err
	}

	if err := item.Update(req.Title, req.Description); err != nil {
		return fmt.Errorf("update item: %w", err)
	}

	if err := s.TodoRepo.UpdateItem(ctx, item); err != nil {
		return fmt.Errorf("store item: %w", err)
	}

	return nil
}

// Patch sets the completion flag. The flag is toggled only when the requested
// value differs, so repeating a patch never flips it back.
func (s *TodoService) Patch(
	ctx context.Context,
	userID, itemID uuid.UUID,
	req domain.TodoItemPatch,
) (err error) {
	log := s.Log.With(logging.Group("item", "id", itemID))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "patch item failed", "error", err)
		} else {
			log.DebugContext(ctx, "item patched")
		}
	}()

	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return err
	}

	if req.IsCompleted != nil && *req.IsCompleted != item.IsCompleted {
		item.ToggleCompleted()
	}

	if err := s.TodoRepo.UpdateItem(ctx, item); err != nil {
		return fmt.Errorf("store item: %w", err)
	}

	return nil
}

// Remove deletes one of the user's items.
func (s *TodoService) Remove(ctx context.Context, userID, itemID uuid.UUID) (err error) {
	log := s.Log.With(logging.Group("item", "id", itemID))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "remove item failed", "error", err)
		} else {
			log.DebugContext(ctx, "item removed")
		}
	}()

	if _, err := s.ownedItem(ctx, userID, itemID); err != nil {
		return err
	}

	if err := s.TodoRepo.DeleteItem(ctx, itemID); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	return nil
}

// Close releases resources held by the service, such as database connections.
func (s *TodoService) Close() error {
	var errs []error

	if err := s.UserRepo.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close user repo: %w", err))
	}

	if err := s.TodoRepo.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close todo repo: %w", err))
	}

	return errors.Join(errs...)
}
