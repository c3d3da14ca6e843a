package domain

import (
	"strings"

	"github.com/google/uuid"
)

//nolint:gochecknoglobals
var (
	// ErrTodoItemNotFound is returned for missing items and for items owned by someone else.
	ErrTodoItemNotFound = NewError(KindNotFound, "TodoItem.NotFound", "The specified to-do item was not found.")

	ErrEmptyTitle       = NewValidationError("TodoItem.Title", "Title cannot be empty or whitespace.")
	ErrEmptyDescription = NewValidationError("TodoItem.Description", "Description cannot be empty or whitespace.")
	ErrEmptyOwner       = NewValidationError("TodoItem.UserId", "Owner cannot be empty.")
)

// TodoItem is a single task owned by exactly one user.
type TodoItem struct {
	ID          uuid.UUID
	Title       string
	Description string
	IsCompleted bool
	UserID      uuid.UUID // Owner, never reassigned
	Audit
}

// NewTodoItem creates an incomplete item owned by userID.
func NewTodoItem(title, description string, userID uuid.UUID) (*TodoItem, error) {
	if err := validateContent(title, description); err != nil {
		return nil, err
	}

	if userID == uuid.Nil {
		return nil, ErrEmptyOwner
	}

	return &TodoItem{
		ID:          NewID(),
		Title:       title,
		Description: description,
		IsCompleted: false,
		UserID:      userID,
	}, nil
}

// Update replaces title and description. The item is left untouched on error.
func (i *TodoItem) Update(title, description string) error {
	if err := validateContent(title, description); err != nil {
		return err
	}

	i.Title = title
	i.Description = description

	return nil
}

// ToggleCompleted flips the completion flag.
func (i *TodoItem) ToggleCompleted() {
	i.IsCompleted = !i.IsCompleted
}

// OwnedBy reports whether userID owns the item.
func (i *TodoItem) OwnedBy(userID uuid.UUID) bool {
	return i.UserID == userID
}

func validateContent(title, description string) error {
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}

	if strings.TrimSpace(description) == "" {
		return ErrEmptyDescription
	}

	return nil
}
