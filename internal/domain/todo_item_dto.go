package domain

import (
	"time"

	"github.com/google/uuid"
)

// TodoItemDTO is the external representation of a TodoItem.
type TodoItemDTO struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsCompleted bool      `json:"isCompleted"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TodoItemCreate is the payload for creating an item.
type TodoItemCreate struct {
	Title       string `json:"title"       validate:"required,max=60"`
	Description string `json:"description" validate:"required"`
}

// TodoItemUpdate is the payload for replacing an item's content.
type TodoItemUpdate struct {
	Title       string `json:"title"       validate:"required,max=60"`
	Description string `json:"description" validate:"required"`
}

// TodoItemPatch is the payload for a partial update. A nil field is left alone.
type TodoItemPatch struct {
	IsCompleted *bool `json:"isCompleted" validate:"required"`
}

// CreatedResponse carries the identifier of a newly created resource.
type CreatedResponse struct {
	ID uuid.UUID `json:"id"`
}

// ToDTO maps an item to its external representation.
func (i TodoItem) ToDTO() TodoItemDTO {
	return TodoItemDTO{
		ID:          i.ID,
		Title:       i.Title,
		Description: i.Description,
		IsCompleted: i.IsCompleted,
		CreatedAt:   i.CreatedAt,
	}
}
