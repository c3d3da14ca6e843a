package todo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mkrupp/simpletodo/internal/domain"
	"github.com/mkrupp/simpletodo/internal/infra/database"
	"github.com/mkrupp/simpletodo/internal/repo/user"
	"github.com/mkrupp/simpletodo/internal/util/clock"
)

// TodoItemModel is the gorm row mapping of domain.TodoItem. Owner is never
// loaded; it declares the foreign key to users, so items go away with their
// owner and inserts for unknown owners fail.
type TodoItemModel struct {
	ID          string          `gorm:"primaryKey;type:char(36);index:idx_todo_items_user_created,priority:3,sort:desc"`
	Title       string          `gorm:"type:varchar(60);not null"`
	Description string          `gorm:"type:text;not null"`
	IsCompleted bool            `gorm:"not null;default:false"`
	UserID      string          `gorm:"type:char(36);not null;index:idx_todo_items_user_created,priority:1"`
	Owner       *user.UserModel `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time       `gorm:"autoCreateTime:false;not null;index:idx_todo_items_user_created,priority:2,sort:desc"`
	UpdatedAt   *time.Time      `gorm:"autoUpdateTime:false"`
}

// TableName implements gorm's tabler interface.
func (TodoItemModel) TableName() string {
	return "todo_items"
}

func newTodoItemModel(item *domain.TodoItem) TodoItemModel {
	return TodoItemModel{
		ID:          item.ID.String(),
		Title:       item.Title,
		Description: item.Description,
		IsCompleted: item.IsCompleted,
		UserID:      item.UserID.String(),
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

func (m TodoItemModel) toDomain() (*domain.TodoItem, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse item id: %w", err)
	}

	userID, err := uuid.Parse(m.UserID)
	if err != nil {
		return nil, fmt.Errorf("parse owner id: %w", err)
	}

	return &domain.TodoItem{
		ID:          id,
		Title:       m.Title,
		Description: m.Description,
		IsCompleted: m.IsCompleted,
		UserID:      userID,
		Audit: domain.Audit{
			CreatedAt: m.CreatedAt.UTC(),
			UpdatedAt: m.UpdatedAt,
		},
	}, nil
}

// GormTodoRepository implements Repository on MySQL through gorm.
type GormTodoRepository struct {
	db    *gorm.DB
	clock clock.Clock
}

var _ Repository = (*GormTodoRepository)(nil)

// GormTodoRepositoryFactory creates a factory function that returns a new GormTodoRepository.
func GormTodoRepositoryFactory(ctx context.Context, cfg database.MySQLConfig, clk clock.Clock) RepositoryFactory {
	return func() (Repository, error) {
		db, err := database.OpenMySQL(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}

		return NewGormTodoRepository(ctx, db, clk)
	}
}

// NewGormTodoRepository migrates the todo_items table on db. gorm migrates the
// users table first since the foreign key depends on it.
func NewGormTodoRepository(ctx context.Context, db *gorm.DB, clk clock.Clock) (*GormTodoRepository, error) {
	//nolint:exhaustruct
	if err := db.WithContext(ctx).AutoMigrate(&TodoItemModel{}); err != nil {
		return nil, fmt.Errorf("migrate todo items: %w", err)
	}

	return &GormTodoRepository{db: db, clock: clk}, nil
}

// GetItem implements Repository.GetItem using gorm.
func (r *GormTodoRepository) GetItem(ctx context.Context, id uuid.UUID) (*domain.TodoItem, bool, error) {
	var model TodoItemModel

	err := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, fmt.Errorf("query item: %w", err)
	}

	item, err := model.toDomain()
	if err != nil {
		return nil, false, err
	}

	return item, true, nil
}

// ListItemsByOwner implements Repository.ListItemsByOwner using gorm.
func (r *GormTodoRepository) ListItemsByOwner(
	ctx context.Context,
	ownerID uuid.UUID,
	params domain.PaginationParams,
) (domain.PagedList[domain.TodoItem], error) {
	if err := params.Validate(); err != nil {
		return domain.PagedList[domain.TodoItem]{}, err
	}

	var (
		total  int64
		models []TodoItemModel
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//nolint:exhaustruct
		if err := tx.Model(&TodoItemModel{}).Where("user_id = ?", ownerID.String()).Count(&total).Error; err != nil {
			return fmt.Errorf("count items: %w", err)
		}

		if err := tx.Where("user_id = ?", ownerID.String()).
			Order("created_at DESC").Order("id DESC").
			Limit(params.PageSize).Offset(params.Offset()).
			Find(&models).Error; err != nil {
			return fmt.Errorf("query items: %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.PagedList[domain.TodoItem]{}, fmt.Errorf("list transaction: %w", err)
	}

	items := make([]domain.TodoItem, 0, len(models))

	for _, model := range models {
		item, err := model.toDomain()
		if err != nil {
			return domain.PagedList[domain.TodoItem]{}, err
		}

		items = append(items, *item)
	}

	return pageOf(items, params, int(total))
}

// CreateItem implements Repository.CreateItem using gorm.
func (r *GormTodoRepository) CreateItem(ctx context.Context, item *domain.TodoItem) error {
	item.StampCreated(r.clock.Now())

	model := newTodoItemModel(item)

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			err = errors.Join(domain.ErrUserNotFound, err)
		}

		return fmt.Errorf("insert item: %w", err)
	}

	return nil
}

// UpdateItem implements Repository.UpdateItem using gorm.
func (r *GormTodoRepository) UpdateItem(ctx context.Context, item *domain.TodoItem) error {
	item.StampUpdated(r.clock.Now())

	//nolint:exhaustruct
	res := r.db.WithContext(ctx).Model(&TodoItemModel{}).Where("id = ?", item.ID.String()).Updates(map[string]any{
		"title":        item.Title,
		"description":  item.Description,
		"is_completed": item.IsCompleted,
		"updated_at":   item.UpdatedAt,
	})
	if res.Error != nil {
		return fmt.Errorf("update item: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return domain.ErrTodoItemNotFound
	}

	return nil
}

// DeleteItem implements Repository.DeleteItem using gorm.
func (r *GormTodoRepository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	//nolint:exhaustruct
	res := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&TodoItemModel{})
	if res.Error != nil {
		return fmt.Errorf("delete item: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return domain.ErrTodoItemNotFound
	}

	return nil
}

// Close implements Repository.Close.
func (r *GormTodoRepository) Close() error {
	return database.CloseGorm(r.db)
}
