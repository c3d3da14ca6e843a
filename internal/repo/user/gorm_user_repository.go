package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mkrupp/simpletodo/internal/domain"
	"github.com/mkrupp/simpletodo/internal/infra/database"
	"github.com/mkrupp/simpletodo/internal/util/clock"
)

// UserModel is the gorm row mapping of domain.User.
type UserModel struct {
	ID           string     `gorm:"primaryKey;type:char(36)"`
	Username     string     `gorm:"type:varchar(12);uniqueIndex;not null"`
	PasswordHash string     `gorm:"type:varchar(200);not null"`
	CreatedAt    time.Time  `gorm:"autoCreateTime:false;not null"`
	UpdatedAt    *time.Time `gorm:"autoUpdateTime:false"`
}

// TableName implements gorm's tabler interface.
func (UserModel) TableName() string {
	return "users"
}

func newUserModel(user *domain.User) UserModel {
	return UserModel{
		ID:           user.ID.String(),
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func (m UserModel) toDomain() (*domain.User, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}

	return &domain.User{
		ID:           id,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		Audit: domain.Audit{
			CreatedAt: m.CreatedAt.UTC(),
			UpdatedAt: m.UpdatedAt,
		},
	}, nil
}

// GormUserRepository implements Repository on MySQL through gorm.
type GormUserRepository struct {
	db    *gorm.DB
	clock clock.Clock
}

var _ Repository = (*GormUserRepository)(nil)

// GormUserRepositoryFactory creates a factory function that returns a new GormUserRepository.
func GormUserRepositoryFactory(ctx context.Context, cfg database.MySQLConfig, clk clock.Clock) RepositoryFactory {
	return func() (Repository, error) {
		db, err := database.OpenMySQL(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}

		return NewGormUserRepository(ctx, db, clk)
	}
}

// NewGormUserRepository migrates the users table on db.
func NewGormUserRepository(ctx context.Context, db *gorm.DB, clk clock.Clock) (*GormUserRepository, error) {
	//nolint:exhaustruct
	if err := db.WithContext(ctx).AutoMigrate(&UserModel{}); err != nil {
		return nil, fmt.Errorf("migrate users: %w", err)
	}

	return &GormUserRepository{db: db, clock: clk}, nil
}

// CreateUser implements Repository.CreateUser using gorm.
func (r *GormUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	user.StampCreated(r.clock.Now())

	model := newUserModel(user)

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if database.IsMySQLUniqueViolation(err) {
			err = errors.Join(domain.ErrUsernameAlreadyInUse, err)
		}

		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetUserByUsername implements Repository.GetUserByUsername using gorm.
func (r *GormUserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, bool, error) {
	return r.first(ctx, "username = ?", username)
}

// GetUserByID implements Repository.GetUserByID using gorm.
func (r *GormUserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, bool, error) {
	return r.first(ctx, "id = ?", id.String())
}

// UserExists implements Repository.UserExists using gorm.
func (r *GormUserRepository) UserExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64

	//nolint:exhaustruct
	if err := r.db.WithContext(ctx).Model(&UserModel{}).Where("id = ?", id.String()).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}

	return count > 0, nil
}

func (r *GormUserRepository) first(ctx context.Context, query string, arg any) (*domain.User, bool, error) {
	var model UserModel

	err := r.db.WithContext(ctx).Where(query, arg).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, fmt.Errorf("query user: %w", err)
	}

	user, err := model.toDomain()
	if err != nil {
		return nil, false, err
	}

	return user, true, nil
}

// Close implements Repository.Close.
func (r *GormUserRepository) Close() error {
	return database.CloseGorm(r.db)
}
