package storage

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/easeaico/adaptive-tutor/internal/types"
)

type userModel struct {
	ID        int64  `gorm:"primaryKey"`
	Username  string `gorm:"size:255;not null"`
	Email     string `gorm:"size:255;not null;uniqueIndex"`
	Password  string `gorm:"column:password_hash;not null"`
	CreatedAt time.Time
}

func (userModel) TableName() string {
	return "users"
}

// UserRepo accesses user accounts.
type UserRepo struct {
	db *gorm.DB
}

// NewUserRepo returns a UserRepo.
func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts a user and fills in its id and creation time.
func (r *UserRepo) Create(ctx context.Context, user *types.User) error {
	model := userModel{
		Username: user.Username,
		Email:    user.Email,
		Password: user.PasswordHash,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", translate(err))
	}
	user.ID = model.ID
	user.CreatedAt = model.CreatedAt
	return nil
}

// GetByEmail returns the user registered under email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*types.User, error) {
	var model userModel
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&model).Error; err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", translate(err))
	}
	return &types.User{
		ID:           model.ID,
		Username:     model.Username,
		Email:        model.Email,
		PasswordHash: model.Password,
		CreatedAt:    model.CreatedAt,
	}, nil
}
