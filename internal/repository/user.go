package repository

import (
	"context"

	"agora/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user identity reads.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	IsAdmin(ctx context.Context, id uint) (bool, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) IsAdmin(ctx context.Context, id uint) (bool, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Select("is_admin").First(&user, id).Error; err != nil {
		return false, err
	}
	return user.IsAdmin, nil
}
