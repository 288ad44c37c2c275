package repository

import (
	"context"

	"agora/internal/cache"
	"agora/internal/models"

	"gorm.io/gorm"
)

// CategoryRepository defines interface for category reads.
type CategoryRepository interface {
	List(ctx context.Context) ([]*models.Category, error)
	GetByID(ctx context.Context, id uint) (*models.Category, error)
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) List(ctx context.Context) ([]*models.Category, error) {
	var categories []*models.Category
	err := cache.Aside(ctx, cache.CategoriesKey, &categories, cache.CategoryTTL, func() error {
		return r.db.WithContext(ctx).
			Order("display_order asc, id asc").
			Find(&categories).Error
	})
	return categories, err
}

func (r *categoryRepository) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}
