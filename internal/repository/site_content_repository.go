package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"eventhub/internal/model"
)

type SiteContentRepository struct {
	db *gorm.DB
}

func NewSiteContentRepository(db *gorm.DB) *SiteContentRepository {
	return &SiteContentRepository{db: db}
}

func (r *SiteContentRepository) Create(ctx context.Context, content *model.SiteContent) error {
	if err := r.db.WithContext(ctx).Create(content).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create content failed: %w", err)
	}
	return nil
}

func (r *SiteContentRepository) GetByKey(ctx context.Context, key string) (*model.SiteContent, error) {
	var content model.SiteContent
	if err := r.db.WithContext(ctx).Where("content_key = ?", key).First(&content).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query content by key failed: %w", err)
	}
	return &content, nil
}

func (r *SiteContentRepository) List(ctx context.Context) ([]model.SiteContent, error) {
	var contents []model.SiteContent
	if err := r.db.WithContext(ctx).Order("content_key ASC").Find(&contents).Error; err != nil {
		return nil, fmt.Errorf("list content failed: %w", err)
	}
	return contents, nil
}

// Update rewrites the value of an existing entry.
func (r *SiteContentRepository) Update(ctx context.Context, content *model.SiteContent) error {
	if err := updateColumns(ctx, r.db, content, content.ID, []string{"value"}); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("update content failed: %w", err)
	}
	return nil
}

func (r *SiteContentRepository) DeleteByKey(ctx context.Context, key string) (bool, error) {
	result := r.db.WithContext(ctx).Where("content_key = ?", key).Delete(&model.SiteContent{})
	if result.Error != nil {
		return false, fmt.Errorf("delete content failed: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
