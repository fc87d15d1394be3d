package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"eventhub/internal/model"
)

type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Create(ctx context.Context, activity *model.Activity) error {
	if err := r.db.WithContext(ctx).Create(activity).Error; err != nil {
		return fmt.Errorf("create activity failed: %w", err)
	}
	return nil
}

func (r *ActivityRepository) ListRecent(ctx context.Context, limit int) ([]model.Activity, error) {
	limit = clampLimit(limit, 100, 200)

	var activities []model.Activity
	if err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Limit(limit).Find(&activities).Error; err != nil {
		return nil, fmt.Errorf("list activities failed: %w", err)
	}
	return activities, nil
}
