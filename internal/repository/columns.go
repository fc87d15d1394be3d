package repository

import (
	"context"

	"gorm.io/gorm"
)

// updateColumns writes the named columns of value, a model pointer whose
// primary key is id, and bumps updated_at. Unlike Save it never inserts:
// a row that no longer exists yields ErrNotFound.
func updateColumns(ctx context.Context, db *gorm.DB, value any, id uint, columns []string) error {
	if len(columns) == 0 {
		return nil
	}
	result := db.WithContext(ctx).Model(value).Where("id = ?", id).Select(columns).Updates(value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// MySQL reports zero affected rows when the values did not change.
	var count int64
	if err := db.WithContext(ctx).Model(value).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}
