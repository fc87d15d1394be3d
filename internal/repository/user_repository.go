package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"eventhub/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create user failed: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by email failed: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by id failed: %w", err)
	}
	return &user, nil
}

// Update writes only the given columns of user. Other columns keep their
// stored values even if user was loaded before a concurrent write.
func (r *UserRepository) Update(ctx context.Context, user *model.User, columns ...string) error {
	if err := updateColumns(ctx, r.db, user, user.ID, columns); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return ErrNotFound
		case isDuplicate(err):
			return ErrDuplicate
		}
		return fmt.Errorf("update user failed: %w", err)
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, offset, limit int) ([]model.User, error) {
	if offset < 0 {
		offset = 0
	}
	limit = clampLimit(limit, 100, 500)

	var users []model.User
	if err := r.db.WithContext(ctx).Order("id ASC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users failed: %w", err)
	}
	return users, nil
}

// Delete removes the user together with their memberships, the events they
// own and those events' memberships. It reports false if no such user exists.
func (r *UserRepository) Delete(ctx context.Context, id uint) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := tx.Model(&model.Event{}).Select("id").Where("owner_id = ?", id)
		if err := tx.Where("event_id IN (?)", owned).Delete(&model.Membership{}).Error; err != nil {
			return fmt.Errorf("delete owned event memberships failed: %w", err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.Membership{}).Error; err != nil {
			return fmt.Errorf("delete user memberships failed: %w", err)
		}
		if err := tx.Where("owner_id = ?", id).Delete(&model.Event{}).Error; err != nil {
			return fmt.Errorf("delete owned events failed: %w", err)
		}
		result := tx.Delete(&model.User{}, id)
		if result.Error != nil {
			return fmt.Errorf("delete user failed: %w", result.Error)
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}
