package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"eventhub/internal/model"
)

type MembershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// Add inserts the membership while holding a row lock on the event so the
// capacity check and the insert cannot interleave with another join.
func (r *MembershipRepository) Add(ctx context.Context, membership *model.Membership) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event model.Event
		if err := lockForUpdate(tx).First(&event, membership.EventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("lock event failed: %w", err)
		}

		if event.MaxParticipants != nil {
			var count int64
			if err := tx.Model(&model.Membership{}).Where("event_id = ?", event.ID).Count(&count).Error; err != nil {
				return fmt.Errorf("count memberships failed: %w", err)
			}
			if count >= int64(*event.MaxParticipants) {
				return ErrCapacityReached
			}
		}

		if err := tx.Create(membership).Error; err != nil {
			switch {
			case isDuplicate(err):
				return ErrDuplicate
			case isForeignKeyViolation(err):
				return ErrNotFound
			}
			return fmt.Errorf("create membership failed: %w", err)
		}
		return nil
	})
}

// Remove deletes the membership and reports whether one existed.
func (r *MembershipRepository) Remove(ctx context.Context, eventID, userID uint) (bool, error) {
	result := r.db.WithContext(ctx).Where("event_id = ? AND user_id = ?", eventID, userID).Delete(&model.Membership{})
	if result.Error != nil {
		return false, fmt.Errorf("delete membership failed: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *MembershipRepository) Exists(ctx context.Context, eventID, userID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Membership{}).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("check membership failed: %w", err)
	}
	return count > 0, nil
}

func (r *MembershipRepository) Count(ctx context.Context, eventID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Membership{}).Where("event_id = ?", eventID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count memberships failed: %w", err)
	}
	return count, nil
}

func (r *MembershipRepository) ListUserIDs(ctx context.Context, eventID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&model.Membership{}).
		Where("event_id = ?", eventID).
		Order("joined_at ASC").
		Pluck("user_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list participants failed: %w", err)
	}
	return ids, nil
}

// ListUserIDsByEvents groups participant ids by event for a page of events.
func (r *MembershipRepository) ListUserIDsByEvents(ctx context.Context, eventIDs []uint) (map[uint][]uint, error) {
	out := make(map[uint][]uint, len(eventIDs))
	if len(eventIDs) == 0 {
		return out, nil
	}
	var rows []model.Membership
	if err := r.db.WithContext(ctx).
		Where("event_id IN ?", eventIDs).
		Order("joined_at ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list participants failed: %w", err)
	}
	for _, row := range rows {
		out[row.EventID] = append(out[row.EventID], row.UserID)
	}
	return out, nil
}
