package repository

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"gorm.io/gorm"

	"eventhub/internal/model"
)

const eventBatchSize = 100

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create persists the event and records its owner as the first member.
func (r *EventRepository) Create(ctx context.Context, event *model.Event) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(event).Error; err != nil {
			if isForeignKeyViolation(err) {
				return ErrNotFound
			}
			return fmt.Errorf("create event failed: %w", err)
		}
		owner := model.Membership{
			EventID:  event.ID,
			UserID:   event.OwnerID,
			JoinedAt: event.CreatedAt,
		}
		if err := tx.Create(&owner).Error; err != nil {
			return fmt.Errorf("create owner membership failed: %w", err)
		}
		return nil
	})
}

func (r *EventRepository) GetByID(ctx context.Context, id uint) (*model.Event, error) {
	var event model.Event
	if err := r.db.WithContext(ctx).First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query event by id failed: %w", err)
	}
	return &event, nil
}

// Update writes only the given columns. A deleted event stays deleted:
// the call fails with ErrNotFound.
func (r *EventRepository) Update(ctx context.Context, event *model.Event, columns ...string) error {
	if err := updateColumns(ctx, r.db, event, event.ID, columns); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("update event failed: %w", err)
	}
	return nil
}

// Delete removes the event and its memberships. It reports false if the
// event did not exist.
func (r *EventRepository) Delete(ctx context.Context, id uint) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&model.Membership{}).Error; err != nil {
			return fmt.Errorf("delete event memberships failed: %w", err)
		}
		result := tx.Delete(&model.Event{}, id)
		if result.Error != nil {
			return fmt.Errorf("delete event failed: %w", result.Error)
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// Iterate streams events matching filter ordered by start time. Rows are
// fetched in batches as the caller ranges; every range starts a fresh query.
func (r *EventRepository) Iterate(ctx context.Context, filter model.EventFilter) iter.Seq2[model.Event, error] {
	return func(yield func(model.Event, error) bool) {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		remaining := filter.Limit

		for {
			size := eventBatchSize
			if remaining > 0 && remaining < size {
				size = remaining
			}

			var batch []model.Event
			err := r.filtered(ctx, filter).
				Order("starts_at ASC").
				Order("id ASC").
				Offset(offset).
				Limit(size).
				Find(&batch).Error
			if err != nil {
				yield(model.Event{}, fmt.Errorf("list events failed: %w", err))
				return
			}

			for _, event := range batch {
				if !yield(event, nil) {
					return
				}
			}

			if len(batch) < size {
				return
			}
			offset += len(batch)
			if remaining > 0 {
				remaining -= len(batch)
				if remaining == 0 {
					return
				}
			}
		}
	}
}

func (r *EventRepository) filtered(ctx context.Context, filter model.EventFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&model.Event{})
	if filter.From != nil {
		query = query.Where("starts_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("starts_at < ?", *filter.To)
	}
	if location := strings.TrimSpace(filter.Location); location != "" {
		query = query.Where("LOWER(location) LIKE ?", "%"+strings.ToLower(location)+"%")
	}
	if filter.OwnerID != 0 {
		query = query.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.ParticipantID != 0 {
		joined := r.db.Model(&model.Membership{}).Select("event_id").Where("user_id = ?", filter.ParticipantID)
		query = query.Where("id IN (?)", joined)
	}
	return query
}
