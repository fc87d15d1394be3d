package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrDuplicate is returned when a unique index or composite key rejects a write.
	ErrDuplicate = errors.New("duplicate record")
	// ErrNotFound is returned by writes whose row or parent row vanished.
	ErrNotFound = errors.New("record not found")
	// ErrCapacityReached is returned when an event has no free participant slot.
	ErrCapacityReached = errors.New("event capacity reached")
)

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func isForeignKeyViolation(err error) bool {
	return errors.Is(err, gorm.ErrForeignKeyViolated)
}

// lockForUpdate adds SELECT ... FOR UPDATE. SQLite has no row locks and
// serialises writers on the database lock instead.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func clampLimit(limit, fallback, max int) int {
	if limit <= 0 || limit > max {
		return fallback
	}
	return limit
}
