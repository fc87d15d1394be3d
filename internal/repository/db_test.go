package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"eventhub/internal/model"
	"eventhub/internal/platform/database"
)

// newTestDB opens a migrated SQLite database with foreign keys enforced.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "eventhub.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Discard,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func seedUser(t *testing.T, repo *UserRepository, email string) *model.User {
	t.Helper()
	user := &model.User{
		Email:        email,
		PasswordHash: "hash",
		DisplayName:  "User " + email,
		Role:         model.RoleRegular,
		IsActive:     true,
		Interests:    []string{},
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func seedEvent(t *testing.T, repo *EventRepository, owner uint, title string, startsAt time.Time, capacity *int) *model.Event {
	t.Helper()
	event := &model.Event{
		Title:           title,
		OwnerID:         owner,
		StartsAt:        startsAt,
		Location:        "Main Hall",
		MaxParticipants: capacity,
	}
	require.NoError(t, repo.Create(context.Background(), event))
	return event
}

func countRows(t *testing.T, db *gorm.DB, value any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(value).Where(query, args...).Count(&n).Error)
	return n
}
