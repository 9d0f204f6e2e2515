package storage_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"collabcode/backend/internal/models"
	"collabcode/backend/internal/storage"
)

// newTestService opens an in-memory SQLite database and migrates the schema.
// No Redis: presence and the event bus degrade to no-ops, same as production
// without a broker.
func newTestService(t *testing.T) *storage.Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// One :memory: database exists per connection; pin the pool to a single
	// connection so every query and transaction sees the same database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	svc := storage.NewStorageService(db, nil)
	require.NoError(t, svc.AutoMigrate())
	return svc
}

func createTestRoom(t *testing.T, svc *storage.Service, ownerID string, settings models.RoomSettings) *models.Room {
	t.Helper()
	room := &models.Room{
		OwnerID:  ownerID,
		Name:     "Test Room",
		Language: "go",
		IsPublic: true,
		Settings: settings,
	}
	require.NoError(t, svc.CreateRoom(room))
	return room
}
