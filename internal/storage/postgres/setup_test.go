package postgres

import (
	"path/filepath"
	"testing"

	"github.com/collablink/collablink/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a throwaway sqlite database with the full schema. The
// repositories only use portable gorm operations, so sqlite stands in for
// postgres in unit tests; postgres-specific behavior is covered by the
// integration suite.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, MigrateModels(db,
		&models.Job{},
		&models.NotificationEvent{},
		&models.DeliveryAttempt{},
		&models.NotificationPreference{},
		&models.InboxNotification{},
		&models.DocumentTemplate{},
		&models.GeneratedDocument{},
	))
	return db
}
