package testutil

import (
	"fmt"
	"testing"

	"friendcircle/backend/internal/database"
	"friendcircle/backend/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB creates an in-memory SQLite database and runs migrations.
// Each test gets its own named shared-cache database so gorm's connection
// pool sees one store. Requires no external services.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "SetupTestDB: open sqlite")
	require.NoError(t, database.Migrate(db), "SetupTestDB: migrate")
	return db
}

// CreateTestUser inserts a user with the given handle.
func CreateTestUser(t *testing.T, db *gorm.DB, handle string) models.User {
	t.Helper()

	user := models.User{
		Handle:       handle,
		Email:        handle + "@example.com",
		PasswordHash: "x",
	}
	require.NoError(t, db.Create(&user).Error, "CreateTestUser: %s", handle)
	return user
}
