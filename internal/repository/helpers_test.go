package repository_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"openclaw/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func utcNow() time.Time {
	return time.Now().UTC()
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_fk=1", name, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc:        utcNow,
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Task{}, &model.Reminder{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		DSN:                  "sqlmock_db_0",
		DriverName:           "postgres",
		Conn:                 db,
		PreferSimpleProtocol: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: utcNow,
	})
	require.NoError(t, err)

	return gormDB, mock
}

// seedTasks inserts tasks with CreatedAt spaced a minute apart so ordering is deterministic.
func seedTasks(t *testing.T, db *gorm.DB, tasks []model.Task) {
	t.Helper()
	base := time.Now().UTC().Add(-time.Hour)
	for i := range tasks {
		if tasks[i].CreatedAt.IsZero() {
			tasks[i].CreatedAt = base.Add(time.Duration(i) * time.Minute)
			tasks[i].UpdatedAt = tasks[i].CreatedAt
		}
		require.NoError(t, db.Create(&tasks[i]).Error, "seed task %d", i)
	}
}

func seedReminders(t *testing.T, db *gorm.DB, reminders []model.Reminder) {
	t.Helper()
	for i := range reminders {
		require.NoError(t, db.Omit("Task").Create(&reminders[i]).Error, "seed reminder %d", i)
	}
}
