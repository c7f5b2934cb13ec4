package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"openclaw/internal/database"
	"openclaw/internal/handler"
	"openclaw/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	router    *gin.Engine
	db        *gorm.DB
	tasks     *repository.TaskRepository
	reminders *repository.ReminderRepository
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_fk=1", name, time.Now().UnixNano())

	db, err := database.OpenSQLite(dsn, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, zerolog.Nop()))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func registerRoutes(r *gin.Engine, tasks handler.TaskStore, reminders handler.ReminderStore, lookup handler.TaskLookup) {
	taskHandler := handler.NewTaskHandler(tasks)
	reminderHandler := handler.NewReminderHandler(reminders, lookup)

	r.POST("/tasks", taskHandler.Create)
	r.GET("/tasks", taskHandler.List)
	r.GET("/tasks/:id", taskHandler.GetByID)
	r.PATCH("/tasks/:id", taskHandler.Update)
	r.DELETE("/tasks/:id", taskHandler.Delete)

	r.POST("/reminders", reminderHandler.Create)
	r.GET("/reminders", reminderHandler.List)
	r.GET("/reminders/:id", reminderHandler.GetByID)
	r.DELETE("/reminders/:id", reminderHandler.Delete)
}

func setupTest(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := setupTestDB(t)
	env := &testEnv{
		router:    gin.New(),
		db:        db,
		tasks:     repository.NewTaskRepository(db),
		reminders: repository.NewReminderRepository(db),
	}
	registerRoutes(env.router, env.tasks, env.reminders, env.tasks)
	return env
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out), resp.Body.String())
	return out
}
