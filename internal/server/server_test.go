package server_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	_ "openclaw/docs"
	"openclaw/internal/config"
	"openclaw/internal/database"
	"openclaw/internal/model"
	"openclaw/internal/repository"
	"openclaw/internal/server"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testConfig() *config.Config {
	return &config.Config{
		AppName:    "OpenClaw Backend",
		Env:        config.EnvDev,
		LogLevel:   "info",
		ServerPort: "0",
		Scheduler:  config.SchedulerConfig{Interval: time.Minute, LockTTL: 55 * time.Second},
		HTTP: config.HTTPConfig{
			RateLimitRPS:   100,
			RateLimitBurst: 100,
			AllowedOrigins: []string{"*"},
		},
		Telegram: config.TelegramConfig{APIURL: "https://api.telegram.org"},
	}
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

func setupRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)
	db := setupTestDB(t)
	return server.NewRouter(testConfig(), repository.NewTaskRepository(db), repository.NewReminderRepository(db), zerolog.Nop())
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_Routes(t *testing.T) {
	router := setupRouter(t)

	tests := []struct {
		path   string
		status int
	}{
		{"/", http.StatusOK},
		{"/health", http.StatusOK},
		{"/tasks", http.StatusOK},
		{"/reminders", http.StatusOK},
		{"/swagger/index.html", http.StatusOK},
		{"/swagger/doc.json", http.StatusOK},
		{"/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.status, get(router, tt.path).Code)
		})
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	router := setupRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/tasks", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewNotifier_Channels(t *testing.T) {
	cfg := testConfig()

	d, err := server.NewNotifier(cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []model.ReminderChannel{model.ChannelUI}, d.Channels())

	cfg.Telegram.BotToken = "token"
	cfg.Telegram.ChatID = "42"
	cfg.Twilio = config.TwilioConfig{
		AccountSID:     "AC123",
		AuthToken:      "secret",
		WhatsAppNumber: "+14155238886",
		Recipient:      "+15551234567",
	}

	d, err = server.NewNotifier(cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t,
		[]model.ReminderChannel{model.ChannelUI, model.ChannelTelegram, model.ChannelWhatsApp},
		d.Channels(),
	)
}

func TestNewNotifier_InvalidTelegramChat(t *testing.T) {
	cfg := testConfig()
	cfg.Telegram.BotToken = "token"
	cfg.Telegram.ChatID = "general"

	_, err := server.NewNotifier(cfg, zerolog.Nop())

	assert.Error(t, err)
}

func TestInit_WithRedisLock(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.Redis.URL = "redis://" + mr.Addr()

	s, err := server.Init(cfg, setupTestDB(t), zerolog.Nop())

	require.NoError(t, err)
	assert.NotNil(t, s.Engine)
	assert.False(t, s.Scheduler.Running())
}

func TestInit_RedisUnreachable(t *testing.T) {
	cfg := testConfig()
	cfg.Redis.URL = "redis://127.0.0.1:1"

	_, err := server.Init(cfg, setupTestDB(t), zerolog.Nop())

	assert.Error(t, err)
}
