package middleware_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"openclaw/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func setupRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handlers...)
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})
	r.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})
	return r
}

func doGet(r *gin.Engine, path, remoteAddr string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_Allow(t *testing.T) {
	router := setupRouter(middleware.RateLimiter(rate.Limit(1), 1))

	first := doGet(router, "/test", "127.0.0.1:12345")
	second := doGet(router, "/test", "127.0.0.1:12345")

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, second.Body.String())
}

func TestRateLimiter_DifferentIPs(t *testing.T) {
	router := setupRouter(middleware.RateLimiter(rate.Limit(1), 1))

	first := doGet(router, "/test", "127.0.0.1:12345")
	second := doGet(router, "/test", "192.168.1.1:12345")

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	router := setupRouter(middleware.Recovery(zerolog.New(&buf)))

	w := doGet(router, "/panic", "127.0.0.1:1")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
	assert.Contains(t, buf.String(), "panic recovered")
}

func TestRequestLogger(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	router := setupRouter(middleware.RequestLogger(zerolog.New(&buf)))

	req, _ := http.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	w := httptest.NewRecorder()

	// Act
	router.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, "req-42", w.Header().Get(middleware.RequestIDHeader))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "req-42", entry["request_id"])
	assert.Equal(t, "/test", entry["path"])
	assert.EqualValues(t, http.StatusOK, entry["status"])
}

func TestRequestLogger_GeneratesRequestID(t *testing.T) {
	var buf bytes.Buffer
	router := setupRouter(middleware.RequestLogger(zerolog.New(&buf)))

	w := doGet(router, "/missing", "127.0.0.1:1")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
	assert.Contains(t, buf.String(), `"level":"warn"`)
}
