package handler_test

import (
	"net/http"
	"testing"

	"openclaw/internal/handler"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := handler.NewHealthHandler("OpenClaw Backend", "dev")
	router.GET("/", h.Root)
	router.GET("/health", h.Health)

	resp := doJSON(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, handler.HealthResponse{Status: "healthy", Service: "OpenClaw Backend", Environment: "dev"},
		decode[handler.HealthResponse](t, resp))

	resp = doJSON(t, router, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	root := decode[handler.RootResponse](t, resp)
	assert.Equal(t, "Welcome to OpenClaw Backend", root.Message)
	assert.Equal(t, "/health", root.Health)
}
