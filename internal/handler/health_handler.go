package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	service     string
	environment string
}

func NewHealthHandler(service, environment string) *HealthHandler {
	return &HealthHandler{service: service, environment: environment}
}

type HealthResponse struct {
	Status      string `json:"status"`
	Service     string `json:"service"`
	Environment string `json:"environment"`
}

type RootResponse struct {
	Message string `json:"message"`
	Docs    string `json:"docs"`
	Health  string `json:"health"`
}

// Health godoc
// @Summary      Liveness check
// @Tags         Health
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:      "healthy",
		Service:     h.service,
		Environment: h.environment,
	})
}

// Root godoc
// @Summary      Service index
// @Tags         Health
// @Produce      json
// @Success      200  {object}  RootResponse
// @Router       / [get]
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, RootResponse{
		Message: "Welcome to " + h.service,
		Docs:    "/swagger/index.html",
		Health:  "/health",
	})
}
