package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"openclaw/internal/repository"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError maps repository errors onto HTTP statuses. Anything it does
// not recognise is treated as a store fault and its detail is not exposed.
func respondError(c *gin.Context, err error, id uuid.UUID) {
	var validationErr *repository.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: validationErr.Error()})
	case errors.Is(err, repository.ErrTaskNotFound), errors.Is(err, repository.ErrTaskReference):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("Task with id %s not found", id)})
	case errors.Is(err, repository.ErrReminderNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("Reminder with id %s not found", id)})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func parseID(c *gin.Context, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, fmt.Sprintf("Invalid %s ID format", what))
		return uuid.Nil, false
	}
	return id, true
}
