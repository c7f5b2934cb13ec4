package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"openclaw/internal/model"
	"openclaw/internal/repository"
)

// ReminderStore is the reminder persistence used by ReminderHandler.
type ReminderStore interface {
	Create(ctx context.Context, reminder *model.Reminder) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Reminder, error)
	List(ctx context.Context, filter repository.ReminderFilter) ([]model.Reminder, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// TaskLookup checks that a reminder's task exists.
type TaskLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error)
}

type ReminderHandler struct {
	reminders ReminderStore
	tasks     TaskLookup
}

func NewReminderHandler(reminders ReminderStore, tasks TaskLookup) *ReminderHandler {
	return &ReminderHandler{reminders: reminders, tasks: tasks}
}

type CreateReminderRequest struct {
	TaskID   string                `json:"task_id" binding:"required,uuid"`
	RemindAt *time.Time            `json:"remind_at" binding:"required" example:"2026-03-01T08:00:00Z"`
	Channel  model.ReminderChannel `json:"channel" binding:"required,oneof=telegram whatsapp ui"`
}

type ListRemindersQuery struct {
	Skip   int    `form:"skip,default=0" binding:"min=0"`
	Limit  int    `form:"limit,default=100" binding:"min=1,max=1000"`
	TaskID string `form:"task_id" binding:"omitempty,uuid"`
	Sent   *bool  `form:"sent"`
}

type ReminderResponse struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	RemindAt  time.Time `json:"remind_at"`
	Channel   string    `json:"channel"`
	Sent      bool      `json:"sent"`
	CreatedAt time.Time `json:"created_at"`
}

func newReminderResponse(r *model.Reminder) ReminderResponse {
	return ReminderResponse{
		ID:        r.ID.String(),
		TaskID:    r.TaskID.String(),
		RemindAt:  r.RemindAt,
		Channel:   string(r.Channel),
		Sent:      r.Sent,
		CreatedAt: r.CreatedAt,
	}
}

// Create godoc
// @Summary      Schedule a reminder for a task
// @Tags         Reminders
// @Accept       json
// @Produce      json
// @Param        reminder  body      CreateReminderRequest  true  "Reminder"
// @Success      201       {object}  ReminderResponse
// @Failure      400       {object}  ErrorResponse
// @Failure      404       {object}  ErrorResponse
// @Router       /reminders [post]
func (h *ReminderHandler) Create(c *gin.Context) {
	var req CreateReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	taskID, err := uuid.Parse(req.TaskID)
	if err != nil {
		badRequest(c, "Invalid task ID format")
		return
	}

	if _, err := h.tasks.GetByID(c.Request.Context(), taskID); err != nil {
		respondError(c, err, taskID)
		return
	}

	reminder := &model.Reminder{
		TaskID:   taskID,
		RemindAt: *req.RemindAt,
		Channel:  req.Channel,
	}
	if err := h.reminders.Create(c.Request.Context(), reminder); err != nil {
		// The task can disappear between the lookup and the insert, which
		// surfaces as ErrTaskReference.
		respondError(c, err, taskID)
		return
	}

	c.JSON(http.StatusCreated, newReminderResponse(reminder))
}

// List godoc
// @Summary      List reminders, earliest first
// @Tags         Reminders
// @Produce      json
// @Param        skip     query     int     false  "Rows to skip"    default(0)
// @Param        limit    query     int     false  "Rows to return"  default(100)
// @Param        task_id  query     string  false  "Task filter"
// @Param        sent     query     bool    false  "Sent filter"
// @Success      200      {array}   ReminderResponse
// @Failure      400      {object}  ErrorResponse
// @Router       /reminders [get]
func (h *ReminderHandler) List(c *gin.Context) {
	var q ListRemindersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "Invalid query: "+err.Error())
		return
	}

	filter := repository.ReminderFilter{Skip: q.Skip, Limit: q.Limit, Sent: q.Sent}
	if q.TaskID != "" {
		taskID, err := uuid.Parse(q.TaskID)
		if err != nil {
			badRequest(c, "Invalid task ID format")
			return
		}
		filter.TaskID = &taskID
	}

	reminders, err := h.reminders.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, uuid.Nil)
		return
	}

	resp := make([]ReminderResponse, 0, len(reminders))
	for i := range reminders {
		resp = append(resp, newReminderResponse(&reminders[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// GetByID godoc
// @Summary      Get a reminder
// @Tags         Reminders
// @Produce      json
// @Param        id   path      string  true  "Reminder ID"
// @Success      200  {object}  ReminderResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /reminders/{id} [get]
func (h *ReminderHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "reminder")
	if !ok {
		return
	}

	reminder, err := h.reminders.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, id)
		return
	}

	c.JSON(http.StatusOK, newReminderResponse(reminder))
}

// Delete godoc
// @Summary      Delete a reminder
// @Tags         Reminders
// @Param        id   path  string  true  "Reminder ID"
// @Success      204
// @Failure      404  {object}  ErrorResponse
// @Router       /reminders/{id} [delete]
func (h *ReminderHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "reminder")
	if !ok {
		return
	}

	deleted, err := h.reminders.Delete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, id)
		return
	}
	if !deleted {
		respondError(c, repository.ErrReminderNotFound, id)
		return
	}

	c.Status(http.StatusNoContent)
}
