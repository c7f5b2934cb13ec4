package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"openclaw/internal/model"
	"openclaw/internal/repository"
)

// TaskStore is the task persistence used by TaskHandler.
type TaskStore interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error)
	List(ctx context.Context, filter repository.TaskFilter) ([]model.Task, error)
	Update(ctx context.Context, id uuid.UUID, update model.TaskUpdate) (*model.Task, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type TaskHandler struct {
	tasks TaskStore
}

func NewTaskHandler(tasks TaskStore) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

type CreateTaskRequest struct {
	Title       string           `json:"title" binding:"required,min=1,max=255" example:"Pay rent"`
	Description *string          `json:"description"`
	Status      model.TaskStatus `json:"status" binding:"omitempty,oneof=pending completed cancelled"`
	DueTime     *time.Time       `json:"due_time" example:"2026-03-01T09:00:00Z"`
	Source      model.TaskSource `json:"source" binding:"omitempty,oneof=telegram whatsapp ui system"`
}

// UpdateTaskRequest only changes the fields present in the body. An explicit
// null clears description or due_time.
type UpdateTaskRequest struct {
	Title       *string             `json:"title" binding:"omitempty,min=1,max=255"`
	Description Nullable[string]    `json:"description" swaggertype:"string"`
	Status      *model.TaskStatus   `json:"status" binding:"omitempty,oneof=pending completed cancelled"`
	DueTime     Nullable[time.Time] `json:"due_time" swaggertype:"string" format:"date-time"`
}

// Nullable is a JSON field that tells an explicit null apart from a missing
// key. Set is true whenever the key was present.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// Null reports whether the key was present with a null value.
func (n Nullable[T]) Null() bool {
	return n.Set && n.Value == nil
}

type ListTasksQuery struct {
	Skip   int    `form:"skip,default=0" binding:"min=0"`
	Limit  int    `form:"limit,default=100" binding:"min=1,max=1000"`
	Status string `form:"status" binding:"omitempty,oneof=pending completed cancelled"`
}

type TaskResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      string     `json:"status"`
	DueTime     *time.Time `json:"due_time"`
	Source      string     `json:"source"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func newTaskResponse(task *model.Task) TaskResponse {
	return TaskResponse{
		ID:          task.ID.String(),
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		DueTime:     task.DueTime,
		Source:      string(task.Source),
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

// Create godoc
// @Summary      Create a task
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Param        task  body      CreateTaskRequest  true  "Task"
// @Success      201   {object}  TaskResponse
// @Failure      400   {object}  ErrorResponse
// @Router       /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	task := &model.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		DueTime:     req.DueTime,
		Source:      req.Source,
	}
	if err := h.tasks.Create(c.Request.Context(), task); err != nil {
		respondError(c, err, task.ID)
		return
	}

	c.JSON(http.StatusCreated, newTaskResponse(task))
}

// List godoc
// @Summary      List tasks, newest first
// @Tags         Tasks
// @Produce      json
// @Param        skip    query     int     false  "Rows to skip"      default(0)
// @Param        limit   query     int     false  "Rows to return"    default(100)
// @Param        status  query     string  false  "Status filter"     Enums(pending, completed, cancelled)
// @Success      200     {array}   TaskResponse
// @Failure      400     {object}  ErrorResponse
// @Router       /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	var q ListTasksQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "Invalid query: "+err.Error())
		return
	}

	filter := repository.TaskFilter{Skip: q.Skip, Limit: q.Limit}
	if q.Status != "" {
		status := model.TaskStatus(q.Status)
		filter.Status = &status
	}

	tasks, err := h.tasks.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, uuid.Nil)
		return
	}

	resp := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		resp = append(resp, newTaskResponse(&tasks[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// GetByID godoc
// @Summary      Get a task
// @Tags         Tasks
// @Produce      json
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  TaskResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /tasks/{id} [get]
func (h *TaskHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "task")
	if !ok {
		return
	}

	task, err := h.tasks.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, id)
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(task))
}

// Update godoc
// @Summary      Partially update a task
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "Task ID"
// @Param        task  body      UpdateTaskRequest  true  "Fields to change"
// @Success      200   {object}  TaskResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /tasks/{id} [patch]
func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "task")
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	task, err := h.tasks.Update(c.Request.Context(), id, model.TaskUpdate{
		Title:            req.Title,
		Description:      req.Description.Value,
		Status:           req.Status,
		DueTime:          req.DueTime.Value,
		ClearDescription: req.Description.Null(),
		ClearDueTime:     req.DueTime.Null(),
	})
	if err != nil {
		respondError(c, err, id)
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(task))
}

// Delete godoc
// @Summary      Delete a task and its reminders
// @Tags         Tasks
// @Param        id   path  string  true  "Task ID"
// @Success      204
// @Failure      404  {object}  ErrorResponse
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "task")
	if !ok {
		return
	}

	deleted, err := h.tasks.Delete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, id)
		return
	}
	if !deleted {
		respondError(c, repository.ErrTaskNotFound, id)
		return
	}

	c.Status(http.StatusNoContent)
}
