package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"openclaw/internal/model"
)

// TaskFilter narrows and pages a task listing.
type TaskFilter struct {
	Skip   int
	Limit  int
	Status *model.TaskStatus
}

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create adds a new task to the database
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	task.ApplyDefaults()
	if err := task.Validate(); err != nil {
		return newValidationError(err)
	}
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// GetByID retrieves a task by its ID
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	result := r.db.WithContext(ctx).First(&task, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task: %w", result.Error)
	}
	return &task, nil
}

// List returns tasks newest first
func (r *TaskRepository) List(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	query := r.db.WithContext(ctx).Model(&model.Task{})
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}

	var tasks []model.Task
	result := query.
		Order("created_at DESC").
		Offset(filter.Skip).
		Limit(filter.Limit).
		Find(&tasks)
	if result.Error != nil {
		return nil, fmt.Errorf("list tasks: %w", result.Error)
	}
	return tasks, nil
}

// Update applies the fields set in update and refreshes updated_at
func (r *TaskRepository) Update(ctx context.Context, id uuid.UUID, update model.TaskUpdate) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&task, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return err
		}

		changes := update.Apply(&task)
		if err := task.Validate(); err != nil {
			return newValidationError(err)
		}

		task.UpdatedAt = tx.NowFunc()
		changes["updated_at"] = task.UpdatedAt
		return tx.Model(&model.Task{}).Where("id = ?", id).Updates(changes).Error
	})
	if err != nil {
		var validationErr *ValidationError
		if errors.Is(err, ErrTaskNotFound) || errors.As(err, &validationErr) {
			return nil, err
		}
		return nil, fmt.Errorf("update task: %w", err)
	}
	return &task, nil
}

// Delete removes a task and its reminders. It reports whether the task existed.
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&model.Reminder{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&model.Task{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	return deleted, nil
}
