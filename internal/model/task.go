package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusCancelled TaskStatus = "cancelled"
)

// TaskSource records where a task was created from.
type TaskSource string

const (
	TaskSourceTelegram TaskSource = "telegram"
	TaskSourceWhatsApp TaskSource = "whatsapp"
	TaskSourceUI       TaskSource = "ui"
	TaskSourceSystem   TaskSource = "system"
)

const TitleMaxLength = 255

type Task struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Title       string     `gorm:"size:255;not null" validate:"required,max=255"`
	Description *string    `gorm:"type:text"`
	Status      TaskStatus `gorm:"size:20;not null;index" validate:"oneof=pending completed cancelled"`
	DueTime     *time.Time `gorm:"index"`
	Source      TaskSource `gorm:"size:20;not null" validate:"oneof=telegram whatsapp ui system"`
	CreatedAt   time.Time  `gorm:"not null"`
	UpdatedAt   time.Time  `gorm:"not null"`
}

// ApplyDefaults fills in the identifier, status and source when unset and
// normalises the due time to UTC.
func (t *Task) ApplyDefaults() {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = TaskStatusPending
	}
	if t.Source == "" {
		t.Source = TaskSourceSystem
	}
	t.DueTime = utcPtr(t.DueTime)
}

func (t *Task) Validate() error {
	return validate.Struct(t)
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	t.ApplyDefaults()
	return nil
}

// TaskUpdate carries a partial update. Nil fields are left untouched; the
// Clear flags null out the optional columns and win over a value.
type TaskUpdate struct {
	Title            *string
	Description      *string
	Status           *TaskStatus
	DueTime          *time.Time
	ClearDescription bool
	ClearDueTime     bool
}

// Apply copies the set fields onto task and returns the matching column map.
func (u TaskUpdate) Apply(task *Task) map[string]interface{} {
	changes := make(map[string]interface{})
	if u.Title != nil {
		task.Title = *u.Title
		changes["title"] = task.Title
	}
	if u.ClearDescription {
		task.Description = nil
		changes["description"] = nil
	} else if u.Description != nil {
		description := *u.Description
		task.Description = &description
		changes["description"] = description
	}
	if u.Status != nil {
		task.Status = *u.Status
		changes["status"] = string(task.Status)
	}
	if u.ClearDueTime {
		task.DueTime = nil
		changes["due_time"] = nil
	} else if u.DueTime != nil {
		task.DueTime = utcPtr(u.DueTime)
		changes["due_time"] = *task.DueTime
	}
	return changes
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
