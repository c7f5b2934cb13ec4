package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"openclaw/internal/model"
)

// ReminderFilter narrows and pages a reminder listing.
type ReminderFilter struct {
	Skip   int
	Limit  int
	TaskID *uuid.UUID
	Sent   *bool
}

type ReminderRepository struct {
	db *gorm.DB
}

func NewReminderRepository(db *gorm.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

// Create adds a new reminder. Callers check that the owning task exists;
// a foreign key violation caused by a concurrent task delete is reported as
// ErrTaskReference.
func (r *ReminderRepository) Create(ctx context.Context, reminder *model.Reminder) error {
	reminder.ApplyDefaults()
	if err := reminder.Validate(); err != nil {
		return newValidationError(err)
	}
	if err := r.db.WithContext(ctx).Omit("Task").Create(reminder).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return ErrTaskReference
		}
		return fmt.Errorf("create reminder: %w", err)
	}
	return nil
}

// GetByID retrieves a reminder by its ID
func (r *ReminderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Reminder, error) {
	var reminder model.Reminder
	result := r.db.WithContext(ctx).First(&reminder, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrReminderNotFound
		}
		return nil, fmt.Errorf("get reminder: %w", result.Error)
	}
	return &reminder, nil
}

// List returns reminders ordered by remind_at ascending
func (r *ReminderRepository) List(ctx context.Context, filter ReminderFilter) ([]model.Reminder, error) {
	query := r.db.WithContext(ctx).Model(&model.Reminder{})
	if filter.TaskID != nil {
		query = query.Where("task_id = ?", *filter.TaskID)
	}
	if filter.Sent != nil {
		query = query.Where("sent = ?", *filter.Sent)
	}

	var reminders []model.Reminder
	result := query.
		Order("remind_at ASC").
		Offset(filter.Skip).
		Limit(filter.Limit).
		Find(&reminders)
	if result.Error != nil {
		return nil, fmt.Errorf("list reminders: %w", result.Error)
	}
	return reminders, nil
}

// ListDue returns unsent reminders with remind_at <= now, earliest first,
// with their owning task preloaded. A positive limit caps the result size.
func (r *ReminderRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]model.Reminder, error) {
	return r.ListDueAfter(ctx, now, nil, limit)
}

// ListDueAfter is ListDue resumed after a cursor. Rows are ordered by
// (remind_at, id), so paging with the last row of each page visits every due
// reminder exactly once, whether or not earlier ones were marked sent.
func (r *ReminderRepository) ListDueAfter(ctx context.Context, now time.Time, after *model.DueCursor, limit int) ([]model.Reminder, error) {
	var reminders []model.Reminder
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Preload("Task").
			Where("sent = ? AND remind_at <= ?", false, now.UTC())
		if after != nil {
			at := after.RemindAt.UTC()
			query = query.Where("(remind_at > ? OR (remind_at = ? AND id > ?))", at, at, after.ID)
		}
		query = query.Order("remind_at ASC").Order("id ASC")
		if limit > 0 {
			query = query.Limit(limit)
		}
		return query.Find(&reminders).Error
	}, r.snapshotTxOptions())
	if err != nil {
		return nil, fmt.Errorf("list due reminders: %w", err)
	}
	return reminders, nil
}

// snapshotTxOptions makes the due scan and its task preload read from one
// snapshot on postgres. SQLite transactions are already serializable.
func (r *ReminderRepository) snapshotTxOptions() *sql.TxOptions {
	if r.db.Dialector.Name() != "postgres" {
		return nil
	}
	return &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
}

// MarkSent flags a reminder as sent. Already sent or missing reminders are
// left alone and no error is returned.
func (r *ReminderRepository) MarkSent(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&model.Reminder{}).
		Where("id = ? AND sent = ?", id, false).
		Update("sent", true)
	if result.Error != nil {
		return fmt.Errorf("mark reminder sent: %w", result.Error)
	}
	return nil
}

// Delete removes a reminder by its ID and reports whether it existed
func (r *ReminderRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&model.Reminder{}, "id = ?", id)
	if result.Error != nil {
		return false, fmt.Errorf("delete reminder: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
