package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReminderChannel is the delivery channel of a reminder.
type ReminderChannel string

const (
	ChannelTelegram ReminderChannel = "telegram"
	ChannelWhatsApp ReminderChannel = "whatsapp"
	ChannelUI       ReminderChannel = "ui"
)

// Reminder is a scheduled notification owned by exactly one task. Sent only
// ever moves from false to true.
type Reminder struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TaskID    uuid.UUID       `gorm:"type:uuid;not null;index" validate:"required"`
	RemindAt  time.Time       `gorm:"not null;index" validate:"required"`
	Channel   ReminderChannel `gorm:"size:20;not null" validate:"oneof=telegram whatsapp ui"`
	Sent      bool            `gorm:"not null;index"`
	CreatedAt time.Time       `gorm:"not null"`

	Task *Task `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" validate:"-"`
}

func (r *Reminder) ApplyDefaults() {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.RemindAt = r.RemindAt.UTC()
}

func (r *Reminder) Validate() error {
	return validate.Struct(r)
}

func (r *Reminder) BeforeCreate(tx *gorm.DB) error {
	r.ApplyDefaults()
	return nil
}

// DueCursor is a position in the (remind_at, id) order of the due scan.
type DueCursor struct {
	RemindAt time.Time
	ID       uuid.UUID
}

func (r Reminder) Cursor() DueCursor {
	return DueCursor{RemindAt: r.RemindAt, ID: r.ID}
}
