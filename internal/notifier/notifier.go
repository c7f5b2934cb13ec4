// Package notifier delivers due reminders over their configured channel.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"openclaw/internal/model"
)

// ErrChannelNotConfigured is returned when no sender is registered for a
// reminder's channel. The reminder stays unsent.
var ErrChannelNotConfigured = errors.New("notification channel not configured")

// Notifier delivers one reminder for its owning task.
type Notifier interface {
	Notify(ctx context.Context, reminder model.Reminder, task model.Task) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, reminder model.Reminder, task model.Task) error

func (f NotifierFunc) Notify(ctx context.Context, reminder model.Reminder, task model.Task) error {
	return f(ctx, reminder, task)
}

// Dispatcher routes a reminder to the notifier registered for its channel.
type Dispatcher struct {
	channels map[model.ReminderChannel]Notifier
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{channels: make(map[model.ReminderChannel]Notifier)}
}

// Register sets the notifier for channel, replacing any previous one.
func (d *Dispatcher) Register(channel model.ReminderChannel, n Notifier) {
	d.channels[channel] = n
}

// Channels lists the channels that have a notifier.
func (d *Dispatcher) Channels() []model.ReminderChannel {
	channels := make([]model.ReminderChannel, 0, len(d.channels))
	for _, ch := range []model.ReminderChannel{model.ChannelUI, model.ChannelTelegram, model.ChannelWhatsApp} {
		if _, ok := d.channels[ch]; ok {
			channels = append(channels, ch)
		}
	}
	return channels
}

func (d *Dispatcher) Notify(ctx context.Context, reminder model.Reminder, task model.Task) error {
	n, ok := d.channels[reminder.Channel]
	if !ok {
		return fmt.Errorf("%w: %s", ErrChannelNotConfigured, reminder.Channel)
	}
	return n.Notify(ctx, reminder, task)
}

// FormatMessage renders the text sent to chat channels.
func FormatMessage(reminder model.Reminder, task model.Task) string {
	var sb strings.Builder
	sb.WriteString("Reminder: ")
	sb.WriteString(task.Title)
	if task.DueTime != nil {
		sb.WriteString(" (due ")
		sb.WriteString(task.DueTime.UTC().Format(time.RFC1123))
		sb.WriteString(")")
	}
	if task.Description != nil && strings.TrimSpace(*task.Description) != "" {
		sb.WriteString("\n")
		sb.WriteString(strings.TrimSpace(*task.Description))
	}
	return sb.String()
}
