package notifier

import (
	"context"

	"github.com/rs/zerolog"

	"openclaw/internal/model"
)

// LogNotifier handles the ui channel. The UI reads reminder state from the
// API, so delivery only records the event.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, reminder model.Reminder, task model.Task) error {
	n.logger.Info().
		Str("reminder_id", reminder.ID.String()).
		Str("task_id", task.ID.String()).
		Str("channel", string(reminder.Channel)).
		Time("remind_at", reminder.RemindAt).
		Msg(FormatMessage(reminder, task))
	return nil
}
