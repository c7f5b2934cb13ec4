package notifier

import (
	"context"
	"fmt"
	"strings"

	twilio "github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"openclaw/internal/model"
)

// MessageCreator is the part of the Twilio REST API used to send messages.
type MessageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// WhatsAppNotifier sends reminders through Twilio's WhatsApp API.
type WhatsAppNotifier struct {
	api  MessageCreator
	from string
	to   string
}

// NewWhatsAppNotifier creates a notifier bound to the configured sender and recipient numbers.
func NewWhatsAppNotifier(accountSID, authToken, from, to string) *WhatsAppNotifier {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{Username: accountSID, Password: authToken})
	return NewWhatsAppNotifierWithAPI(client.Api, from, to)
}

func NewWhatsAppNotifierWithAPI(api MessageCreator, from, to string) *WhatsAppNotifier {
	return &WhatsAppNotifier{api: api, from: from, to: to}
}

func (n *WhatsAppNotifier) Notify(ctx context.Context, reminder model.Reminder, task model.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sender := normalizeWhatsAppAddress(n.from)
	if sender == "" {
		return fmt.Errorf("whatsapp sender number is not configured")
	}
	recipient := normalizeWhatsAppAddress(n.to)
	if recipient == "" {
		return fmt.Errorf("whatsapp recipient number is not configured")
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(recipient)
	params.SetFrom(sender)
	params.SetBody(FormatMessage(reminder, task))

	if _, err := n.api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio send message: %w", err)
	}
	return nil
}

func normalizeWhatsAppAddress(number string) string {
	trimmed := strings.TrimSpace(number)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "whatsapp:") {
		return trimmed
	}
	if strings.HasPrefix(trimmed, "+") {
		return "whatsapp:" + trimmed
	}
	return "whatsapp:+" + trimmed
}
