package notifier

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"openclaw/internal/model"
)

// MessageSender is the part of the Telegram Bot API used to send messages.
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts reminders to a single chat or channel.
type TelegramNotifier struct {
	api     MessageSender
	chatID  int64
	channel string
}

// NewTelegramNotifier builds a bot client against baseURL without calling
// getMe, so construction never touches the network.
func NewTelegramNotifier(baseURL, token, chat string) (*TelegramNotifier, error) {
	bot := &tgbotapi.BotAPI{
		Token:  token,
		Client: &http.Client{Timeout: 10 * time.Second},
		Buffer: 100,
	}
	bot.SetAPIEndpoint(strings.TrimRight(baseURL, "/") + "/bot%s/%s")
	return NewTelegramNotifierWithAPI(bot, chat)
}

// NewTelegramNotifierWithAPI accepts a numeric chat id or an @channel username.
func NewTelegramNotifierWithAPI(api MessageSender, chat string) (*TelegramNotifier, error) {
	n := &TelegramNotifier{api: api}
	if strings.HasPrefix(chat, "@") {
		n.channel = chat
		return n, nil
	}
	id, err := strconv.ParseInt(chat, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("telegram chat %q is neither a numeric id nor an @channel", chat)
	}
	n.chatID = id
	return n, nil
}

func (n *TelegramNotifier) Notify(ctx context.Context, reminder model.Reminder, task model.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	text := FormatMessage(reminder, task)
	msg := tgbotapi.NewMessage(n.chatID, text)
	if n.channel != "" {
		msg = tgbotapi.NewMessageToChannel(n.channel, text)
	}

	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("telegram send message: %w", err)
	}
	return nil
}
