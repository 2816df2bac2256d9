package messaging

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"polyglot-group-bot/internal/domain/ports/adapter"
	"polyglot-group-bot/internal/infra/metrics"
)

// TelegramPrefix marks Telegram contacts: "telegram:<chat id>".
const TelegramPrefix = "telegram:"

var _ adapter.Messenger = (*TelegramMessenger)(nil)

// telegramAPI is the subset of *tgbotapi.BotAPI used here.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type TelegramMessenger struct {
	bot telegramAPI
	log *zerolog.Logger
}

// NewTelegramBot connects to the Bot API. The returned API is shared by the
// messenger and the poller.
func NewTelegramBot(token string) (*tgbotapi.BotAPI, error) {
	if token == "" {
		return nil, errors.New("telegram token empty")
	}
	return tgbotapi.NewBotAPI(token)
}

func NewTelegramMessenger(bot *tgbotapi.BotAPI, logger *zerolog.Logger) *TelegramMessenger {
	return &TelegramMessenger{bot: bot, log: logger}
}

// TelegramContact formats a chat id as a registry contact.
func TelegramContact(chatID int64) string {
	return TelegramPrefix + strconv.FormatInt(chatID, 10)
}

// ParseTelegramContact extracts the chat id from "telegram:<id>".
func ParseTelegramContact(contact string) (int64, error) {
	raw, ok := strings.CutPrefix(contact, TelegramPrefix)
	if !ok {
		return 0, fmt.Errorf("not a telegram contact: %q", contact)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad telegram chat id %q: %w", raw, err)
	}
	return id, nil
}

// Send posts body as a text message, or as the caption of the first photo
// when media is attached. It returns the id of the last message sent.
func (t *TelegramMessenger) Send(ctx context.Context, to, body string, mediaURLs []string) (string, error) {
	// Support early cancellation
	select {
	case <-ctx.Done():
		return "", sendError("telegram", ctx.Err())
	default:
	}

	chatID, err := ParseTelegramContact(to)
	if err != nil {
		return "", sendError("telegram", err)
	}

	msgs := make([]tgbotapi.Chattable, 0, len(mediaURLs)+1)
	if len(mediaURLs) == 0 {
		msgs = append(msgs, tgbotapi.NewMessage(chatID, body))
	}
	for i, u := range mediaURLs {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(u))
		if i == 0 {
			photo.Caption = body
		}
		msgs = append(msgs, photo)
	}

	var last tgbotapi.Message
	for _, m := range msgs {
		last, err = t.bot.Send(m)
		if err != nil {
			metrics.IncDelivery("telegram", "failed")
			t.log.Warn().Err(err).Int64("chat_id", chatID).Msg("telegram send failed")
			return "", sendError("telegram", err)
		}
	}
	metrics.IncDelivery("telegram", "sent")
	return strconv.Itoa(last.MessageID), nil
}
