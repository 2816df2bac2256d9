package messaging

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"polyglot-group-bot/internal/domain/model"
	"polyglot-group-bot/internal/infra/worker"
)

// InboundHandler is the command router as seen by channel adapters.
type InboundHandler interface {
	HandleInbound(ctx context.Context, in model.InboundMessage) string
}

// TelegramPoller long-polls the Bot API and dispatches each message to the
// router on the worker pool. Non-empty replies go back to the same chat.
type TelegramPoller struct {
	bot     telegramAPI
	handler InboundHandler
	pool    *worker.Pool
	log     *zerolog.Logger
}

func NewTelegramPoller(bot *tgbotapi.BotAPI, handler InboundHandler, pool *worker.Pool, logger *zerolog.Logger) *TelegramPoller {
	return &TelegramPoller{bot: bot, handler: handler, pool: pool, log: logger}
}

// Start blocks until ctx is done.
func (p *TelegramPoller) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := p.bot.GetUpdatesChan(u)
	defer p.bot.StopReceivingUpdates()

	p.log.Info().Msg("telegram polling started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			if up.Message == nil || up.Message.Chat == nil {
				continue
			}
			msg := up.Message
			if err := p.pool.Submit(func(ctx context.Context) error {
				return p.handleMessage(ctx, msg)
			}); err != nil {
				p.log.Warn().Err(err).Int64("chat_id", msg.Chat.ID).Msg("dropping telegram update")
			}
		}
	}
}

func (p *TelegramPoller) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg == nil || msg.Chat == nil {
		return nil
	}
	in := model.InboundMessage{
		From:    TelegramContact(msg.Chat.ID),
		Body:    msg.Text,
		Channel: "telegram",
	}
	if in.Body == "" {
		in.Body = msg.Caption
	}
	if n := len(msg.Photo); n > 0 {
		// sizes are ascending; keep the largest
		url, err := p.bot.GetFileDirectURL(msg.Photo[n-1].FileID)
		if err != nil {
			p.log.Warn().Err(err).Msg("failed to resolve telegram photo url")
		} else {
			in.MediaURLs = append(in.MediaURLs, url)
		}
	}

	reply := p.handler.HandleInbound(ctx, in)
	if strings.TrimSpace(reply) == "" {
		return nil
	}
	_, err := p.bot.Send(tgbotapi.NewMessage(msg.Chat.ID, reply))
	return err
}
