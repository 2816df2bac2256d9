package usecase

import (
	"context"
	"strings"

	"polyglot-group-bot/internal/domain/model"
	"polyglot-group-bot/internal/domain/ports/adapter"
	"polyglot-group-bot/internal/infra/logging"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ BroadcastUseCase = (*broadcastUC)(nil)

type BroadcastUseCase interface {
	// Broadcast delivers body to every subscriber except sender and returns
	// how many recipients were reached.
	Broadcast(ctx context.Context, sender model.Subscriber, body string, media []string) (int, error)
}

type broadcastUC struct {
	subs SubscriberUseCase
	tr   adapter.Translator
	msg  adapter.Messenger
	log  *zerolog.Logger
}

func NewBroadcastUseCase(
	subs SubscriberUseCase,
	tr adapter.Translator,
	msg adapter.Messenger,
	logger *zerolog.Logger,
) *broadcastUC {
	return &broadcastUC{
		subs: subs,
		tr:   tr,
		msg:  msg,
		log:  logger,
	}
}

// Broadcast sends "<sender name>:\n<body>" with the body translated per
// recipient language, each language at most once. The first translation or
// delivery failure stops the broadcast; later recipients get nothing.
// The read lock is held throughout, so no add or remove interleaves.
func (uc *broadcastUC) Broadcast(ctx context.Context, sender model.Subscriber, body string, media []string) (int, error) {
	defer logging.TraceDuration(uc.log, "BroadcastUC.Broadcast")()

	id := ulid.Make().String()
	log := logging.With(ctx, uc.log).With().Str("broadcast_id", id).Logger()

	cache := NewTranslationCache(uc.tr, body)
	sent := 0
	err := uc.subs.View(func(reg *model.Registry) error {
		for _, r := range reg.All() {
			if r.Contact == sender.Contact {
				continue
			}
			text := sender.Name + ":"
			if strings.TrimSpace(body) != "" {
				translated, err := cache.Get(ctx, r.Lang)
				if err != nil {
					log.Warn().Err(err).Str("lang", r.Lang).Int("sent", sent).Msg("broadcast aborted: translation failed")
					return providerErr("translation", "translate", err)
				}
				text += "\n" + translated
			}
			if _, err := uc.msg.Send(ctx, r.Contact, text, media); err != nil {
				log.Warn().Err(err).Int("sent", sent).Msg("broadcast aborted: delivery failed")
				return providerErr("messaging", "send", err)
			}
			sent++
		}
		return nil
	})
	if err != nil {
		return sent, err
	}

	log.Info().
		Int("recipients", sent).
		Int("languages", cache.Len()).
		Int("media", len(media)).
		Msg("broadcast delivered")
	return sent, nil
}
