package usecase

import (
	"context"
	"strings"

	"polyglot-group-bot/internal/domain"
	"polyglot-group-bot/internal/domain/model"
	"polyglot-group-bot/internal/domain/ports/adapter"
	"polyglot-group-bot/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ PrivateMessageUseCase = (*privateMessageUC)(nil)

type PrivateMessageUseCase interface {
	// Send delivers body to the subscriber named recipient. It reports false
	// with a nil error when there was nothing to send.
	Send(ctx context.Context, sender model.Subscriber, recipient, body string, media []string) (bool, error)
}

type privateMessageUC struct {
	subs SubscriberUseCase
	tr   adapter.Translator
	msg  adapter.Messenger
	log  *zerolog.Logger
}

func NewPrivateMessageUseCase(
	subs SubscriberUseCase,
	tr adapter.Translator,
	msg adapter.Messenger,
	logger *zerolog.Logger,
) *privateMessageUC {
	return &privateMessageUC{
		subs: subs,
		tr:   tr,
		msg:  msg,
		log:  logger,
	}
}

func (uc *privateMessageUC) Send(ctx context.Context, sender model.Subscriber, recipient, body string, media []string) (bool, error) {
	defer logging.TraceDuration(uc.log, "PrivateMessageUC.Send")()

	var sent bool
	err := uc.subs.View(func(reg *model.Registry) error {
		contact, ok := reg.ContactByName(recipient)
		if !ok {
			return domain.NewUserError(domain.ErrRecipientNotFound, "pm_not_found", recipient)
		}
		if strings.TrimSpace(body) == "" && len(media) == 0 {
			return nil
		}
		to, _ := reg.Get(contact)

		text := "Private message from " + sender.Name + ":\n" + body
		translated, err := uc.tr.Translate(ctx, text, to.Lang)
		if err != nil {
			return providerErr("translation", "translate", err)
		}
		if _, err := uc.msg.Send(ctx, to.Contact, translated, media); err != nil {
			return providerErr("messaging", "send", err)
		}
		sent = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if sent {
		logging.With(ctx, uc.log).Info().Str("to", recipient).Msg("private message delivered")
	}
	return sent, nil
}
