package application

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"polyglot-group-bot/internal/domain"
	"polyglot-group-bot/internal/domain/model"
	"polyglot-group-bot/internal/infra/logging"
	"polyglot-group-bot/internal/infra/metrics"
	"polyglot-group-bot/internal/usecase"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Command is a slash command token, lower-cased.
type Command string

const (
	CmdTest   Command = "/test"
	CmdAdd    Command = "/add"
	CmdRemove Command = "/remove"
	CmdList   Command = "/list"
	CmdAdmin  Command = "/admin" // reserved
	CmdLang   Command = "/lang"  // reserved
)

// request is an inbound message after classification.
type request struct {
	command Command
	fields  []string // whitespace tokens, command included
	args    string   // text after the command token, inner whitespace kept
	media   []string
}

type handler func(ctx context.Context, sender model.Subscriber, req request) (string, error)

type route struct {
	handle  handler
	minRole model.Role
}

// Options tune message classification and logging.
type Options struct {
	PMMarker string // defaults to "@"
	Dev      bool   // log contacts unredacted
}

// Bot is the command router. It is built once at startup and shared by every
// channel adapter; HandleInbound is safe for concurrent use.
type Bot struct {
	subs      usecase.SubscriberUseCase
	broadcast usecase.BroadcastUseCase
	pm        usecase.PrivateMessageUseCase
	test      usecase.TestTranslateUseCase
	i18n      Localizer
	limiter   RateLimiter
	marker    string
	dev       bool
	routes    map[Command]route
	log       *zerolog.Logger
}

// NewBot wires the router. limiter may be nil.
func NewBot(
	subs usecase.SubscriberUseCase,
	broadcast usecase.BroadcastUseCase,
	pm usecase.PrivateMessageUseCase,
	test usecase.TestTranslateUseCase,
	i18n Localizer,
	limiter RateLimiter,
	opts Options,
	logger *zerolog.Logger,
) *Bot {
	if opts.PMMarker == "" {
		opts.PMMarker = "@"
	}
	b := &Bot{
		subs:      subs,
		broadcast: broadcast,
		pm:        pm,
		test:      test,
		i18n:      i18n,
		limiter:   limiter,
		marker:    opts.PMMarker,
		dev:       opts.Dev,
		log:       logger,
	}
	b.routes = map[Command]route{
		CmdTest:   {handle: b.handleTest, minRole: model.RoleUser},
		CmdAdd:    {handle: b.handleAdd, minRole: model.RoleAdmin},
		CmdRemove: {handle: b.handleRemove, minRole: model.RoleAdmin},
		CmdList:   {handle: b.handleList, minRole: model.RoleAdmin},
		CmdAdmin:  {handle: b.handleReserved, minRole: model.RoleAdmin},
		CmdLang:   {handle: b.handleReserved, minRole: model.RoleAdmin},
	}
	return b
}

// HandleInbound classifies one message and returns the reply for the sender.
// An empty reply means nothing is sent back.
func (b *Bot) HandleInbound(ctx context.Context, in model.InboundMessage) string {
	ctx = logging.WithTraceID(ctx, uuid.NewString())
	ctx = logging.WithContact(ctx, logging.Redact(in.From, b.dev))
	ctx = logging.WithChannel(ctx, in.Channel)
	log := logging.With(ctx, b.log)

	sender, ok := b.subs.Lookup(in.From)
	metrics.IncInbound(in.Channel, ok)
	if !ok {
		log.Debug().Msg("ignoring message from unsubscribed contact")
		return ""
	}

	if b.limiter != nil {
		allowed, err := b.limiter.Allow(ctx, in.From)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("rate limiter unavailable, letting message through")
		case !allowed:
			metrics.IncRateLimited()
			log.Info().Msg("sender rate limited")
			return ""
		}
	}

	body := strings.TrimSpace(in.Body)
	if body == "" && len(in.MediaURLs) == 0 {
		return ""
	}

	first, rest := splitFirst(body)
	if len(first) > len(b.marker) && strings.HasPrefix(first, b.marker) {
		name := first[len(b.marker):]
		sent, err := b.pm.Send(ctx, sender, name, rest, in.MediaURLs)
		reply := ""
		if sent {
			reply = b.i18n.T(sender.Lang, "pm_sent", name)
		}
		return b.render(ctx, sender, "private", reply, err)
	}

	if len(first) > 1 && strings.HasPrefix(first, "/") {
		cmd := Command(strings.ToLower(first))
		rt, ok := b.routes[cmd]
		if !ok || !sender.Role.AtLeast(rt.minRole) {
			metrics.IncCommand("unknown", "ignored")
			log.Debug().Str("command", string(cmd)).Str("role", string(sender.Role)).Msg("ignoring command")
			return ""
		}
		req := request{command: cmd, fields: strings.Fields(body), args: rest, media: in.MediaURLs}
		reply, err := rt.handle(ctx, sender, req)
		return b.render(ctx, sender, string(cmd), reply, err)
	}

	_, err := b.broadcast.Broadcast(ctx, sender, body, in.MediaURLs)
	return b.render(ctx, sender, "broadcast", "", err)
}

func (b *Bot) handleTest(ctx context.Context, sender model.Subscriber, req request) (string, error) {
	res, err := b.test.Run(ctx, sender, req.args)
	if err != nil {
		return "", err
	}
	return b.i18n.T(sender.Lang, "test_result", res.Lang, res.Translated, res.SenderLang, res.RoundTrip), nil
}

func (b *Bot) handleAdd(ctx context.Context, sender model.Subscriber, req request) (string, error) {
	sub, err := b.subs.Add(ctx, sender, req.fields)
	if err != nil {
		return "", err
	}
	return b.i18n.T(sender.Lang, "add_ok", sub.Name, req.fields[1], sub.Role), nil
}

func (b *Bot) handleRemove(ctx context.Context, sender model.Subscriber, req request) (string, error) {
	removed, err := b.subs.Remove(ctx, sender, req.fields)
	if err != nil {
		return "", err
	}
	return b.i18n.T(sender.Lang, "remove_ok", removed.Name, req.fields[1]), nil
}

func (b *Bot) handleList(ctx context.Context, _ model.Subscriber, _ request) (string, error) {
	return b.subs.List(ctx)
}

func (b *Bot) handleReserved(_ context.Context, _ model.Subscriber, req request) (string, error) {
	return "", domain.NewUserError(domain.ErrNotSupported, "not_supported", string(req.command))
}

// render maps an outcome to the reply text. User errors are localized,
// provider errors go back verbatim, anything else is logged and hidden.
func (b *Bot) render(ctx context.Context, sender model.Subscriber, command, reply string, err error) string {
	if err == nil {
		metrics.IncCommand(command, "ok")
		return reply
	}

	log := logging.With(ctx, b.log)
	var ue *domain.UserError
	var pe *domain.ProviderError
	switch {
	case errors.As(err, &ue):
		metrics.IncCommand(command, outcome(ue.Kind))
		log.Debug().Str("command", command).Str("key", ue.Key).Msg("command rejected")
		return b.i18n.T(sender.Lang, ue.Key, ue.Args...)
	case errors.As(err, &pe):
		metrics.IncCommand(command, "provider_error")
		log.Warn().Err(err).Str("command", command).Msg("provider failure")
		return pe.Error()
	default:
		metrics.IncCommand(command, "error")
		log.Error().Err(err).Str("command", command).Msg("command failed")
		return b.i18n.T(sender.Lang, "error_generic")
	}
}

func outcome(kind error) string {
	switch {
	case errors.Is(kind, domain.ErrUsage):
		return "usage"
	case errors.Is(kind, domain.ErrValidation):
		return "invalid"
	case errors.Is(kind, domain.ErrUnauthorized):
		return "forbidden"
	case errors.Is(kind, domain.ErrNotFound):
		return "not_found"
	case errors.Is(kind, domain.ErrNotSupported):
		return "not_supported"
	}
	return "rejected"
}

func splitFirst(s string) (first, rest string) {
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}
