package messaging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"polyglot-group-bot/internal/domain/ports/adapter"
	"polyglot-group-bot/internal/infra/metrics"
)

var _ adapter.Messenger = (*Noop)(nil)

// Noop logs deliveries instead of sending them. Used in dev mode.
type Noop struct {
	log *zerolog.Logger
}

func NewNoop(logger *zerolog.Logger) *Noop {
	return &Noop{log: logger}
}

func (n *Noop) Send(ctx context.Context, to, body string, mediaURLs []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", sendError("noop", err)
	}
	id := uuid.NewString()
	n.log.Info().
		Str("id", id).
		Str("to", to).
		Str("body", body).
		Strs("media", mediaURLs).
		Msg("[noop-messenger]")
	metrics.IncDelivery("noop", "sent")
	return id, nil
}
