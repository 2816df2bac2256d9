package translate

import (
	"context"
	"strings"

	"polyglot-group-bot/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

var _ adapter.Translator = (*Noop)(nil)

// Noop tags the text with the target language instead of translating. Used in
// dev mode.
type Noop struct {
	log *zerolog.Logger
}

func NewNoop(logger *zerolog.Logger) *Noop {
	return &Noop{log: logger}
}

func (n *Noop) Translate(ctx context.Context, text, targetLang string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	n.log.Debug().Str("lang", targetLang).Int("chars", len(text)).Msg("[noop-translate]")
	return "[" + strings.ToLower(targetLang) + "] " + text, nil
}
