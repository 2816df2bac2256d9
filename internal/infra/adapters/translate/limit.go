package translate

import (
	"context"

	"polyglot-group-bot/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.Translator = (*limited)(nil)

type limited struct {
	inner adapter.Translator
	sem   chan struct{}
}

// NewLimited caps concurrent provider calls. maxConcurrent <= 0 returns inner.
func NewLimited(inner adapter.Translator, maxConcurrent int) adapter.Translator {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limited{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

func (l *limited) Translate(ctx context.Context, text, targetLang string) (string, error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-l.sem }()
	return l.inner.Translate(ctx, text, targetLang)
}
