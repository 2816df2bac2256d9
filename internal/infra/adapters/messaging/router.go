package messaging

import (
	"context"
	"strings"

	"polyglot-group-bot/internal/domain/ports/adapter"
)

var _ adapter.Messenger = (*Router)(nil)

// Router picks a messenger by contact prefix ("telegram:" and so on) and
// falls back to the default one.
type Router struct {
	fallback adapter.Messenger
	byPrefix map[string]adapter.Messenger
}

func NewRouter(fallback adapter.Messenger, byPrefix map[string]adapter.Messenger) *Router {
	m := make(map[string]adapter.Messenger, len(byPrefix))
	for p, a := range byPrefix {
		if a != nil {
			m[strings.ToLower(p)] = a
		}
	}
	return &Router{fallback: fallback, byPrefix: m}
}

func (r *Router) pick(contact string) adapter.Messenger {
	l := strings.ToLower(contact)
	for p, a := range r.byPrefix {
		if strings.HasPrefix(l, p) {
			return a
		}
	}
	return r.fallback
}

func (r *Router) Send(ctx context.Context, to, body string, mediaURLs []string) (string, error) {
	return r.pick(to).Send(ctx, to, body, mediaURLs)
}
