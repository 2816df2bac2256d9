package application

import "context"

// Localizer renders a reply template in a subscriber's language.
type Localizer interface {
	T(lang, key string, args ...any) string
}

// RateLimiter decides whether a sender may be served right now. Optional.
type RateLimiter interface {
	Allow(ctx context.Context, contact string) (bool, error)
}
