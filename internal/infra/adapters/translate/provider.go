package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"polyglot-group-bot/internal/domain"
	"polyglot-group-bot/internal/infra/metrics"
)

const systemPrompt = "You are a translation engine for a group chat. Translate the user's message into the language " +
	"with ISO 639-1 code %q. Keep names, emoji, URLs and line breaks as they are. " +
	"Reply with the translation only, no quotes and no commentary."

func instructions(lang string) string {
	return fmt.Sprintf(systemPrompt, strings.ToLower(lang))
}

// call runs fn with the per-call timeout, records latency and maps any
// failure to a *domain.ProviderError.
func call(ctx context.Context, provider, lang string, timeout time.Duration, fn func(ctx context.Context) (string, error)) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	start := time.Now()
	out, err := fn(ctx)
	if err == nil && strings.TrimSpace(out) == "" {
		err = errors.New("empty translation")
	}
	metrics.ObserveTranslation(provider, lang, time.Since(start), err == nil)
	if err != nil {
		return "", providerError(provider, err)
	}
	return strings.TrimSpace(out), nil
}

func providerError(provider string, err error) error {
	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %v", domain.ErrProviderTimeout, err)
	}
	return &domain.ProviderError{Provider: provider, Op: "translate", Err: err}
}
