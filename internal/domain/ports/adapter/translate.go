package adapter

import "context"

// Translator is the port for the machine-translation provider.
// Implementations return *domain.ProviderError on timeout or provider failure.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}
