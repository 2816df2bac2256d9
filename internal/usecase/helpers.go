package usecase

import (
	"errors"

	"polyglot-group-bot/internal/domain"
)

// Languages is the supported-language catalog seen by the use cases.
type Languages interface {
	Supported(code string) bool
	LanguageName(code string) string
	LanguageList() string
}

// providerErr makes sure a collaborator failure reaches the router as a
// *domain.ProviderError. Adapters already return one; anything else is wrapped.
func providerErr(provider, op string, err error) error {
	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &domain.ProviderError{Provider: provider, Op: op, Err: err}
}
