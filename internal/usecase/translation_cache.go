package usecase

import (
	"context"
	"strings"

	"polyglot-group-bot/internal/domain/ports/adapter"
	"polyglot-group-bot/internal/infra/metrics"
)

// TranslationCache memoizes the translations of one text by target language.
// It lives for a single broadcast and is not safe for concurrent use.
type TranslationCache struct {
	tr     adapter.Translator
	text   string
	byLang map[string]string
}

func NewTranslationCache(tr adapter.Translator, text string) *TranslationCache {
	return &TranslationCache{tr: tr, text: text, byLang: make(map[string]string)}
}

// Get returns the text in lang, calling the translator only on the first
// request for that language. Failures are not cached.
func (c *TranslationCache) Get(ctx context.Context, lang string) (string, error) {
	lang = strings.ToLower(lang)
	if out, ok := c.byLang[lang]; ok {
		metrics.IncTranslationCache("hit")
		return out, nil
	}
	metrics.IncTranslationCache("miss")
	out, err := c.tr.Translate(ctx, c.text, lang)
	if err != nil {
		return "", err
	}
	c.byLang[lang] = out
	return out, nil
}

// Len is the number of languages translated so far.
func (c *TranslationCache) Len() int { return len(c.byLang) }
