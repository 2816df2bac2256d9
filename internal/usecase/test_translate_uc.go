package usecase

import (
	"context"
	"strings"
	"unicode"

	"polyglot-group-bot/internal/domain"
	"polyglot-group-bot/internal/domain/model"
	"polyglot-group-bot/internal/domain/ports/adapter"
	"polyglot-group-bot/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ TestTranslateUseCase = (*testTranslateUC)(nil)

type TestTranslateUseCase interface {
	// Run takes "<lang> <text>" and translates the text into lang and back
	// into the sender's language.
	Run(ctx context.Context, sender model.Subscriber, args string) (TestResult, error)
}

// TestResult carries display names, not codes.
type TestResult struct {
	Lang       string
	Translated string
	SenderLang string
	RoundTrip  string
}

type testTranslateUC struct {
	tr    adapter.Translator
	langs Languages
	log   *zerolog.Logger
}

func NewTestTranslateUseCase(tr adapter.Translator, langs Languages, logger *zerolog.Logger) *testTranslateUC {
	return &testTranslateUC{tr: tr, langs: langs, log: logger}
}

func (uc *testTranslateUC) Run(ctx context.Context, sender model.Subscriber, args string) (TestResult, error) {
	defer logging.TraceDuration(uc.log, "TestTranslateUC.Run")()

	lang, text := splitFirst(args)
	lang = strings.ToLower(lang)
	if lang == "" || text == "" || !uc.langs.Supported(lang) {
		return TestResult{}, domain.NewUserError(domain.ErrUsage, "test_usage", uc.langs.LanguageList())
	}

	there, err := uc.tr.Translate(ctx, text, lang)
	if err != nil {
		return TestResult{}, providerErr("translation", "translate", err)
	}
	back, err := uc.tr.Translate(ctx, there, sender.Lang)
	if err != nil {
		return TestResult{}, providerErr("translation", "translate", err)
	}
	return TestResult{
		Lang:       uc.langs.LanguageName(lang),
		Translated: there,
		SenderLang: uc.langs.LanguageName(sender.Lang),
		RoundTrip:  back,
	}, nil
}

// splitFirst returns the first whitespace-delimited token of s and the rest
// with its inner whitespace intact.
func splitFirst(s string) (first, rest string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}
