//go:build !integration

package application_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"polyglot-group-bot/internal/application"
	"polyglot-group-bot/internal/domain/model"
	"polyglot-group-bot/internal/infra/i18n"
	"polyglot-group-bot/internal/usecase"
)

type mockTranslator struct {
	mu    sync.Mutex
	calls map[string]int

	translateFunc func(ctx context.Context, text, lang string) (string, error)
}

func (m *mockTranslator) Translate(ctx context.Context, text, lang string) (string, error) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[lang]++
	m.mu.Unlock()
	if m.translateFunc != nil {
		return m.translateFunc(ctx, text, lang)
	}
	return "[" + lang + "] " + text, nil
}

func (m *mockTranslator) total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

type delivery struct {
	to    string
	body  string
	media []string
}

type mockMessenger struct {
	mu   sync.Mutex
	sent []delivery

	sendErr error
}

func (m *mockMessenger) Send(ctx context.Context, to, body string, media []string) (string, error) {
	if m.sendErr != nil {
		return "", m.sendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, delivery{to: to, body: body, media: media})
	return "SM1", nil
}

type mockStore struct {
	persists int
}

func (m *mockStore) Load(context.Context) (*model.Registry, error) { return model.NewRegistry(), nil }

func (m *mockStore) Persist(context.Context, *model.Registry) error {
	m.persists++
	return nil
}

type mockLimiter struct {
	allow bool
	err   error
	seen  []string
}

func (m *mockLimiter) Allow(_ context.Context, contact string) (bool, error) {
	m.seen = append(m.seen, contact)
	return m.allow, m.err
}

var errLimiterDown = errors.New("redis down")

const prefix = "whatsapp:"

var (
	superAlice = model.Subscriber{Contact: prefix + "+15550000001", Name: "Alice", Lang: "en", Role: model.RoleSuper}
	userBob    = model.Subscriber{Contact: prefix + "+15551234567", Name: "Bob", Lang: "es", Role: model.RoleUser}
	adminCarol = model.Subscriber{Contact: prefix + "+15550000003", Name: "Carol", Lang: "uk", Role: model.RoleAdmin}
	userDan    = model.Subscriber{Contact: prefix + "+15550000004", Name: "Dan", Lang: "es", Role: model.RoleUser}
)

type fixture struct {
	bot   *application.Bot
	tr    *mockTranslator
	msg   *mockMessenger
	store *mockStore
	subs  usecase.SubscriberUseCase
}

func newFixture(t *testing.T, limiter application.RateLimiter) *fixture {
	t.Helper()
	logger := zerolog.New(io.Discard)
	catalog, err := i18n.NewCatalog(i18n.LocalesFS, "en")
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	reg := model.NewRegistry()
	for _, s := range []model.Subscriber{superAlice, userBob, adminCarol, userDan} {
		if err := reg.Insert(s); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	f := &fixture{tr: &mockTranslator{}, msg: &mockMessenger{}, store: &mockStore{}}
	f.subs = usecase.NewSubscriberUseCase(reg, f.store, catalog, prefix, &logger)
	f.bot = application.NewBot(
		f.subs,
		usecase.NewBroadcastUseCase(f.subs, f.tr, f.msg, &logger),
		usecase.NewPrivateMessageUseCase(f.subs, f.tr, f.msg, &logger),
		usecase.NewTestTranslateUseCase(f.tr, catalog, &logger),
		catalog,
		limiter,
		application.Options{PMMarker: "@"},
		&logger,
	)
	return f
}

func (f *fixture) providerCalls() int {
	f.msg.mu.Lock()
	defer f.msg.mu.Unlock()
	return f.tr.total() + len(f.msg.sent)
}
