//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"polyglot-group-bot/internal/domain/model"
	"polyglot-group-bot/internal/domain/ports/adapter"
	"polyglot-group-bot/internal/domain/ports/repository"
	"polyglot-group-bot/internal/infra/i18n"
)

// =============================
// Adapters
// =============================

// ---- Mock Translator ----

// MockTranslator returns "[lang] text" unless TranslateFunc is set, and
// counts calls per target language.
type MockTranslator struct {
	mu     sync.Mutex
	Calls  map[string]int
	Inputs []string

	TranslateFunc func(ctx context.Context, text, lang string) (string, error)
}

var _ adapter.Translator = (*MockTranslator)(nil)

func NewMockTranslator() *MockTranslator {
	return &MockTranslator{Calls: make(map[string]int)}
}

func (m *MockTranslator) Translate(ctx context.Context, text, lang string) (string, error) {
	m.mu.Lock()
	m.Calls[lang]++
	m.Inputs = append(m.Inputs, text)
	m.mu.Unlock()
	if m.TranslateFunc != nil {
		return m.TranslateFunc(ctx, text, lang)
	}
	return "[" + lang + "] " + text, nil
}

func (m *MockTranslator) Total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		n += c
	}
	return n
}

// ---- Mock Messenger ----

type SentMessage struct {
	To    string
	Body  string
	Media []string
}

type MockMessenger struct {
	mu   sync.Mutex
	Sent []SentMessage

	SendFunc func(ctx context.Context, to, body string, media []string) (string, error)
}

var _ adapter.Messenger = (*MockMessenger)(nil)

func (m *MockMessenger) Send(ctx context.Context, to, body string, media []string) (string, error) {
	if m.SendFunc != nil {
		if id, err := m.SendFunc(ctx, to, body, media); err != nil {
			return id, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentMessage{To: to, Body: body, Media: media})
	return "SM" + to, nil
}

func (m *MockMessenger) To(contact string) []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []SentMessage
	for _, s := range m.Sent {
		if s.To == contact {
			out = append(out, s)
		}
	}
	return out
}

// =============================
// Repositories
// =============================

// ---- Mock SubscriberStore ----

type MockStore struct {
	mu       sync.Mutex
	Persists int
	Last     *model.Registry

	PersistFunc func(ctx context.Context, reg *model.Registry) error
}

var _ repository.SubscriberStore = (*MockStore)(nil)

func (m *MockStore) Load(ctx context.Context) (*model.Registry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Last == nil {
		return model.NewRegistry(), nil
	}
	return m.Last.Clone(), nil
}

func (m *MockStore) Persist(ctx context.Context, reg *model.Registry) error {
	if m.PersistFunc != nil {
		if err := m.PersistFunc(ctx, reg); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Persists++
	m.Last = reg.Clone()
	return nil
}

// =============================
// Fixtures
// =============================

const prefix = "whatsapp:"

var (
	alice = model.Subscriber{Contact: prefix + "+15550000001", Name: "Alice", Lang: "en", Role: model.RoleSuper}
	bob   = model.Subscriber{Contact: prefix + "+15550000002", Name: "Bob", Lang: "es", Role: model.RoleUser}
	carol = model.Subscriber{Contact: prefix + "+15550000003", Name: "Carol", Lang: "es", Role: model.RoleAdmin}
	dan   = model.Subscriber{Contact: prefix + "+15550000004", Name: "Dan", Lang: "cs", Role: model.RoleUser}
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func newTestCatalog(t *testing.T) *i18n.Catalog {
	t.Helper()
	c, err := i18n.NewCatalog(i18n.LocalesFS, "en")
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return c
}

func newTestRegistry(t *testing.T, subs ...model.Subscriber) *model.Registry {
	t.Helper()
	reg := model.NewRegistry()
	for _, s := range subs {
		if err := reg.Insert(s); err != nil {
			t.Fatalf("seed %s: %v", s.Name, err)
		}
	}
	return reg
}
