package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"polyglot-group-bot/internal/domain"
	"polyglot-group-bot/internal/domain/model"
	"polyglot-group-bot/internal/domain/ports/repository"
	"polyglot-group-bot/internal/infra/logging"
	"polyglot-group-bot/internal/infra/store"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ SubscriberUseCase = (*subscriberUC)(nil)

// SubscriberUseCase owns the in-memory registry. Mutations hold the write lock
// across validate, persist and swap; everything else reads under the read lock.
type SubscriberUseCase interface {
	Lookup(contact string) (model.Subscriber, bool)
	View(fn func(reg *model.Registry) error) error
	Add(ctx context.Context, sender model.Subscriber, fields []string) (model.Subscriber, error)
	Remove(ctx context.Context, sender model.Subscriber, fields []string) (model.Subscriber, error)
	List(ctx context.Context) (string, error)
}

type subscriberUC struct {
	mu     sync.RWMutex
	reg    *model.Registry
	store  repository.SubscriberStore
	langs  Languages
	prefix string // provider address prefix, e.g. "whatsapp:"
	log    *zerolog.Logger
}

func NewSubscriberUseCase(
	reg *model.Registry,
	st repository.SubscriberStore,
	langs Languages,
	prefix string,
	logger *zerolog.Logger,
) *subscriberUC {
	if reg == nil {
		reg = model.NewRegistry()
	}
	return &subscriberUC{
		reg:    reg,
		store:  st,
		langs:  langs,
		prefix: prefix,
		log:    logger,
	}
}

func (u *subscriberUC) Lookup(contact string) (model.Subscriber, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.reg.Get(contact)
}

// View runs fn under the read lock. fn must not keep reg after returning.
func (u *subscriberUC) View(fn func(reg *model.Registry) error) error {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return fn(u.reg)
}

// Add handles "/add <phone> <name> <lang> <role>". fields includes the
// command token. The first failing check decides the error.
func (u *subscriberUC) Add(ctx context.Context, sender model.Subscriber, fields []string) (model.Subscriber, error) {
	defer logging.TraceDuration(u.log, "SubscriberUC.Add")()

	if len(fields) != 5 {
		return model.Subscriber{}, domain.NewUserError(domain.ErrUsage, "add_usage")
	}
	phone, name, lang, roleArg := fields[1], fields[2], fields[3], fields[4]

	u.mu.Lock()
	defer u.mu.Unlock()

	if !validPhone(phone) {
		return model.Subscriber{}, domain.NewUserError(domain.ErrInvalidPhone, "add_bad_phone", phone)
	}
	contact := u.prefix + phone
	if _, ok := u.reg.Get(contact); ok {
		return model.Subscriber{}, domain.NewUserError(domain.ErrAlreadyExists, "add_exists", phone)
	}
	if _, ok := u.reg.ContactByName(name); ok {
		return model.Subscriber{}, domain.NewUserError(domain.ErrNameTaken, "add_name_taken", name)
	}
	if !u.langs.Supported(lang) {
		return model.Subscriber{}, domain.NewUserError(domain.ErrUnsupportedLanguage, "add_bad_lang", lang, u.langs.LanguageList())
	}
	role, ok := model.ParseRole(roleArg)
	if !ok {
		return model.Subscriber{}, domain.NewUserError(domain.ErrInvalidRole, "add_bad_role", roleArg)
	}

	sub := model.Subscriber{Contact: contact, Name: name, Lang: strings.ToLower(lang), Role: role}
	next := u.reg.Clone()
	if err := next.Insert(sub); err != nil {
		return model.Subscriber{}, fmt.Errorf("insert subscriber: %w", err)
	}
	if err := u.store.Persist(ctx, next); err != nil {
		u.log.Error().Err(err).Msg("failed to persist registry after add")
		return model.Subscriber{}, fmt.Errorf("persist after add: %w", err)
	}
	u.reg = next

	u.log.Info().
		Str("by", sender.Name).
		Str("name", sub.Name).
		Str("role", string(sub.Role)).
		Msg("subscriber added")
	return sub, nil
}

// Remove handles "/remove <phone>". The self-removal check compares the raw
// argument with the sender's stored contact, so with a non-empty address
// prefix it only matches when the argument carries the prefix too.
func (u *subscriberUC) Remove(ctx context.Context, sender model.Subscriber, fields []string) (model.Subscriber, error) {
	defer logging.TraceDuration(u.log, "SubscriberUC.Remove")()

	if len(fields) != 2 {
		return model.Subscriber{}, domain.NewUserError(domain.ErrUsage, "remove_usage")
	}
	arg := fields[1]
	if arg == sender.Contact {
		return model.Subscriber{}, domain.NewUserError(domain.ErrSelfRemoval, "remove_self")
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	target, ok := u.reg.Get(u.wrap(arg))
	if !ok {
		return model.Subscriber{}, domain.NewUserError(domain.ErrSubscriberNotFound, "remove_not_found", arg)
	}
	if target.Role.Rank() > sender.Role.Rank() {
		return model.Subscriber{}, domain.NewUserError(domain.ErrPrivilege, "remove_forbidden", target.Name)
	}

	next := u.reg.Clone()
	next.Delete(target.Contact)
	if err := u.store.Persist(ctx, next); err != nil {
		u.log.Error().Err(err).Msg("failed to persist registry after remove")
		return model.Subscriber{}, fmt.Errorf("persist after remove: %w", err)
	}
	u.reg = next

	u.log.Info().Str("by", sender.Name).Str("name", target.Name).Msg("subscriber removed")
	return target, nil
}

// List renders every subscriber with every field, in store format.
func (u *subscriberUC) List(ctx context.Context) (string, error) {
	defer logging.TraceDuration(u.log, "SubscriberUC.List")()

	u.mu.RLock()
	defer u.mu.RUnlock()
	b, err := store.MarshalRegistry(u.reg)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (u *subscriberUC) wrap(arg string) string {
	if strings.HasPrefix(arg, u.prefix) {
		return arg
	}
	return u.prefix + arg
}

// validPhone accepts "+" followed by one or more ASCII digits.
func validPhone(s string) bool {
	if len(s) < 2 || s[0] != '+' {
		return false
	}
	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
