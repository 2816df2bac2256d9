package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"polyglot-group-bot/internal/domain"
)

// Role is a privilege tier. Ordering: user < admin < super.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
	RoleSuper Role = "super"
)

// ParseRole folds case and reports whether s names one of the three roles.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuper:
		return true
	}
	return false
}

// Rank returns the privilege level, or -1 for an invalid role.
func (r Role) Rank() int {
	switch r {
	case RoleUser:
		return 0
	case RoleAdmin:
		return 1
	case RoleSuper:
		return 2
	}
	return -1
}

func (r Role) AtLeast(other Role) bool { return r.Rank() >= other.Rank() }

// Subscriber is one group member. Contact is the messaging-provider address
// (e.g. "whatsapp:+15551234567") and the registry's primary key.
type Subscriber struct {
	Contact string
	Name    string
	Lang    string
	Role    Role
}

// record is the on-disk shape of a subscriber, keyed by contact.
type record struct {
	Name string `json:"name"`
	Lang string `json:"lang"`
	Role Role   `json:"role"`
}

// Registry holds subscribers by contact together with the name -> contact
// reverse index. Both maps change together in Insert and Delete only.
// A Registry is not safe for concurrent use; the owner serializes access.
type Registry struct {
	byContact map[string]Subscriber
	byName    map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		byContact: make(map[string]Subscriber),
		byName:    make(map[string]string),
	}
}

func (r *Registry) Len() int { return len(r.byContact) }

func (r *Registry) Get(contact string) (Subscriber, bool) {
	s, ok := r.byContact[contact]
	return s, ok
}

func (r *Registry) ContactByName(name string) (string, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// Insert adds s. A duplicate contact or name leaves the registry unchanged.
func (r *Registry) Insert(s Subscriber) error {
	if s.Contact == "" || s.Name == "" {
		return fmt.Errorf("%w: contact and name are required", domain.ErrValidation)
	}
	if strings.ContainsFunc(s.Name, unicode.IsSpace) {
		// names are addressed as a single token
		return fmt.Errorf("%w: name %q contains whitespace", domain.ErrValidation, s.Name)
	}
	if !s.Role.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidRole, s.Role)
	}
	if _, ok := r.byContact[s.Contact]; ok {
		return fmt.Errorf("%w: %s", domain.ErrAlreadyExists, s.Contact)
	}
	if _, ok := r.byName[s.Name]; ok {
		return fmt.Errorf("%w: %s", domain.ErrNameTaken, s.Name)
	}
	r.byContact[s.Contact] = s
	r.byName[s.Name] = s.Contact
	return nil
}

// Delete removes the subscriber with the given contact and returns it.
func (r *Registry) Delete(contact string) (Subscriber, bool) {
	s, ok := r.byContact[contact]
	if !ok {
		return Subscriber{}, false
	}
	delete(r.byContact, contact)
	delete(r.byName, s.Name)
	return s, true
}

// All returns every subscriber ordered by contact.
func (r *Registry) All() []Subscriber {
	out := make([]Subscriber, 0, len(r.byContact))
	for _, s := range r.byContact {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Contact < out[j].Contact })
	return out
}

func (r *Registry) Clone() *Registry {
	c := &Registry{
		byContact: make(map[string]Subscriber, len(r.byContact)),
		byName:    make(map[string]string, len(r.byName)),
	}
	for k, v := range r.byContact {
		c.byContact[k] = v
	}
	for k, v := range r.byName {
		c.byName[k] = v
	}
	return c
}

// MarshalJSON renders contact -> {name, lang, role}. encoding/json sorts map
// keys, so the output order is stable.
func (r *Registry) MarshalJSON() ([]byte, error) {
	m := make(map[string]record, len(r.byContact))
	for contact, s := range r.byContact {
		m[contact] = record{Name: s.Name, Lang: s.Lang, Role: s.Role}
	}
	return json.Marshal(m)
}

// UnmarshalJSON rebuilds both indexes and rejects data that would break them.
func (r *Registry) UnmarshalJSON(data []byte) error {
	var m map[string]record
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	fresh := NewRegistry()
	for contact, rec := range m {
		err := fresh.Insert(Subscriber{Contact: contact, Name: rec.Name, Lang: rec.Lang, Role: rec.Role})
		if err != nil {
			return fmt.Errorf("subscriber %s: %w", contact, err)
		}
	}
	*r = *fresh
	return nil
}
