package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every user-facing failure unwraps to exactly one of these.
var (
	ErrUsage        = errors.New("usage error")
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("not authorized")
	ErrNotFound     = errors.New("entity not found")
	ErrNotSupported = errors.New("not yet supported")

	ErrProviderTimeout = errors.New("provider timeout")
	ErrStoreCorrupted  = errors.New("subscriber store corrupted")
)

// Specific outcomes, each wrapping its kind.
var (
	ErrInvalidPhone        = fmt.Errorf("%w: invalid phone number", ErrValidation)
	ErrAlreadyExists       = fmt.Errorf("%w: subscriber already exists", ErrValidation)
	ErrNameTaken           = fmt.Errorf("%w: display name already taken", ErrValidation)
	ErrUnsupportedLanguage = fmt.Errorf("%w: unsupported language", ErrValidation)
	ErrInvalidRole         = fmt.Errorf("%w: invalid role", ErrValidation)
	ErrSelfRemoval         = fmt.Errorf("%w: cannot remove yourself", ErrValidation)
	ErrPrivilege           = fmt.Errorf("%w: insufficient privilege", ErrUnauthorized)
	ErrSubscriberNotFound  = fmt.Errorf("%w: subscriber", ErrNotFound)
	ErrRecipientNotFound   = fmt.Errorf("%w: recipient", ErrNotFound)
)

// UserError is a failure the sender caused. Key names a localized message
// template and Args fill it.
type UserError struct {
	Kind error
	Key  string
	Args []any
}

func NewUserError(kind error, key string, args ...any) *UserError {
	return &UserError{Kind: kind, Key: key, Args: args}
}

func (e *UserError) Error() string { return fmt.Sprintf("%v (%s)", e.Kind, e.Key) }
func (e *UserError) Unwrap() error { return e.Kind }

// ProviderError is a translation or messaging provider failure. Its message is
// sent back to the initiating sender as is.
type ProviderError struct {
	Provider string
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
