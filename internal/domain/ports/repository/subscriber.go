package repository

import (
	"context"

	"polyglot-group-bot/internal/domain/model"
)

// SubscriberStore loads and persists the whole subscriber registry.
type SubscriberStore interface {
	Load(ctx context.Context) (*model.Registry, error)
	Persist(ctx context.Context, reg *model.Registry) error
}
