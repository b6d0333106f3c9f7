package repository

import (
	"context"

	"telegram-offer-relay/internal/domain/model"
)

// GuardRepository stores the singleton control-chat binding.
type GuardRepository interface {
	Get(ctx context.Context) (*model.GuardTarget, error)
	Upsert(ctx context.Context, chatID int64) error
}
