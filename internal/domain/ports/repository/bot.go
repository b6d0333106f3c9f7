package repository

import (
	"context"

	"telegram-offer-relay/internal/domain/model"
)

// BotRepository persists bot registrations. One registration per channel,
// last write wins; no uniqueness error is surfaced to callers.
type BotRepository interface {
	Save(ctx context.Context, reg *model.BotRegistration) error
	FindAll(ctx context.Context) ([]*model.BotRegistration, error)
	DeleteByToken(ctx context.Context, botToken string) error
}
