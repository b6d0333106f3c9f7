package repository

import (
	"context"

	"telegram-offer-relay/internal/domain/model"
)

// OfferRepository persists published offers. Offers are never updated after
// creation except for the sold counter.
type OfferRepository interface {
	Save(ctx context.Context, offer *model.Offer) error
	FindByID(ctx context.Context, offerID string) (*model.Offer, error)
	IncrementSold(ctx context.Context, offerID string) error
}
