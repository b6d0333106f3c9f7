package repository

import (
	"context"

	"telegram-offer-relay/internal/domain/model"
)

// PurchaseRepository records one ledger row per confirmed payment.
type PurchaseRepository interface {
	Save(ctx context.Context, p *model.Purchase) error
}
