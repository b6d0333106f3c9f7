package adapter

import (
	"context"
	"encoding/json"
)

// CheckoutRequest forwards a settled payment to the external checkout endpoint.
type CheckoutRequest struct {
	Email        string          `json:"email"`
	PaymentData  json.RawMessage `json:"paymentData"`
	PurchaseCode string          `json:"purchaseCode"`
	Lang         string          `json:"-"` // sent as Accept-Language header
}

type CheckoutGateway interface {
	Forward(ctx context.Context, req CheckoutRequest) error
}
