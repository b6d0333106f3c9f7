package model

import "time"

// PurchasePayload is the correlation token serialized into a Telegram invoice
// and echoed back by the platform at pre-checkout and settlement time. It is
// the only mechanism tying a payment event back to the offer, buyer and locale,
// so the offer id is re-validated against the store on every use.
type PurchasePayload struct {
	OfferID string `json:"offerId"`
	ChatID  int64  `json:"chatId"`
	Lang    string `json:"lang"`
}

// Purchase is the ledger row recorded for every confirmed payment.
type Purchase struct {
	ID        string // ULID
	OfferID   string
	ChatID    int64
	Code      string // 6-digit code handed to the buyer
	Amount    int64  // minor units as reported by Telegram
	Currency  string
	CreatedAt time.Time
}
