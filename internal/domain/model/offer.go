package model

import "time"

// Offer is a purchasable item published on a channel. Offers are append-only
// records: title and price never change after creation, only Sold moves.
type Offer struct {
	OfferID      string
	Channel      string
	BotToken     string
	PaymentToken string
	Title        string
	Description  string
	Amount       float64 // major units; invoices carry Amount*100 minor units
	Currency     string
	Image        string
	Quantity     int // 0 = unlimited
	Sold         int
	Expiration   time.Time // calendar date, midnight UTC
	Shipping     bool
	Lang         string
}

// Depleted reports whether the quantity cap has been reached.
// A zero Quantity means no cap.
func (o *Offer) Depleted() bool {
	return o.Quantity > 0 && o.Sold >= o.Quantity
}

// ExpiredAt reports whether the offer is past its expiration at the given
// instant. The expiration date is advanced by one day of grace, and the offer
// stays purchasable through the end of that day.
func (o *Offer) ExpiredAt(now time.Time) bool {
	deadline := o.Expiration.AddDate(0, 0, 2)
	return !now.Before(deadline)
}
