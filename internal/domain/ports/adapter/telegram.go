package adapter

import (
	"context"
	"encoding/json"
)

// EventKind enumerates the inbound update classes a bot client reports.
// Every update a client sees is folded into one of these five kinds and
// dispatched through a single Handler.
type EventKind int

const (
	EventCommand EventKind = iota
	EventPreCheckout
	EventPayment
	EventTransportError
	EventText
)

// TransportErrorKind classifies polling failures.
type TransportErrorKind int

const (
	TransportTimeout TransportErrorKind = iota // slow or malformed transport; diagnostic only
	TransportRevoked                           // credential rejected; the bot must be torn down
	TransportOther
)

type TransportError struct {
	Kind TransportErrorKind
	Code int
	Desc string
}

// PreCheckout carries the fields needed to approve or reject a checkout.
type PreCheckout struct {
	QueryID string
	Payload string
	Lang    string
}

// Payment carries a settled Telegram payment. Raw holds the full message as
// received so it can be forwarded verbatim to the checkout endpoint.
type Payment struct {
	Payload     string
	TotalAmount int64 // minor units
	Currency    string
	Lang        string
	Raw         json.RawMessage
}

// Event is the single message type dispatched to the registry handler.
// Exactly one of the kind-specific fields is populated.
type Event struct {
	Kind    EventKind
	ChatID  int64
	Lang    string // buyer language tag as reported by Telegram
	Command string
	Args    string
	Text    string

	PreCheckout *PreCheckout
	Payment     *Payment
	Err         *TransportError
}

// Handler processes one inbound event for a registered bot.
type Handler func(ctx context.Context, ev Event)

type InlineButton struct {
	Text string
	Data string
	URL  string
}

// Invoice mirrors the Telegram sendInvoice request for a single-priced offer.
type Invoice struct {
	ChatID        int64
	Title         string
	Description   string
	Payload       string
	ProviderToken string
	Currency      string
	PriceLabel    string
	Amount        int64 // minor units
	PhotoURL      string
	PhotoWidth    int
	PhotoHeight   int
	NeedShipping  bool // mirrors need_name, need_email and need_shipping_address
}

// BotClient is one live Telegram bot bound to a registered credential.
// The registry exclusively owns client instances.
type BotClient interface {
	Username() string
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendChannelPhoto(ctx context.Context, channel, photoURL string) error
	SendChannelMessage(ctx context.Context, channel, text string, rows [][]InlineButton) error
	SendInvoice(ctx context.Context, inv Invoice) error
	AnswerPreCheckout(ctx context.Context, queryID string, ok bool, errMsg string) error
	Start(ctx context.Context, h Handler)
	Stop()
}

// BotFactory builds a client for a bot token.
type BotFactory func(token string) (BotClient, error)
