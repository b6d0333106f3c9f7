package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-offer-relay/internal/domain/ports/adapter"
)

// RealBotClient is a live Telegram bot backed by tgbotapi. One instance exists
// per registered credential plus one for the guard bot; the registry owns them.
type RealBotClient struct {
	bot    *tgbotapi.BotAPI
	cancel context.CancelFunc
}

var _ adapter.BotClient = (*RealBotClient)(nil)

// NewBotClient validates the token against getMe and returns a client.
func NewBotClient(token string) (adapter.BotClient, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &RealBotClient{bot: bot}, nil
}

func (c *RealBotClient) Username() string { return c.bot.Self.UserName }

func (c *RealBotClient) SendMessage(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := c.bot.Send(msg)
	return err
}

func (c *RealBotClient) SendChannelPhoto(ctx context.Context, channel, photoURL string) error {
	photo := tgbotapi.NewPhotoToChannel("@"+channel, tgbotapi.FileURL(photoURL))
	_, err := c.bot.Send(photo)
	return err
}

func (c *RealBotClient) SendChannelMessage(ctx context.Context, channel, text string, rows [][]adapter.InlineButton) error {
	msg := tgbotapi.NewMessageToChannel("@"+channel, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if len(rows) > 0 {
		msg.ReplyMarkup = buildKeyboard(rows)
	}
	_, err := c.bot.Send(msg)
	return err
}

func (c *RealBotClient) SendInvoice(ctx context.Context, inv adapter.Invoice) error {
	prices := []tgbotapi.LabeledPrice{{Label: inv.PriceLabel, Amount: int(inv.Amount)}}
	cfg := tgbotapi.NewInvoice(inv.ChatID, inv.Title, inv.Description, inv.Payload,
		inv.ProviderToken, "start", inv.Currency, prices)
	cfg.PhotoURL = inv.PhotoURL
	cfg.PhotoWidth = inv.PhotoWidth
	cfg.PhotoHeight = inv.PhotoHeight
	cfg.NeedName = inv.NeedShipping
	cfg.NeedEmail = inv.NeedShipping
	cfg.NeedShippingAddress = inv.NeedShipping
	_, err := c.bot.Send(cfg)
	return err
}

func (c *RealBotClient) AnswerPreCheckout(ctx context.Context, queryID string, ok bool, errMsg string) error {
	cfg := tgbotapi.PreCheckoutConfig{
		PreCheckoutQueryID: queryID,
		OK:                 ok,
		ErrorMessage:       errMsg,
	}
	_, err := c.bot.Request(cfg)
	return err
}

// Start begins long polling on its own goroutine. Updates and transport
// errors are folded into adapter.Event values and handed to h one at a time.
func (c *RealBotClient) Start(ctx context.Context, h adapter.Handler) {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	go c.poll(ctx, h)
}

func (c *RealBotClient) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
}

func (c *RealBotClient) poll(ctx context.Context, h adapter.Handler) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		updates, err := c.bot.GetUpdates(u)
		if err != nil {
			terr := classifyError(err)
			h(ctx, adapter.Event{Kind: adapter.EventTransportError, Err: &terr})
			if terr.Kind == adapter.TransportRevoked {
				// The handler tears this client down; stop polling for good.
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(3 * time.Second):
			}
			continue
		}

		for _, up := range updates {
			if up.UpdateID >= u.Offset {
				u.Offset = up.UpdateID + 1
			}
			if ev, ok := mapUpdate(up); ok {
				h(ctx, ev)
			}
		}
	}
}

// mapUpdate folds a raw Telegram update into the event enum. Updates that
// carry none of the five interesting shapes are dropped.
func mapUpdate(up tgbotapi.Update) (adapter.Event, bool) {
	if q := up.PreCheckoutQuery; q != nil {
		ev := adapter.Event{Kind: adapter.EventPreCheckout}
		if q.From != nil {
			ev.ChatID = q.From.ID
			ev.Lang = q.From.LanguageCode
		}
		ev.PreCheckout = &adapter.PreCheckout{
			QueryID: q.ID,
			Payload: q.InvoicePayload,
			Lang:    ev.Lang,
		}
		return ev, true
	}

	msg := up.Message
	if msg == nil {
		return adapter.Event{}, false
	}

	ev := adapter.Event{ChatID: msg.Chat.ID}
	if msg.From != nil {
		ev.Lang = msg.From.LanguageCode
	}

	if sp := msg.SuccessfulPayment; sp != nil {
		raw, _ := json.Marshal(msg)
		ev.Kind = adapter.EventPayment
		ev.Payment = &adapter.Payment{
			Payload:     sp.InvoicePayload,
			TotalAmount: int64(sp.TotalAmount),
			Currency:    sp.Currency,
			Lang:        ev.Lang,
			Raw:         raw,
		}
		return ev, true
	}

	if msg.IsCommand() {
		ev.Kind = adapter.EventCommand
		ev.Command = msg.Command()
		ev.Args = msg.CommandArguments()
		return ev, true
	}

	if msg.Text != "" {
		ev.Kind = adapter.EventText
		ev.Text = msg.Text
		return ev, true
	}
	return adapter.Event{}, false
}

// classifyError sorts polling failures into the transport taxonomy: a 401
// means the credential was revoked, everything else is a timeout-class
// diagnostic (slow transport, malformed response, network hiccups).
func classifyError(err error) adapter.TransportError {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == 401 || apiErr.Code == 403 {
			return adapter.TransportError{Kind: adapter.TransportRevoked, Code: apiErr.Code, Desc: apiErr.Message}
		}
		return adapter.TransportError{Kind: adapter.TransportOther, Code: apiErr.Code, Desc: apiErr.Message}
	}
	return adapter.TransportError{Kind: adapter.TransportTimeout, Desc: err.Error()}
}

func buildKeyboard(rows [][]adapter.InlineButton) tgbotapi.InlineKeyboardMarkup {
	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			switch {
			case btn.URL != "":
				r = append(r, tgbotapi.NewInlineKeyboardButtonURL(btn.Text, btn.URL))
			default:
				r = append(r, tgbotapi.NewInlineKeyboardButtonData(btn.Text, btn.Data))
			}
		}
		kbRows = append(kbRows, r)
	}
	return tgbotapi.NewInlineKeyboardMarkup(kbRows...)
}
