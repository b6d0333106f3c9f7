// File: internal/usecase/publish_uc.go
package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"telegram-offer-relay/internal/domain"
	"telegram-offer-relay/internal/domain/model"
	"telegram-offer-relay/internal/domain/ports/adapter"
	"telegram-offer-relay/internal/domain/ports/repository"
	"telegram-offer-relay/internal/infra/metrics"
)

// currencySymbols maps the handful of currencies offers are priced in.
// Unmapped currencies render the amount with no symbol.
var currencySymbols = map[string]string{
	"EUR": "€",
	"USD": "$",
	"GBP": "£",
}

// Publisher persists a new offer and announces it on its channel:
// first the photo, then the formatted text with the inline purchase link.
type Publisher struct {
	registry *Registry
	offers   repository.OfferRepository
	loc      Localizer
	guard    GuardNotifier
	log      *zerolog.Logger
}

func NewPublisher(registry *Registry, offers repository.OfferRepository, loc Localizer, guard GuardNotifier, log *zerolog.Logger) *Publisher {
	return &Publisher{registry: registry, offers: offers, loc: loc, guard: guard, log: log}
}

// Publish stores the offer and sends the channel announcement. Send failures
// are returned to the caller (the operator's HTTP request) and mirrored to
// the guard; they never kill the process.
func (u *Publisher) Publish(ctx context.Context, offer *model.Offer) error {
	if offer.OfferID == "" || offer.Channel == "" {
		return fmt.Errorf("offer id and channel are required: %w", domain.ErrInvalidArgument)
	}
	reg, client, ok := u.registry.Lookup(offer.Channel)
	if !ok {
		return fmt.Errorf("channel %s: %w", offer.Channel, domain.ErrNoBotForChannel)
	}
	offer.BotToken = reg.BotToken
	offer.PaymentToken = reg.PaymentToken
	offer.Lang = u.loc.Resolve(offer.Lang)

	if err := u.offers.Save(ctx, offer); err != nil {
		return fmt.Errorf("persist offer %s: %w", offer.OfferID, err)
	}

	username := client.Username()

	if err := client.SendChannelPhoto(ctx, offer.Channel, offer.Image); err != nil {
		metrics.IncOfferPublished("error")
		u.guard.Notify(ctx, "Sir, we got an issue publishing an offer!\nChannel: "+offer.Channel+"\nError: "+err.Error())
		return fmt.Errorf("send offer photo to %s: %w", offer.Channel, err)
	}

	text := formatOfferText(offer, u.loc)
	buyURL := "https://telegram.me/" + username + "?start=" + offer.OfferID
	rows := [][]adapter.InlineButton{
		{{Text: u.loc.T(offer.Lang, "buy_now"), URL: buyURL}},
	}
	if err := client.SendChannelMessage(ctx, offer.Channel, text, rows); err != nil {
		metrics.IncOfferPublished("error")
		u.guard.Notify(ctx, "Sir, we got an issue publishing an offer!\nChannel: "+offer.Channel+"\nError: "+err.Error())
		return fmt.Errorf("send offer message to %s: %w", offer.Channel, err)
	}

	metrics.IncOfferPublished("ok")
	u.guard.Notify(ctx, fmt.Sprintf("New offer sent on channel %s!\nTitle: %s\nPrice %s %s",
		offer.Channel, offer.Title, formatAmount(offer.Amount), currencySymbols[offer.Currency]))
	u.log.Info().Str("channel", offer.Channel).Str("offer_id", offer.OfferID).Msg("offer published")
	return nil
}

// formatOfferText renders the Markdown announcement body: bold title,
// description, bold price with currency symbol, and the remaining-quantity
// line when the offer is capped.
func formatOfferText(offer *model.Offer, loc Localizer) string {
	var b strings.Builder
	b.WriteString("*" + offer.Title + "*\n\n")
	b.WriteString(offer.Description + "\n\n")
	b.WriteString("*" + currencySymbols[offer.Currency] + formatAmount(offer.Amount) + "*\n")
	if offer.Quantity > 0 {
		b.WriteString("\n*" + loc.T(offer.Lang, "available") + strconv.Itoa(offer.Quantity) + "*")
	}
	return b.String()
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
