// File: internal/usecase/purchase_uc.go
package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"telegram-offer-relay/internal/domain"
	"telegram-offer-relay/internal/domain/model"
	"telegram-offer-relay/internal/domain/ports/adapter"
	"telegram-offer-relay/internal/domain/ports/repository"
	"telegram-offer-relay/internal/infra/metrics"
)

const (
	invoicePhotoWidth  = 800
	invoicePhotoHeight = 533
	purchaseCodeLen    = 6
)

// PurchaseFlow drives an offer from /start command to settled payment.
type PurchaseFlow struct {
	offers    repository.OfferRepository
	purchases repository.PurchaseRepository
	gateway   adapter.CheckoutGateway
	loc       Localizer
	guard     GuardNotifier
	log       *zerolog.Logger

	now func() time.Time
}

func NewPurchaseFlow(
	offers repository.OfferRepository,
	purchases repository.PurchaseRepository,
	gateway adapter.CheckoutGateway,
	loc Localizer,
	guard GuardNotifier,
	log *zerolog.Logger,
) *PurchaseFlow {
	return &PurchaseFlow{
		offers:    offers,
		purchases: purchases,
		gateway:   gateway,
		loc:       loc,
		guard:     guard,
		log:       log,
		now:       time.Now,
	}
}

// HandleStart processes "/start <offerId>". Unknown offers are a silent no-op.
// Expired or depleted offers get a localized refusal; otherwise an invoice is
// issued carrying the correlation payload.
func (u *PurchaseFlow) HandleStart(ctx context.Context, client adapter.BotClient, offerID string, chatID int64, langTag string) error {
	offer, err := u.offers.FindByID(ctx, offerID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load offer %s: %w", offerID, err)
	}

	lang := u.loc.Resolve(langTag)

	if offer.ExpiredAt(u.now()) {
		metrics.IncPurchase("rejected_expired")
		return client.SendMessage(ctx, chatID, u.loc.T(lang, "offer_expired"))
	}
	if offer.Depleted() {
		metrics.IncPurchase("rejected_depleted")
		return client.SendMessage(ctx, chatID, u.loc.T(lang, "offer_depleted"))
	}

	payload, err := json.Marshal(model.PurchasePayload{OfferID: offer.OfferID, ChatID: chatID, Lang: lang})
	if err != nil {
		return err
	}
	inv := adapter.Invoice{
		ChatID:        chatID,
		Title:         offer.Title,
		Description:   offer.Description,
		Payload:       string(payload),
		ProviderToken: offer.PaymentToken,
		Currency:      offer.Currency,
		PriceLabel:    offer.Title,
		Amount:        int64(math.Round(offer.Amount * 100)),
		PhotoURL:      offer.Image,
		PhotoWidth:    invoicePhotoWidth,
		PhotoHeight:   invoicePhotoHeight,
		NeedShipping:  offer.Shipping,
	}
	if err := client.SendInvoice(ctx, inv); err != nil {
		return fmt.Errorf("send invoice for %s: %w", offerID, err)
	}
	metrics.IncInvoiceSent()
	return nil
}

// HandlePreCheckout re-validates the quantity cap right before the provider
// charges the buyer. Expiration is deliberately not re-checked here: the
// original flow only enforced it at /start time and that asymmetry is kept.
func (u *PurchaseFlow) HandlePreCheckout(ctx context.Context, client adapter.BotClient, q *adapter.PreCheckout) error {
	payload, ok := u.decodePayload(q.Payload)
	lang := u.loc.Resolve(q.Lang)
	if ok {
		lang = payload.Lang
	}
	if !ok {
		return client.AnswerPreCheckout(ctx, q.QueryID, false, u.loc.T(lang, "offer_depleted"))
	}

	offer, err := u.offers.FindByID(ctx, payload.OfferID)
	if err != nil {
		return client.AnswerPreCheckout(ctx, q.QueryID, false, u.loc.T(lang, "offer_depleted"))
	}
	if offer.Depleted() {
		metrics.IncPurchase("rejected_depleted")
		return client.AnswerPreCheckout(ctx, q.QueryID, false, u.loc.T(lang, "offer_depleted"))
	}
	return client.AnswerPreCheckout(ctx, q.QueryID, true, "")
}

// HandlePayment finishes a settled payment: purchase code to the buyer,
// forward to checkout, guard notification, sold counter, ledger row.
// The quantity check and this increment are not atomic across events; two
// settlements racing past the same pre-checkout can oversell (documented
// limitation of the flow).
func (u *PurchaseFlow) HandlePayment(ctx context.Context, client adapter.BotClient, reg *model.BotRegistration, pay *adapter.Payment) error {
	payload, ok := u.decodePayload(pay.Payload)
	if !ok {
		u.log.Error().Str("payload", pay.Payload).Msg("payment with undecodable payload")
		return domain.ErrInvalidArgument
	}
	if _, err := u.offers.FindByID(ctx, payload.OfferID); err != nil {
		return fmt.Errorf("payment for unknown offer %s: %w", payload.OfferID, err)
	}

	code := newPurchaseCode()
	if err := client.SendMessage(ctx, payload.ChatID, u.loc.T(payload.Lang, "successful_payment")+code); err != nil {
		u.log.Error().Err(err).Int64("chat_id", payload.ChatID).Msg("send purchase code")
	}

	if err := u.gateway.Forward(ctx, adapter.CheckoutRequest{
		Email:        reg.Email,
		PaymentData:  pay.Raw,
		PurchaseCode: code,
		Lang:         pay.Lang,
	}); err != nil {
		u.log.Error().Err(err).Str("offer_id", payload.OfferID).Msg("forward checkout")
		u.guard.Notify(ctx, "Sir, checkout forwarding failed!\nChannel: "+reg.Channel+"\nError: "+err.Error())
	}

	u.guard.Notify(ctx, "Sir, new offer purchased!\nChannel: "+reg.Channel)

	if err := u.offers.IncrementSold(ctx, payload.OfferID); err != nil {
		u.log.Error().Err(err).Str("offer_id", payload.OfferID).Msg("increment sold")
		return err
	}

	if err := u.purchases.Save(ctx, &model.Purchase{
		ID:       ulid.Make().String(),
		OfferID:  payload.OfferID,
		ChatID:   payload.ChatID,
		Code:     code,
		Amount:   pay.TotalAmount,
		Currency: pay.Currency,
	}); err != nil {
		// Ledger writes never block the buyer flow.
		u.log.Error().Err(err).Str("offer_id", payload.OfferID).Msg("record purchase")
	}

	metrics.IncPurchase("confirmed")
	return nil
}

func (u *PurchaseFlow) decodePayload(raw string) (model.PurchasePayload, bool) {
	var p model.PurchasePayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil || p.OfferID == "" {
		return model.PurchasePayload{}, false
	}
	return p, true
}

// newPurchaseCode returns 6 uniform random ASCII digits. Not cryptographically
// secured and not checked for uniqueness against past codes.
func newPurchaseCode() string {
	b := make([]byte, purchaseCodeLen)
	for i := range b {
		b[i] = byte('0' + rand.Intn(10))
	}
	return string(b)
}
