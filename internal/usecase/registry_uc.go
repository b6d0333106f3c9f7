// File: internal/usecase/registry_uc.go
package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"telegram-offer-relay/internal/domain/model"
	"telegram-offer-relay/internal/domain/ports/adapter"
	"telegram-offer-relay/internal/domain/ports/repository"
	"telegram-offer-relay/internal/infra/logging"
	"telegram-offer-relay/internal/infra/metrics"
)

const (
	startCmdLimit  = 20
	startCmdWindow = time.Minute
)

type boundBot struct {
	reg    *model.BotRegistration
	client adapter.BotClient
}

// Registry owns the channel→bot-client mapping. It is the only component that
// creates, indexes or stops messaging clients; everything else reaches them
// through Lookup.
type Registry struct {
	// baseCtx bounds the lifetime of client polling loops. Registrations
	// arrive on short-lived HTTP request contexts; polling must outlive them.
	baseCtx  context.Context
	factory  adapter.BotFactory
	bots     repository.BotRepository
	purchase *PurchaseFlow
	guard    GuardNotifier
	limiter  CommandLimiter
	log      *zerolog.Logger
	dev      bool

	mu      sync.Mutex
	entries map[string]*boundBot
}

func NewRegistry(
	baseCtx context.Context,
	factory adapter.BotFactory,
	bots repository.BotRepository,
	purchase *PurchaseFlow,
	guard GuardNotifier,
	limiter CommandLimiter,
	log *zerolog.Logger,
	dev bool,
) *Registry {
	return &Registry{
		baseCtx:  baseCtx,
		factory:  factory,
		bots:     bots,
		purchase: purchase,
		guard:    guard,
		limiter:  limiter,
		log:      log,
		dev:      dev,
		entries:  make(map[string]*boundBot),
	}
}

// Register builds a client for the credential, wires its event dispatch and
// indexes it by channel. An existing entry for the channel is silently
// replaced (its client stopped); no duplicate error is surfaced.
// persist is false during the startup rebuild.
func (r *Registry) Register(ctx context.Context, reg *model.BotRegistration, persist bool) error {
	client, err := r.factory(reg.BotToken)
	if err != nil {
		return fmt.Errorf("create bot client for channel %s: %w", reg.Channel, err)
	}

	r.mu.Lock()
	if old, ok := r.entries[reg.Channel]; ok {
		old.client.Stop()
	}
	r.entries[reg.Channel] = &boundBot{reg: reg, client: client}
	n := len(r.entries)
	r.mu.Unlock()
	metrics.SetRegisteredBots(n)

	client.Start(r.baseCtx, func(ctx context.Context, ev adapter.Event) {
		r.dispatch(ctx, reg, client, ev)
	})

	if persist {
		if err := r.bots.Save(ctx, reg); err != nil {
			return fmt.Errorf("persist registration for channel %s: %w", reg.Channel, err)
		}
		r.guard.Notify(ctx, "New bot registered!\nChannel: "+reg.Channel)
	}
	r.log.Info().Str("channel", reg.Channel).Str("bot_token", logging.Redact(reg.BotToken, r.dev)).Msg("bot registered")
	return nil
}

// Unregister stops the channel's client and removes the registration from
// memory and store. Unknown channels are a no-op.
func (r *Registry) Unregister(ctx context.Context, channel string) error {
	r.mu.Lock()
	b, ok := r.entries[channel]
	if ok {
		delete(r.entries, channel)
	}
	n := len(r.entries)
	r.mu.Unlock()
	if !ok {
		return nil
	}
	metrics.SetRegisteredBots(n)
	b.client.Stop()
	if err := r.bots.DeleteByToken(ctx, b.reg.BotToken); err != nil {
		return fmt.Errorf("delete registration for channel %s: %w", channel, err)
	}
	r.log.Info().Str("channel", channel).Msg("bot unregistered")
	return nil
}

// Rebuild loads every persisted registration and re-registers it without
// re-persisting. A single dead credential is logged and skipped so it cannot
// block startup.
func (r *Registry) Rebuild(ctx context.Context) error {
	regs, err := r.bots.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("load registrations: %w", err)
	}
	for _, reg := range regs {
		if err := r.Register(ctx, reg, false); err != nil {
			r.log.Error().Err(err).Str("channel", reg.Channel).Msg("rebuild: skip registration")
		}
	}
	return nil
}

// Lookup returns the registration and live client for a channel.
func (r *Registry) Lookup(channel string) (*model.BotRegistration, adapter.BotClient, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.entries[channel]
	if !ok {
		return nil, nil, false
	}
	return b.reg, b.client, true
}

// Len reports how many bots are currently registered.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// dispatch is the single handler for the five event kinds of one bot.
func (r *Registry) dispatch(ctx context.Context, reg *model.BotRegistration, client adapter.BotClient, ev adapter.Event) {
	switch ev.Kind {
	case adapter.EventCommand:
		if ev.Command != "start" {
			return
		}
		offerID := strings.TrimSpace(ev.Args)
		if offerID == "" {
			return
		}
		if !r.allow(ctx, ev.ChatID, "start") {
			return
		}
		if err := r.purchase.HandleStart(ctx, client, offerID, ev.ChatID, ev.Lang); err != nil {
			r.log.Error().Err(err).Str("channel", reg.Channel).Msg("handle /start")
		}

	case adapter.EventPreCheckout:
		if err := r.purchase.HandlePreCheckout(ctx, client, ev.PreCheckout); err != nil {
			r.log.Error().Err(err).Str("channel", reg.Channel).Msg("handle pre-checkout")
		}

	case adapter.EventPayment:
		if err := r.purchase.HandlePayment(ctx, client, reg, ev.Payment); err != nil {
			r.log.Error().Err(err).Str("channel", reg.Channel).Msg("handle payment")
		}

	case adapter.EventTransportError:
		r.handleTransportError(ctx, reg, ev.Err)

	case adapter.EventText:
		// Buyers talking to a shop bot outside the purchase flow are ignored.
	}
}

func (r *Registry) handleTransportError(ctx context.Context, reg *model.BotRegistration, terr *adapter.TransportError) {
	if terr == nil {
		return
	}
	switch terr.Kind {
	case adapter.TransportRevoked:
		metrics.IncTransportError("revoked")
		r.log.Warn().Str("channel", reg.Channel).Str("desc", terr.Desc).Msg("credential revoked, tearing down bot")
		r.guard.Notify(ctx, "Sir, a bot credential was revoked!\nChannel: "+reg.Channel)
		if err := r.Unregister(ctx, reg.Channel); err != nil {
			r.log.Error().Err(err).Str("channel", reg.Channel).Msg("unregister revoked bot")
		}
	case adapter.TransportTimeout:
		metrics.IncTransportError("timeout")
		r.guard.Notify(ctx, fmt.Sprintf(
			"Sir, we got a transport issue!\nChannel: %s\nBot token: %s\nError: %s",
			reg.Channel, logging.Redact(reg.BotToken, r.dev), terr.Desc))
	default:
		metrics.IncTransportError("other")
		r.log.Warn().Str("channel", reg.Channel).Int("code", terr.Code).Str("desc", terr.Desc).Msg("polling error")
	}
}

func (r *Registry) allow(ctx context.Context, chatID int64, command string) bool {
	if r.limiter == nil {
		return true
	}
	allowed, err := r.limiter.Allow(ctx, rateKey(chatID, command), startCmdLimit, startCmdWindow)
	if err != nil {
		r.log.Error().Err(err).Msg("rate limiter")
		return true
	}
	return allowed
}

func rateKey(chatID int64, command string) string {
	return fmt.Sprintf("rate_limit:%d:%s", chatID, command)
}
