// File: internal/usecase/guard_uc.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"telegram-offer-relay/internal/domain"
	"telegram-offer-relay/internal/domain/ports/adapter"
	"telegram-offer-relay/internal/domain/ports/repository"
)

// Guard owns the control-bot binding. Notifications are mirrored to the bound
// chat only when the guard is enabled (prod mode); everywhere else Notify is
// a no-op.
type Guard struct {
	enabled bool
	client  adapter.BotClient
	repo    repository.GuardRepository
	log     *zerolog.Logger

	mu     sync.RWMutex
	chatID int64
}

var _ GuardNotifier = (*Guard)(nil)

// NewGuard builds the notifier. client may be nil when disabled.
func NewGuard(client adapter.BotClient, repo repository.GuardRepository, enabled bool, log *zerolog.Logger) *Guard {
	return &Guard{enabled: enabled, client: client, repo: repo, log: log}
}

// Start recovers a previous chat binding from the store and begins listening
// for the binding command. Absence of a stored binding is not an error; the
// guard stays silent until /setup cto arrives.
func (g *Guard) Start(ctx context.Context) error {
	if !g.enabled || g.client == nil {
		return nil
	}
	target, err := g.repo.Get(ctx)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if target != nil {
		g.mu.Lock()
		g.chatID = target.ChatID
		g.mu.Unlock()
	}
	g.client.Start(ctx, g.handleEvent)
	return nil
}

func (g *Guard) handleEvent(ctx context.Context, ev adapter.Event) {
	if ev.Kind != adapter.EventCommand || ev.Command != "setup" {
		return
	}
	if strings.TrimSpace(ev.Args) != "cto" {
		return
	}
	g.mu.Lock()
	g.chatID = ev.ChatID
	g.mu.Unlock()
	if err := g.repo.Upsert(ctx, ev.ChatID); err != nil {
		g.log.Error().Err(err).Msg("guard: store chat binding")
	}
	if err := g.client.SendMessage(ctx, ev.ChatID, "That's my new home!"); err != nil {
		g.log.Error().Err(err).Msg("guard: confirm binding")
	}
}

// Notify sends msg to the bound control chat. Failures are logged and
// swallowed: the guard must never break the flow it is reporting on.
func (g *Guard) Notify(ctx context.Context, msg string) {
	if !g.enabled || g.client == nil {
		return
	}
	g.mu.RLock()
	chatID := g.chatID
	g.mu.RUnlock()
	if chatID == 0 {
		g.log.Debug().Msg("guard: notification dropped, chat not bound")
		return
	}
	if err := g.client.SendMessage(ctx, chatID, msg); err != nil {
		g.log.Error().Err(err).Msg("guard: send notification")
	}
}
