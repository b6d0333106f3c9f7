// File: internal/usecase/registry_uc_test.go
package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"telegram-offer-relay/internal/domain/model"
	"telegram-offer-relay/internal/domain/ports/adapter"
)

// fakeFactory hands out one fakeBotClient per token and remembers them.
type fakeFactory struct {
	mu      sync.Mutex
	clients map[string]*fakeBotClient
	err     error
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{clients: make(map[string]*fakeBotClient)}
}

func (f *fakeFactory) build(token string) (adapter.BotClient, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c := newFakeBotClient("bot_" + token)
	f.clients[token] = c
	return c, nil
}

type registryTestDeps struct {
	factory  *fakeFactory
	bots     *memBotRepo
	offers   *memOfferRepo
	guard    *recordingGuard
	registry *Registry
}

func newRegistryDeps(limiter CommandLimiter) *registryTestDeps {
	d := &registryTestDeps{
		factory: newFakeFactory(),
		bots:    newMemBotRepo(),
		offers:  newMemOfferRepo(),
		guard:   &recordingGuard{},
	}
	flow := NewPurchaseFlow(d.offers, &memPurchaseRepo{}, &fakeGateway{}, stubLocalizer{}, d.guard, newTestLogger())
	d.registry = NewRegistry(context.Background(), d.factory.build, d.bots, flow, d.guard, limiter, newTestLogger(), true)
	return d
}

func reg(token, channel string) *model.BotRegistration {
	return &model.BotRegistration{BotToken: token, PaymentToken: "pt-" + token, Channel: channel, Email: "op@example.com"}
}

func TestRegistry_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("registers and persists a bot", func(t *testing.T) {
		// --- Arrange ---
		d := newRegistryDeps(nil)

		// --- Act ---
		err := d.registry.Register(ctx, reg("tok-1", "chan-1"), true)

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if d.registry.Len() != 1 {
			t.Fatalf("expected 1 entry, got %d", d.registry.Len())
		}
		stored, _ := d.bots.FindAll(ctx)
		if len(stored) != 1 {
			t.Fatalf("expected the registration persisted, got %d rows", len(stored))
		}
		if !d.guard.contains("New bot registered") {
			t.Error("expected a guard registration notification")
		}
		if d.factory.clients["tok-1"].handler == nil {
			t.Error("expected the dispatch handler installed on the client")
		}
	})

	t.Run("same channel re-registration leaves one entry and stops the old client", func(t *testing.T) {
		// --- Arrange ---
		d := newRegistryDeps(nil)
		if err := d.registry.Register(ctx, reg("tok-old", "chan-1"), true); err != nil {
			t.Fatal(err)
		}

		// --- Act ---
		err := d.registry.Register(ctx, reg("tok-new", "chan-1"), true)

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if d.registry.Len() != 1 {
			t.Fatalf("expected 1 entry after replacement, got %d", d.registry.Len())
		}
		if !d.factory.clients["tok-old"].stopped {
			t.Error("expected the replaced client to be stopped")
		}
		got, _, ok := d.registry.Lookup("chan-1")
		if !ok || got.BotToken != "tok-new" {
			t.Errorf("expected lookup to find the replacement, got %+v", got)
		}
	})

	t.Run("factory failure surfaces an error", func(t *testing.T) {
		// --- Arrange ---
		d := newRegistryDeps(nil)
		d.factory.err = errors.New("bad token")

		// --- Act ---
		err := d.registry.Register(ctx, reg("tok-1", "chan-1"), true)

		// --- Assert ---
		if err == nil {
			t.Fatal("expected an error, but got nil")
		}
		if d.registry.Len() != 0 {
			t.Errorf("expected no entries, got %d", d.registry.Len())
		}
	})
}

func TestRegistry_Rebuild(t *testing.T) {
	ctx := context.Background()

	t.Run("restores every stored registration without re-persisting", func(t *testing.T) {
		// --- Arrange ---
		d := newRegistryDeps(nil)
		d.bots.Save(ctx, reg("tok-1", "chan-1"))
		d.bots.Save(ctx, reg("tok-2", "chan-2"))

		// --- Act ---
		err := d.registry.Rebuild(ctx)

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if d.registry.Len() != 2 {
			t.Fatalf("expected 2 entries, got %d", d.registry.Len())
		}
		if d.guard.contains("New bot registered") {
			t.Error("rebuild must not produce registration notifications")
		}
	})

	t.Run("a dead credential is skipped, not fatal", func(t *testing.T) {
		// --- Arrange ---
		d := newRegistryDeps(nil)
		d.bots.Save(ctx, reg("tok-1", "chan-1"))
		d.factory.err = errors.New("revoked")

		// --- Act ---
		err := d.registry.Rebuild(ctx)

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if d.registry.Len() != 0 {
			t.Errorf("expected the dead credential skipped, got %d entries", d.registry.Len())
		}
	})
}

func TestRegistry_Dispatch(t *testing.T) {
	ctx := context.Background()

	startEvent := func(args string) adapter.Event {
		return adapter.Event{Kind: adapter.EventCommand, ChatID: 42, Lang: "en", Command: "start", Args: args}
	}

	t.Run("routes /start to the purchase flow", func(t *testing.T) {
		// --- Arrange ---
		d := newRegistryDeps(nil)
		offer := testOffer()
		offer.Channel = "chan-1"
		d.offers.Save(ctx, offer)
		if err := d.registry.Register(ctx, reg("tok-1", "chan-1"), false); err != nil {
			t.Fatal(err)
		}
		client := d.factory.clients["tok-1"]

		// --- Act ---
		client.inject(startEvent(" offer-1 "))

		// --- Assert ---
		if len(client.invoices) != 1 {
			t.Fatalf("expected an invoice from the /start dispatch, got %d", len(client.invoices))
		}
	})

	t.Run("ignores other commands and bare /start", func(t *testing.T) {
		// --- Arrange ---
		d := newRegistryDeps(nil)
		d.offers.Save(ctx, testOffer())
		if err := d.registry.Register(ctx, reg("tok-1", "chan-1"), false); err != nil {
			t.Fatal(err)
		}
		client := d.factory.clients["tok-1"]

		// --- Act ---
		client.inject(adapter.Event{Kind: adapter.EventCommand, ChatID: 42, Command: "help", Args: "offer-1"})
		client.inject(startEvent("   "))
		client.inject(adapter.Event{Kind: adapter.EventText, ChatID: 42, Text: "hello"})

		// --- Assert ---
		if len(client.invoices) != 0 || len(client.messages) != 0 {
			t.Error("expected no outbound traffic")
		}
	})

	t.Run("rate limited buyers are dropped silently", func(t *testing.T) {
		// --- Arrange ---
		limiter := &stubLimiter{allowed: false}
		d := newRegistryDeps(limiter)
		d.offers.Save(ctx, testOffer())
		if err := d.registry.Register(ctx, reg("tok-1", "chan-1"), false); err != nil {
			t.Fatal(err)
		}
		client := d.factory.clients["tok-1"]

		// --- Act ---
		client.inject(startEvent("offer-1"))

		// --- Assert ---
		if limiter.calls != 1 {
			t.Fatalf("expected one limiter call, got %d", limiter.calls)
		}
		if len(client.invoices) != 0 {
			t.Error("expected the throttled command dropped")
		}
	})

	t.Run("a broken limiter fails open", func(t *testing.T) {
		// --- Arrange ---
		limiter := &stubLimiter{allowed: false, err: errors.New("redis down")}
		d := newRegistryDeps(limiter)
		offer := testOffer()
		d.offers.Save(ctx, offer)
		if err := d.registry.Register(ctx, reg("tok-1", "chan-1"), false); err != nil {
			t.Fatal(err)
		}
		client := d.factory.clients["tok-1"]

		// --- Act ---
		client.inject(startEvent("offer-1"))

		// --- Assert ---
		if len(client.invoices) != 1 {
			t.Error("expected the command to go through when the limiter errors")
		}
	})
}

func TestRegistry_TransportErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("revoked credential tears the bot down", func(t *testing.T) {
		// --- Arrange ---
		d := newRegistryDeps(nil)
		if err := d.registry.Register(ctx, reg("tok-1", "chan-1"), true); err != nil {
			t.Fatal(err)
		}
		client := d.factory.clients["tok-1"]

		// --- Act ---
		client.inject(adapter.Event{
			Kind: adapter.EventTransportError,
			Err:  &adapter.TransportError{Kind: adapter.TransportRevoked, Code: 401, Desc: "Unauthorized"},
		})

		// --- Assert ---
		if d.registry.Len() != 0 {
			t.Fatalf("expected the bot removed, got %d entries", d.registry.Len())
		}
		if !client.stopped {
			t.Error("expected the client stopped")
		}
		if len(d.bots.deleted) != 1 || d.bots.deleted[0] != "tok-1" {
			t.Errorf("expected the stored registration deleted, got %v", d.bots.deleted)
		}
		if !d.guard.contains("revoked") {
			t.Error("expected a guard revocation notification")
		}
	})

	t.Run("timeout class errors only notify the guard", func(t *testing.T) {
		// --- Arrange ---
		d := newRegistryDeps(nil)
		if err := d.registry.Register(ctx, reg("tok-1", "chan-1"), true); err != nil {
			t.Fatal(err)
		}
		client := d.factory.clients["tok-1"]

		// --- Act ---
		client.inject(adapter.Event{
			Kind: adapter.EventTransportError,
			Err:  &adapter.TransportError{Kind: adapter.TransportTimeout, Desc: "context deadline exceeded"},
		})

		// --- Assert ---
		if d.registry.Len() != 1 {
			t.Fatalf("expected the bot kept, got %d entries", d.registry.Len())
		}
		if !d.guard.contains("transport issue") {
			t.Error("expected a guard transport diagnostic")
		}
	})
}

func TestRegistry_Unregister(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown channel is a no-op", func(t *testing.T) {
		// --- Arrange ---
		d := newRegistryDeps(nil)

		// --- Act ---
		err := d.registry.Unregister(ctx, "ghost")

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
	})
}

func TestRateKey(t *testing.T) {
	if got := rateKey(42, "start"); got != "rate_limit:42:start" {
		t.Errorf("unexpected rate key %q", got)
	}
}
