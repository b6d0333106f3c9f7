// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"telegram-offer-relay/internal/domain"
	"telegram-offer-relay/internal/domain/model"
	"telegram-offer-relay/internal/domain/ports/adapter"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// memBotRepo is a small in-memory registration store used by unit tests.
type memBotRepo struct {
	mu      sync.Mutex
	store   map[string]*model.BotRegistration // by bot token
	saveErr error
	deleted []string
}

func newMemBotRepo() *memBotRepo {
	return &memBotRepo{store: make(map[string]*model.BotRegistration)}
}

func (m *memBotRepo) Save(ctx context.Context, reg *model.BotRegistration) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *reg
	m.store[reg.BotToken] = &cp
	return nil
}

func (m *memBotRepo) FindAll(ctx context.Context) ([]*model.BotRegistration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.BotRegistration, 0, len(m.store))
	for _, r := range m.store {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memBotRepo) DeleteByToken(ctx context.Context, botToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, botToken)
	m.deleted = append(m.deleted, botToken)
	return nil
}

// memOfferRepo keeps offers in memory and counts sold increments.
type memOfferRepo struct {
	mu      sync.Mutex
	store   map[string]*model.Offer
	saveErr error
}

func newMemOfferRepo() *memOfferRepo {
	return &memOfferRepo{store: make(map[string]*model.Offer)}
}

func (m *memOfferRepo) Save(ctx context.Context, offer *model.Offer) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *offer
	m.store[offer.OfferID] = &cp
	return nil
}

func (m *memOfferRepo) FindByID(ctx context.Context, offerID string) (*model.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.store[offerID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOfferRepo) IncrementSold(ctx context.Context, offerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.store[offerID]
	if !ok {
		return domain.ErrNotFound
	}
	o.Sold++
	return nil
}

// memGuardRepo stores the singleton control-chat binding.
type memGuardRepo struct {
	mu     sync.Mutex
	target *model.GuardTarget
}

func (m *memGuardRepo) Get(ctx context.Context) (*model.GuardTarget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.target == nil {
		return nil, domain.ErrNotFound
	}
	cp := *m.target
	return &cp, nil
}

func (m *memGuardRepo) Upsert(ctx context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.target = &model.GuardTarget{Name: "guard", ChatID: chatID}
	return nil
}

// memPurchaseRepo records ledger rows.
type memPurchaseRepo struct {
	mu      sync.Mutex
	rows    []*model.Purchase
	saveErr error
}

func (m *memPurchaseRepo) Save(ctx context.Context, p *model.Purchase) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.rows = append(m.rows, &cp)
	return nil
}

// recordingGuard captures every notification without sending anything.
type recordingGuard struct {
	mu   sync.Mutex
	msgs []string
}

func (g *recordingGuard) Notify(ctx context.Context, msg string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.msgs = append(g.msgs, msg)
}

func (g *recordingGuard) contains(substr string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, m := range g.msgs {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

// stubLocalizer resolves like the real bundle but translates keys to
// themselves, so assertions can match on key names.
type stubLocalizer struct{}

func (stubLocalizer) Resolve(tag string) string {
	tag = strings.ToLower(tag)
	if tag == "it" || strings.HasPrefix(tag, "it-") {
		return "it"
	}
	return "en"
}

func (stubLocalizer) T(lang, key string, args ...interface{}) string { return key }

// sentMessage is one text message captured by the fake client.
type sentMessage struct {
	ChatID int64
	Text   string
}

type preCheckoutAnswer struct {
	QueryID string
	OK      bool
	ErrMsg  string
}

// fakeBotClient records every outbound call and hands the dispatch handler
// back to the test so events can be injected synchronously.
type fakeBotClient struct {
	mu       sync.Mutex
	username string

	messages        []sentMessage
	channelPhotos   []string // photo URLs in send order
	channelMsgs     []string
	channelButtons  [][][]adapter.InlineButton
	invoices        []adapter.Invoice
	answers         []preCheckoutAnswer
	sendPhotoErr    error
	sendMsgErr      error
	sendChannelErr  error
	stopped         bool
	handler         adapter.Handler
	handlerCtx      context.Context
}

func newFakeBotClient(username string) *fakeBotClient {
	return &fakeBotClient{username: username}
}

func (c *fakeBotClient) Username() string { return c.username }

func (c *fakeBotClient) SendMessage(ctx context.Context, chatID int64, text string) error {
	if c.sendMsgErr != nil {
		return c.sendMsgErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (c *fakeBotClient) SendChannelPhoto(ctx context.Context, channel, photoURL string) error {
	if c.sendPhotoErr != nil {
		return c.sendPhotoErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.channelPhotos = append(c.channelPhotos, photoURL)
	return nil
}

func (c *fakeBotClient) SendChannelMessage(ctx context.Context, channel, text string, rows [][]adapter.InlineButton) error {
	if c.sendChannelErr != nil {
		return c.sendChannelErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.channelMsgs = append(c.channelMsgs, text)
	c.channelButtons = append(c.channelButtons, rows)
	return nil
}

func (c *fakeBotClient) SendInvoice(ctx context.Context, inv adapter.Invoice) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invoices = append(c.invoices, inv)
	return nil
}

func (c *fakeBotClient) AnswerPreCheckout(ctx context.Context, queryID string, ok bool, errMsg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.answers = append(c.answers, preCheckoutAnswer{QueryID: queryID, OK: ok, ErrMsg: errMsg})
	return nil
}

func (c *fakeBotClient) Start(ctx context.Context, h adapter.Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = h
	c.handlerCtx = ctx
}

func (c *fakeBotClient) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
}

// inject feeds an event through the handler the registry installed.
func (c *fakeBotClient) inject(ev adapter.Event) {
	c.mu.Lock()
	h := c.handler
	ctx := c.handlerCtx
	c.mu.Unlock()
	if h != nil {
		h(ctx, ev)
	}
}

// fakeGateway records checkout forwards.
type fakeGateway struct {
	mu    sync.Mutex
	reqs  []adapter.CheckoutRequest
	fwErr error
}

func (g *fakeGateway) Forward(ctx context.Context, req adapter.CheckoutRequest) error {
	if g.fwErr != nil {
		return g.fwErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reqs = append(g.reqs, req)
	return nil
}

// stubLimiter answers every Allow call with a fixed verdict.
type stubLimiter struct {
	allowed bool
	err     error
	calls   int
}

func (l *stubLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	l.calls++
	return l.allowed, l.err
}
