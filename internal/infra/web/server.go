package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-offer-relay/internal/domain/model"
	"telegram-offer-relay/internal/domain/ports/repository"
	"telegram-offer-relay/internal/usecase"
)

// BotRegistrar is the slice of the registry the front door needs.
type BotRegistrar interface {
	Register(ctx context.Context, reg *model.BotRegistration, persist bool) error
}

// OfferPublisher announces a stored offer on its channel.
type OfferPublisher interface {
	Publish(ctx context.Context, offer *model.Offer) error
}

// Server is the operator-facing front door. All state lives in the use cases;
// handlers only translate HTTP to calls.
type Server struct {
	registry    BotRegistrar
	publisher   OfferPublisher
	guard       usecase.GuardNotifier
	maintenance repository.Maintenance
	log         *zerolog.Logger

	dev    bool
	apiKey string

	httpSrv *http.Server
}

func NewServer(
	port int,
	registry BotRegistrar,
	publisher OfferPublisher,
	guard usecase.GuardNotifier,
	maintenance repository.Maintenance,
	log *zerolog.Logger,
	dev bool,
	apiKey string,
) *Server {
	s := &Server{
		registry:    registry,
		publisher:   publisher,
		guard:       guard,
		maintenance: maintenance,
		log:         log,
		dev:         dev,
		apiKey:      apiKey,
	}
	s.httpSrv = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Router builds the route table. Exposed so tests can drive it with httptest.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(
		TraceID(),
		RequestLog(s.log),
		Recover(s.log),
		Timeout(30*time.Second),
	)

	r.Get("/", s.handleRoot)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	if s.dev {
		r.Get("/drop", s.handleDrop)
	}

	r.Group(func(r chi.Router) {
		r.Use(APIKey(s.apiKey))
		r.Post("/bot", s.handleBotCreate)
		r.Post("/offer", s.handleOfferCreate)
		if !s.dev {
			r.Post("/guard", s.handleGuardMessage)
		}
	})
	return r
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	return s.httpSrv.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}
