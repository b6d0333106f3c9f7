package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"telegram-offer-relay/internal/domain"
	"telegram-offer-relay/internal/domain/model"
	"telegram-offer-relay/internal/infra/logging"
)

const expirationLayout = "2006-01-02"

type botCreateRequest struct {
	BotToken     string `json:"botToken"`
	PaymentToken string `json:"paymentToken"`
	Channel      string `json:"channel"`
	Email        string `json:"email"`
}

type offerCreateRequest struct {
	OfferID     string  `json:"offerId"`
	Channel     string  `json:"channel"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Image       string  `json:"image"`
	Quantity    int     `json:"quantity"`
	Expiration  string  `json:"expiration"` // YYYY-MM-DD
	Shipping    bool    `json:"shipping"`
	Lang        string  `json:"lang"`
}

type guardMessageRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, "Up and running")
}

func (s *Server) handleDrop(w http.ResponseWriter, r *http.Request) {
	if err := s.maintenance.DropAll(r.Context()); err != nil {
		s.logError(r, err, "drop store")
		writeText(w, http.StatusInternalServerError, "drop failed")
		return
	}
	writeText(w, http.StatusOK, "Store dropped")
}

func (s *Server) handleBotCreate(w http.ResponseWriter, r *http.Request) {
	var req botCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeText(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.BotToken == "" || req.PaymentToken == "" || req.Channel == "" {
		writeText(w, http.StatusBadRequest, "botToken, paymentToken and channel are required")
		return
	}
	reg := &model.BotRegistration{
		BotToken:     req.BotToken,
		PaymentToken: req.PaymentToken,
		Channel:      req.Channel,
		Email:        req.Email,
	}
	if err := s.registry.Register(r.Context(), reg, true); err != nil {
		s.logError(r, err, "register bot")
		writeText(w, http.StatusInternalServerError, "could not register bot")
		return
	}
	writeText(w, http.StatusOK, "Bot successfully added")
}

func (s *Server) handleOfferCreate(w http.ResponseWriter, r *http.Request) {
	var req offerCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeText(w, http.StatusBadRequest, "invalid request body")
		return
	}
	expiration, err := time.Parse(expirationLayout, req.Expiration)
	if err != nil {
		writeText(w, http.StatusBadRequest, "expiration must be YYYY-MM-DD")
		return
	}
	offer := &model.Offer{
		OfferID:     req.OfferID,
		Channel:     req.Channel,
		Title:       req.Title,
		Description: req.Description,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Image:       req.Image,
		Quantity:    req.Quantity,
		Expiration:  expiration,
		Shipping:    req.Shipping,
		Lang:        req.Lang,
	}
	if err := s.publisher.Publish(r.Context(), offer); err != nil {
		s.logError(r, err, "publish offer")
		status := http.StatusBadRequest
		if !errors.Is(err, domain.ErrInvalidArgument) && !errors.Is(err, domain.ErrNoBotForChannel) {
			status = http.StatusInternalServerError
		}
		writeText(w, status, fmt.Sprintf("could not publish offer: %v", err))
		return
	}
	writeText(w, http.StatusOK, "Offer sent on channel "+offer.Channel)
}

func (s *Server) handleGuardMessage(w http.ResponseWriter, r *http.Request) {
	var req guardMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeText(w, http.StatusBadRequest, "message is required")
		return
	}
	s.guard.Notify(r.Context(), req.Message)
	writeText(w, http.StatusOK, "Message forwarded")
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (s *Server) logError(r *http.Request, err error, msg string) {
	l := logging.With(r.Context(), s.log)
	l.Error().Err(err).Str("path", r.URL.Path).Msg(msg)
}
