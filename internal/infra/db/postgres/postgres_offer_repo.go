package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-offer-relay/internal/domain"
	"telegram-offer-relay/internal/domain/model"
	"telegram-offer-relay/internal/domain/ports/repository"
)

const uniqueViolation = "23505"

type PostgresOfferRepo struct {
	db *pgxpool.Pool
}

func NewPostgresOfferRepo(db *pgxpool.Pool) *PostgresOfferRepo {
	return &PostgresOfferRepo{db: db}
}

var _ repository.OfferRepository = (*PostgresOfferRepo)(nil)

func (r *PostgresOfferRepo) Save(ctx context.Context, o *model.Offer) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO offers (offer_id, channel, bot_token, payment_token, title, description,
			amount, currency, image, quantity, sold, expiration, shipping, lang)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`, o.OfferID, o.Channel, o.BotToken, o.PaymentToken, o.Title, o.Description,
		o.Amount, o.Currency, o.Image, o.Quantity, o.Sold, o.Expiration, o.Shipping, o.Lang)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("offer %s: %w", o.OfferID, domain.ErrAlreadyExists)
	}
	return err
}

func (r *PostgresOfferRepo) FindByID(ctx context.Context, offerID string) (*model.Offer, error) {
	var o model.Offer
	err := r.db.QueryRow(ctx, `
		SELECT offer_id, channel, bot_token, payment_token, title, description,
			amount, currency, image, quantity, sold, expiration, shipping, lang
		FROM offers WHERE offer_id=$1
	`, offerID).Scan(&o.OfferID, &o.Channel, &o.BotToken, &o.PaymentToken, &o.Title, &o.Description,
		&o.Amount, &o.Currency, &o.Image, &o.Quantity, &o.Sold, &o.Expiration, &o.Shipping, &o.Lang)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *PostgresOfferRepo) IncrementSold(ctx context.Context, offerID string) error {
	tag, err := r.db.Exec(ctx, `UPDATE offers SET sold = sold + 1 WHERE offer_id=$1`, offerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
