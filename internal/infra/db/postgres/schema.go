package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-offer-relay/internal/domain/ports/repository"
)

const schema = `
CREATE TABLE IF NOT EXISTS bots (
	channel       TEXT PRIMARY KEY,
	bot_token     TEXT NOT NULL,
	payment_token TEXT NOT NULL,
	email         TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS offers (
	offer_id      TEXT PRIMARY KEY,
	channel       TEXT NOT NULL,
	bot_token     TEXT NOT NULL,
	payment_token TEXT NOT NULL,
	title         TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	amount        DOUBLE PRECISION NOT NULL,
	currency      TEXT NOT NULL,
	image         TEXT NOT NULL DEFAULT '',
	quantity      INT NOT NULL DEFAULT 0,
	sold          INT NOT NULL DEFAULT 0,
	expiration    DATE NOT NULL,
	shipping      BOOLEAN NOT NULL DEFAULT FALSE,
	lang          TEXT NOT NULL DEFAULT 'en'
);
CREATE TABLE IF NOT EXISTS guard (
	name    TEXT PRIMARY KEY,
	chat_id BIGINT NOT NULL
);
CREATE TABLE IF NOT EXISTS purchases (
	id         TEXT PRIMARY KEY,
	offer_id   TEXT NOT NULL,
	chat_id    BIGINT NOT NULL,
	code       TEXT NOT NULL,
	amount     BIGINT NOT NULL,
	currency   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
`

// EnsureSchema creates the relay tables when missing. Runs at startup, the
// same way the original bootstrap created its collections.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, schema)
	return err
}

type MaintenanceRepo struct {
	db *pgxpool.Pool
}

func NewMaintenanceRepo(db *pgxpool.Pool) *MaintenanceRepo {
	return &MaintenanceRepo{db: db}
}

var _ repository.Maintenance = (*MaintenanceRepo)(nil)

// DropAll wipes every relay table. Dev mode only; the front door guards the route.
func (r *MaintenanceRepo) DropAll(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `DROP TABLE IF EXISTS bots, offers, guard, purchases`)
	return err
}
