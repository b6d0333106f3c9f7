package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-offer-relay/internal/domain/model"
	"telegram-offer-relay/internal/domain/ports/repository"
)

type PostgresBotRepo struct {
	db *pgxpool.Pool
}

func NewPostgresBotRepo(db *pgxpool.Pool) *PostgresBotRepo {
	return &PostgresBotRepo{db: db}
}

var _ repository.BotRepository = (*PostgresBotRepo)(nil)

// Save upserts by channel: registering a second bot on the same channel
// silently replaces the previous registration.
func (r *PostgresBotRepo) Save(ctx context.Context, reg *model.BotRegistration) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO bots (channel, bot_token, payment_token, email)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (channel) DO UPDATE
		SET bot_token=EXCLUDED.bot_token, payment_token=EXCLUDED.payment_token, email=EXCLUDED.email
	`, reg.Channel, reg.BotToken, reg.PaymentToken, reg.Email)
	return err
}

func (r *PostgresBotRepo) FindAll(ctx context.Context) ([]*model.BotRegistration, error) {
	rows, err := r.db.Query(ctx, `
		SELECT channel, bot_token, payment_token, email FROM bots
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.BotRegistration
	for rows.Next() {
		var reg model.BotRegistration
		if err := rows.Scan(&reg.Channel, &reg.BotToken, &reg.PaymentToken, &reg.Email); err != nil {
			return nil, err
		}
		out = append(out, &reg)
	}
	return out, rows.Err()
}

func (r *PostgresBotRepo) DeleteByToken(ctx context.Context, botToken string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM bots WHERE bot_token=$1`, botToken)
	return err
}
