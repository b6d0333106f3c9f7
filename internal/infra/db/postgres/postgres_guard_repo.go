package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-offer-relay/internal/domain"
	"telegram-offer-relay/internal/domain/model"
	"telegram-offer-relay/internal/domain/ports/repository"
)

const guardName = "guard"

type PostgresGuardRepo struct {
	db *pgxpool.Pool
}

func NewPostgresGuardRepo(db *pgxpool.Pool) *PostgresGuardRepo {
	return &PostgresGuardRepo{db: db}
}

var _ repository.GuardRepository = (*PostgresGuardRepo)(nil)

func (r *PostgresGuardRepo) Get(ctx context.Context) (*model.GuardTarget, error) {
	g := model.GuardTarget{Name: guardName}
	err := r.db.QueryRow(ctx, `SELECT chat_id FROM guard WHERE name=$1`, guardName).Scan(&g.ChatID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *PostgresGuardRepo) Upsert(ctx context.Context, chatID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO guard (name, chat_id) VALUES ($1,$2)
		ON CONFLICT (name) DO UPDATE SET chat_id=EXCLUDED.chat_id
	`, guardName, chatID)
	return err
}
