package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vedran77/teamchat/internal/domain"
)

const presenceSchema = `
	CREATE TABLE IF NOT EXISTS presence (
		user_id      TEXT PRIMARY KEY,
		status       TEXT NOT NULL,
		last_changed TIMESTAMPTZ NOT NULL
	)`

type PresenceRepo struct {
	pool *pgxpool.Pool
}

func NewPresenceRepo(pool *pgxpool.Pool) *PresenceRepo {
	return &PresenceRepo{pool: pool}
}

// EnsureSchema creates the presence table if it does not exist.
func (r *PresenceRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, presenceSchema)
	return err
}

func (r *PresenceRepo) Set(ctx context.Context, p *domain.Presence) error {
	query := `
		INSERT INTO presence (user_id, status, last_changed)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET status = EXCLUDED.status, last_changed = EXCLUDED.last_changed`
	_, err := r.pool.Exec(ctx, query, p.UserID, p.Status, p.LastChanged)
	return err
}

func (r *PresenceRepo) Get(ctx context.Context, userID string) (*domain.Presence, error) {
	var p domain.Presence
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, status, last_changed FROM presence WHERE user_id = $1`, userID,
	).Scan(&p.UserID, &p.Status, &p.LastChanged)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &p, err
}

func (r *PresenceRepo) ListOnline(ctx context.Context) ([]domain.Presence, error) {
	query := `SELECT user_id, status, last_changed FROM presence
		WHERE status <> 'offline' ORDER BY last_changed DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []domain.Presence
	for rows.Next() {
		var p domain.Presence
		if err := rows.Scan(&p.UserID, &p.Status, &p.LastChanged); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}
