package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/radieske/matka-admin-platform/internal/settlement-report/aggregate"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// Apply soma o delta ao agregado diário uma única vez por aposta.
// Retorna false quando o bet_id já foi contabilizado (reentrega).
func (r *PostgresRepo) Apply(ctx context.Context, betID string, d aggregate.Delta) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO settlement_processed_events (bet_id) VALUES ($1)
		ON CONFLICT (bet_id) DO NOTHING`, betID)
	if err != nil {
		return false, fmt.Errorf("mark processed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO settlement_daily_stats
		       (date_key, family, market, bets_won, bets_lost, total_staked, total_payout, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (date_key, family, market) DO UPDATE
		   SET bets_won     = settlement_daily_stats.bets_won + EXCLUDED.bets_won,
		       bets_lost    = settlement_daily_stats.bets_lost + EXCLUDED.bets_lost,
		       total_staked = settlement_daily_stats.total_staked + EXCLUDED.total_staked,
		       total_payout = settlement_daily_stats.total_payout + EXCLUDED.total_payout,
		       updated_at   = now()`,
		d.DateKey, d.Family, d.Market, d.Won, d.Lost, d.Staked, d.Payout)
	if err != nil {
		return false, fmt.Errorf("upsert daily stats: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}
