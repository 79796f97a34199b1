package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/matka-admin-platform/internal/settlement"
)

// Postgres implementa settlement.Store sobre as tabelas markets, bets e daily_results
type Postgres struct {
	DB *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{DB: db} }

const marketCols = `id, family, name, open_time, close_time, number, updated_at`

func scanMarket(row interface{ Scan(...any) error }) (settlement.Market, error) {
	var m settlement.Market
	var fam string
	err := row.Scan(&m.ID, &fam, &m.Name, &m.OpenTime, &m.CloseTime, &m.Number, &m.UpdatedAt)
	m.Family = settlement.Family(fam)
	return m, err
}

func (p *Postgres) Market(ctx context.Context, family settlement.Family, id string) (settlement.Market, error) {
	m, err := scanMarket(p.DB.QueryRowContext(ctx,
		`SELECT `+marketCols+` FROM markets WHERE family=$1 AND id=$2`, string(family), id))
	if errors.Is(err, sql.ErrNoRows) {
		return m, settlement.ErrMarketNotFound
	}
	return m, err
}

func (p *Postgres) Markets(ctx context.Context, family settlement.Family) ([]settlement.Market, error) {
	rows, err := p.DB.QueryContext(ctx,
		`SELECT `+marketCols+` FROM markets WHERE family=$1 ORDER BY open_time, name`, string(family))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []settlement.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// SetMarketNumber grava o número e devolve o updated_at, que vira o corte
// das apostas elegíveis para esta publicação
func (p *Postgres) SetMarketNumber(ctx context.Context, family settlement.Family, id, number string) (time.Time, error) {
	var at time.Time
	err := p.DB.QueryRowContext(ctx,
		`UPDATE markets SET number=$1, updated_at=NOW() WHERE family=$2 AND id=$3 RETURNING updated_at`,
		number, string(family), id).Scan(&at)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, settlement.ErrMarketNotFound
	}
	return at, err
}

func (p *Postgres) ClearNumbers(ctx context.Context, family settlement.Family) (int, error) {
	res, err := p.DB.ExecContext(ctx,
		`UPDATE markets SET number='', updated_at=NOW() WHERE family=$1`, string(family))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// PendingBetsForMarket é o snapshot das apostas Pending no início da passada,
// limitado às criadas até placedBefore (zero = sem corte)
func (p *Postgres) PendingBetsForMarket(ctx context.Context, marketName string, placedBefore time.Time) ([]settlement.Bet, error) {
	cutoff := sql.NullTime{Time: placedBefore, Valid: !placedBefore.IsZero()}
	rows, err := p.DB.QueryContext(ctx, `
		SELECT id, user_phone, selected_button, game_type, bid_number, second_number,
		       bid_amount, session_status, status, created_at
		FROM bets
		WHERE selected_button=$1 AND status='Pending'
		  AND ($2::timestamptz IS NULL OR created_at <= $2)
		ORDER BY created_at, id`, marketName, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []settlement.Bet
	for rows.Next() {
		var b settlement.Bet
		var game, session, status string
		if err := rows.Scan(&b.ID, &b.UserPhone, &b.SelectedButton, &game, &b.BidNumber, &b.SecondNumber,
			&b.BidAmount, &session, &status, &b.CreatedAt); err != nil {
			return nil, err
		}
		b.GameType = settlement.GameType(game)
		b.SessionStatus = settlement.Session(session)
		b.Status = settlement.BetStatus(status)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (p *Postgres) MarkLost(ctx context.Context, betID string) error {
	res, err := p.DB.ExecContext(ctx,
		`UPDATE bets SET status='Lose', updated_at=NOW() WHERE id=$1 AND status='Pending'`, betID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return settlement.ErrBetNotPending
	}
	return nil
}

// OverwriteSnapshot substitui o quadro do dia por inteiro (sem merge)
func (p *Postgres) OverwriteSnapshot(ctx context.Context, family settlement.Family, dateKey string, results map[string]string) error {
	b, err := json.Marshal(results)
	if err != nil {
		return err
	}
	_, err = p.DB.ExecContext(ctx, `
		INSERT INTO daily_results (family, date_key, results, updated_at)
		VALUES ($1,$2,$3,NOW())
		ON CONFLICT (family, date_key) DO UPDATE SET
		  results    = EXCLUDED.results,
		  updated_at = EXCLUDED.updated_at`, string(family), dateKey, b)
	return err
}

// DailyResults lê o quadro gravado; sql.ErrNoRows quando o dia não existe
func (p *Postgres) DailyResults(ctx context.Context, family settlement.Family, dateKey string) (map[string]string, error) {
	var raw []byte
	if err := p.DB.QueryRowContext(ctx,
		`SELECT results FROM daily_results WHERE family=$1 AND date_key=$2`, string(family), dateKey).Scan(&raw); err != nil {
		return nil, err
	}
	out := map[string]string{}
	return out, json.Unmarshal(raw, &out)
}

// StrandedMarkets lista mercados com número publicado e apostas ainda Pending
// criadas antes de olderThan e antes da publicação do número atual; apostas
// feitas depois do número gravado esperam a próxima publicação do operador
func (p *Postgres) StrandedMarkets(ctx context.Context, olderThan time.Time) ([]settlement.Market, error) {
	rows, err := p.DB.QueryContext(ctx, `
		SELECT DISTINCT m.id, m.family, m.name, m.open_time, m.close_time, m.number, m.updated_at
		FROM markets m
		JOIN bets b ON b.selected_button = m.name AND b.status = 'Pending'
		WHERE m.number <> '' AND m.number <> 'N/A'
		  AND b.created_at < $1
		  AND b.created_at <= m.updated_at`, olderThan)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []settlement.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// DailyStat é o agregado diário mantido pelo settlement-report-worker
type DailyStat struct {
	Market      string          `json:"market"`
	BetsWon     int             `json:"betsWon"`
	BetsLost    int             `json:"betsLost"`
	TotalStaked decimal.Decimal `json:"totalStaked"`
	TotalPayout decimal.Decimal `json:"totalPayout"`
}

func (p *Postgres) DailyStats(ctx context.Context, family settlement.Family, dateKey string) ([]DailyStat, error) {
	rows, err := p.DB.QueryContext(ctx, `
		SELECT market, bets_won, bets_lost, total_staked, total_payout
		  FROM settlement_daily_stats
		 WHERE family=$1 AND date_key=$2
		 ORDER BY market`, string(family), dateKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []DailyStat{}
	for rows.Next() {
		var s DailyStat
		if err := rows.Scan(&s.Market, &s.BetsWon, &s.BetsLost, &s.TotalStaked, &s.TotalPayout); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
