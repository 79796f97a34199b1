package repo

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/matka-admin-platform/internal/settlement"
)

var ErrBetNotFound = errors.New("bet not found")

// Postgres implementa as leituras do relatório de apostas
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// Filter são os filtros do relatório; campos vazios são ignorados
type Filter struct {
	Status    string
	Market    string
	GameType  string
	UserPhone string
	From      time.Time
	To        time.Time
}

type Page struct {
	Number int
	Size   int
}

func (p Page) offset() int { return (p.Number - 1) * p.Size }

// Summary são os totais do relatório para o filtro aplicado
type Summary struct {
	Count       int             `json:"count"`
	TotalStaked decimal.Decimal `json:"totalStaked"`
	TotalPaid   decimal.Decimal `json:"totalPaid"`
}

const betCols = `id, user_phone, selected_button, game_type, bid_number, second_number,
	bid_amount, session_status, status, winning_amount, created_at`

// where monta a cláusula WHERE com placeholders posicionais
func (f Filter) where() (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, strings.Replace(cond, "?", "$"+strconv.Itoa(len(args)), 1))
	}
	if f.Status != "" {
		add("status = ?", f.Status)
	}
	if f.Market != "" {
		add("selected_button = ?", f.Market)
	}
	if f.GameType != "" {
		add("game_type = ?", f.GameType)
	}
	if f.UserPhone != "" {
		add("user_phone = ?", f.UserPhone)
	}
	if !f.From.IsZero() {
		add("created_at >= ?", f.From)
	}
	if !f.To.IsZero() {
		add("created_at < ?", f.To)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (p *Postgres) List(ctx context.Context, f Filter, pg Page) ([]settlement.Bet, error) {
	where, args := f.where()
	args = append(args, pg.Size, pg.offset())
	q := `SELECT ` + betCols + ` FROM bets` + where +
		` ORDER BY created_at DESC, id LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []settlement.Bet{}
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (p *Postgres) Summary(ctx context.Context, f Filter) (Summary, error) {
	where, args := f.where()
	var s Summary
	err := p.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(bid_amount),0), COALESCE(SUM(winning_amount),0) FROM bets`+where, args...).
		Scan(&s.Count, &s.TotalStaked, &s.TotalPaid)
	return s, err
}

func (p *Postgres) Get(ctx context.Context, id string) (settlement.Bet, error) {
	b, err := scanBet(p.db.QueryRowContext(ctx, `SELECT `+betCols+` FROM bets WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return b, ErrBetNotFound
	}
	return b, err
}

func scanBet(row interface{ Scan(...any) error }) (settlement.Bet, error) {
	var b settlement.Bet
	var game, session, status string
	var won decimal.NullDecimal
	if err := row.Scan(&b.ID, &b.UserPhone, &b.SelectedButton, &game, &b.BidNumber, &b.SecondNumber,
		&b.BidAmount, &session, &status, &won, &b.CreatedAt); err != nil {
		return b, err
	}
	b.GameType = settlement.GameType(game)
	b.SessionStatus = settlement.Session(session)
	b.Status = settlement.BetStatus(status)
	if won.Valid {
		b.WinningAmount = &won.Decimal
	}
	return b, nil
}
