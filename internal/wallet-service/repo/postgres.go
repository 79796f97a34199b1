package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/radieske/matka-admin-platform/internal/settlement"
)

// Postgres implementa operações de saldo em banco
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrRequestNotFound   = errors.New("request not found")
	ErrRequestNotPending = errors.New("request is not pending")
	ErrInvalidAdjustment = errors.New("invalid balance adjustment")

	// compartilhados com a liquidação
	ErrUserNotFound  = settlement.ErrUserNotFound
	ErrBetNotPending = settlement.ErrBetNotPending
)

// Tipos de operação gravados em wallet_ledger
const (
	OpWinning     = "WINNING"
	OpDeposit     = "DEPOSIT"
	OpWithdrawal  = "WITHDRAWAL"
	OpAdminAdd    = "ADMIN_ADD"
	OpAdminDeduct = "ADMIN_DEDUCT"
	OpAdminSet    = "ADMIN_SET"
)

// RequestKind seleciona a tabela de solicitações
type RequestKind string

const (
	Deposit    RequestKind = "deposit"
	Withdrawal RequestKind = "withdrawal"
)

func (k RequestKind) table() string {
	if k == Withdrawal {
		return "withdrawal_requests"
	}
	return "add_money_requests"
}

// Mutation descreve uma alteração de saldo aplicada
type Mutation struct {
	UserPhone     string          `json:"userPhone"`
	Operation     string          `json:"operation"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceBefore decimal.Decimal `json:"balanceBefore"`
	BalanceAfter  decimal.Decimal `json:"balanceAfter"`
	Reference     string          `json:"reference"`
}

type LedgerEntry struct {
	ID            string          `json:"id"`
	Operation     string          `json:"operation"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceBefore decimal.Decimal `json:"balanceBefore"`
	BalanceAfter  decimal.Decimal `json:"balanceAfter"`
	Reference     string          `json:"reference"`
	Description   string          `json:"description"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type Request struct {
	ID         string          `json:"id"`
	Kind       RequestKind     `json:"kind"`
	UserPhone  string          `json:"userPhone"`
	Amount     decimal.Decimal `json:"amount"`
	Status     string          `json:"status"`
	ApprovedOn *time.Time      `json:"approvedOn,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// AdjustMode é o tipo de edição manual de saldo
type AdjustMode string

const (
	AdjustAdd    AdjustMode = "add"
	AdjustDeduct AdjustMode = "deduct"
	AdjustSet    AdjustMode = "set"
)

type Adjustment struct {
	UserPhone     string
	Mode          AdjustMode
	Amount        decimal.Decimal
	Reason        string
	AllowNegative bool
}

// NextBalance calcula o saldo resultante de uma edição manual
func NextBalance(before decimal.Decimal, a Adjustment) (decimal.Decimal, string, error) {
	if a.Amount.IsNegative() {
		return before, "", fmt.Errorf("%w: negative amount", ErrInvalidAdjustment)
	}
	switch a.Mode {
	case AdjustAdd:
		return before.Add(a.Amount), OpAdminAdd, nil
	case AdjustDeduct:
		after := before.Sub(a.Amount)
		if after.IsNegative() && !a.AllowNegative {
			return before, "", ErrInsufficientFunds
		}
		return after, OpAdminDeduct, nil
	case AdjustSet:
		return a.Amount, OpAdminSet, nil
	}
	return before, "", fmt.Errorf("%w: unknown mode %q", ErrInvalidAdjustment, a.Mode)
}

func (p *Postgres) GetUser(ctx context.Context, phone string) (settlement.User, error) {
	var u settlement.User
	err := p.db.QueryRowContext(ctx,
		`SELECT phone, name, balance, updated_at FROM users WHERE phone=$1`, phone).
		Scan(&u.Phone, &u.Name, &u.Balance, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	return u, err
}

// CreditWinning soma o prêmio e marca a aposta como Win na mesma transação.
// A aposta precisa estar Pending; caso contrário nada é alterado.
func (p *Postgres) CreditWinning(ctx context.Context, phone, betID string, payout decimal.Decimal) (decimal.Decimal, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, err
	}
	defer tx.Rollback()

	before, err := lockBalance(ctx, tx, phone)
	if err != nil {
		return decimal.Zero, err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE bets SET status='Win', winning_amount=$1, updated_at=NOW()
		WHERE id=$2 AND status='Pending'`, payout, betID)
	if err != nil {
		return decimal.Zero, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return decimal.Zero, ErrBetNotPending
	}

	after := before.Add(payout)
	if err = writeBalance(ctx, tx, phone, before, after, OpWinning, payout, "bet:"+betID, "bet winning"); err != nil {
		return decimal.Zero, err
	}
	if err = tx.Commit(); err != nil {
		return decimal.Zero, err
	}
	return after, nil
}

// ApproveRequest aprova um depósito (crédito) ou saque (débito com checagem de saldo)
func (p *Postgres) ApproveRequest(ctx context.Context, kind RequestKind, id string) (Mutation, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Mutation{}, err
	}
	defer tx.Rollback()

	req, err := lockPendingRequest(ctx, tx, kind, id)
	if err != nil {
		return Mutation{}, err
	}

	before, err := lockBalance(ctx, tx, req.UserPhone)
	if err != nil {
		return Mutation{}, err
	}

	op, after := OpDeposit, before.Add(req.Amount)
	if kind == Withdrawal {
		if before.LessThan(req.Amount) {
			return Mutation{}, ErrInsufficientFunds
		}
		op, after = OpWithdrawal, before.Sub(req.Amount)
	}

	ref := string(kind) + ":" + id
	if err = writeBalance(ctx, tx, req.UserPhone, before, after, op, req.Amount, ref, string(kind)+" approved"); err != nil {
		return Mutation{}, err
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE `+kind.table()+` SET status='Approved', approved_on=NOW(), updated_at=NOW() WHERE id=$1`, id); err != nil {
		return Mutation{}, err
	}
	if err = tx.Commit(); err != nil {
		return Mutation{}, err
	}
	return Mutation{UserPhone: req.UserPhone, Operation: op, Amount: req.Amount,
		BalanceBefore: before, BalanceAfter: after, Reference: ref}, nil
}

// RejectRequest só muda o status; saldo não é tocado
func (p *Postgres) RejectRequest(ctx context.Context, kind RequestKind, id string) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = lockPendingRequest(ctx, tx, kind, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE `+kind.table()+` SET status='Rejected', updated_at=NOW() WHERE id=$1`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// AdjustBalance aplica a edição manual do operador (add | deduct | set) com motivo
func (p *Postgres) AdjustBalance(ctx context.Context, a Adjustment) (Mutation, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Mutation{}, err
	}
	defer tx.Rollback()

	before, err := lockBalance(ctx, tx, a.UserPhone)
	if err != nil {
		return Mutation{}, err
	}
	after, op, err := NextBalance(before, a)
	if err != nil {
		return Mutation{}, err
	}

	ref := "admin:" + uuid.NewString()
	if err = writeBalance(ctx, tx, a.UserPhone, before, after, op, a.Amount, ref, a.Reason); err != nil {
		return Mutation{}, err
	}
	if err = tx.Commit(); err != nil {
		return Mutation{}, err
	}
	return Mutation{UserPhone: a.UserPhone, Operation: op, Amount: a.Amount,
		BalanceBefore: before, BalanceAfter: after, Reference: ref}, nil
}

func (p *Postgres) ListRequests(ctx context.Context, kind RequestKind, status string, limit int) ([]Request, error) {
	q := `SELECT id, user_phone, amount, status, approved_on, created_at FROM ` + kind.table()
	args := []any{}
	if status != "" {
		q += ` WHERE status=$1`
		args = append(args, status)
	}
	q += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, limit)

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		r := Request{Kind: kind}
		var approved sql.NullTime
		if err := rows.Scan(&r.ID, &r.UserPhone, &r.Amount, &r.Status, &approved, &r.CreatedAt); err != nil {
			return nil, err
		}
		if approved.Valid {
			r.ApprovedOn = &approved.Time
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *Postgres) Ledger(ctx context.Context, phone string, limit int) ([]LedgerEntry, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, operation_type, amount, balance_before, balance_after, reference, description, created_at
		FROM wallet_ledger WHERE user_phone=$1
		ORDER BY created_at DESC LIMIT $2`, phone, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.ID, &e.Operation, &e.Amount, &e.BalanceBefore, &e.BalanceAfter,
			&e.Reference, &e.Description, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// lockBalance trava a linha do usuário (lock pessimista) e devolve o saldo atual
func lockBalance(ctx context.Context, tx *sql.Tx, phone string) (decimal.Decimal, error) {
	var bal decimal.Decimal
	err := tx.QueryRowContext(ctx, `SELECT balance FROM users WHERE phone=$1 FOR UPDATE`, phone).Scan(&bal)
	if errors.Is(err, sql.ErrNoRows) {
		return bal, ErrUserNotFound
	}
	return bal, err
}

func lockPendingRequest(ctx context.Context, tx *sql.Tx, kind RequestKind, id string) (Request, error) {
	r := Request{ID: id, Kind: kind}
	err := tx.QueryRowContext(ctx,
		`SELECT user_phone, amount, status FROM `+kind.table()+` WHERE id=$1 FOR UPDATE`, id).
		Scan(&r.UserPhone, &r.Amount, &r.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return r, ErrRequestNotFound
	}
	if err != nil {
		return r, err
	}
	if r.Status != "Pending" {
		return r, ErrRequestNotPending
	}
	if !r.Amount.IsPositive() {
		return r, fmt.Errorf("%w: non-positive request amount", ErrInvalidAdjustment)
	}
	return r, nil
}

// writeBalance grava o novo saldo e a linha de auditoria no ledger
func writeBalance(ctx context.Context, tx *sql.Tx, phone string, before, after decimal.Decimal, op string, amount decimal.Decimal, ref, desc string) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET balance=$1, last_update_reason=$2, updated_at=NOW() WHERE phone=$3`,
		after, desc, phone); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO wallet_ledger(id, user_phone, operation_type, amount, balance_before, balance_after, reference, description)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8)`,
		uuid.NewString(), phone, op, amount, before, after, ref, desc)
	return err
}
