package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
)

const phone = "9990001111"

func newMock(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgres(db), mock
}

func expectLockBalance(mock sqlmock.Sqlmock, balance string) {
	mock.ExpectQuery(`SELECT balance FROM users WHERE phone=\$1 FOR UPDATE`).
		WithArgs(phone).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(balance))
}

func TestCreditWinningCommitsBalanceAndLedger(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectBegin()
	expectLockBalance(mock, "100")
	mock.ExpectExec(`UPDATE bets SET status='Win'`).
		WithArgs(sqlmock.AnyArg(), "b1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users SET balance=\$1`).
		WithArgs(sqlmock.AnyArg(), "bet winning", phone).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO wallet_ledger`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	after, err := p.CreditWinning(context.Background(), phone, "b1", decimal.RequireFromString("50"))
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if !after.Equal(decimal.RequireFromString("150")) {
		t.Fatalf("balance after = %s, want 150", after)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// aposta já liquidada por outra instância: nenhum crédito, transação desfeita
func TestCreditWinningBetAlreadySettledRollsBack(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectBegin()
	expectLockBalance(mock, "100")
	mock.ExpectExec(`UPDATE bets SET status='Win'`).
		WithArgs(sqlmock.AnyArg(), "b1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := p.CreditWinning(context.Background(), phone, "b1", decimal.RequireFromString("50"))
	if !errors.Is(err, ErrBetNotPending) {
		t.Fatalf("err = %v, want ErrBetNotPending", err)
	}
	// qualquer UPDATE users inesperado já teria falhado acima
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreditWinningUnknownUser(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT balance FROM users WHERE phone=\$1 FOR UPDATE`).
		WithArgs(phone).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}))
	mock.ExpectRollback()

	_, err := p.CreditWinning(context.Background(), phone, "b1", decimal.RequireFromString("50"))
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// saque acima do saldo: solicitação continua Pending e saldo intacto
func TestApproveWithdrawalInsufficientFunds(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT user_phone, amount, status FROM withdrawal_requests WHERE id=\$1 FOR UPDATE`).
		WithArgs("w1").
		WillReturnRows(sqlmock.NewRows([]string{"user_phone", "amount", "status"}).AddRow(phone, "500", "Pending"))
	expectLockBalance(mock, "100")
	mock.ExpectRollback()

	_, err := p.ApproveRequest(context.Background(), Withdrawal, "w1")
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestApproveRequestNotPending(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT user_phone, amount, status FROM add_money_requests WHERE id=\$1 FOR UPDATE`).
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{"user_phone", "amount", "status"}).AddRow(phone, "500", "Approved"))
	mock.ExpectRollback()

	_, err := p.ApproveRequest(context.Background(), Deposit, "d1")
	if !errors.Is(err, ErrRequestNotPending) {
		t.Fatalf("err = %v, want ErrRequestNotPending", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
