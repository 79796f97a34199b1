package repo

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNextBalance(t *testing.T) {
	d := decimal.RequireFromString
	cases := []struct {
		name   string
		before string
		adj    Adjustment
		want   string
		op     string
		err    error
	}{
		{"add", "10", Adjustment{Mode: AdjustAdd, Amount: d("5.50")}, "15.50", OpAdminAdd, nil},
		{"deduct", "10", Adjustment{Mode: AdjustDeduct, Amount: d("4")}, "6", OpAdminDeduct, nil},
		{"deduct below zero", "10", Adjustment{Mode: AdjustDeduct, Amount: d("15")}, "", "", ErrInsufficientFunds},
		{"deduct below zero allowed", "10", Adjustment{Mode: AdjustDeduct, Amount: d("15"), AllowNegative: true}, "-5", OpAdminDeduct, nil},
		{"set", "10", Adjustment{Mode: AdjustSet, Amount: d("0")}, "0", OpAdminSet, nil},
		{"negative amount", "10", Adjustment{Mode: AdjustAdd, Amount: d("-1")}, "", "", ErrInvalidAdjustment},
		{"unknown mode", "10", Adjustment{Mode: "double", Amount: d("1")}, "", "", ErrInvalidAdjustment},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, op, err := NextBalance(d(c.before), c.adj)
			if c.err != nil {
				if !errors.Is(err, c.err) {
					t.Fatalf("err = %v, want %v", err, c.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(d(c.want)) || op != c.op {
				t.Errorf("got %s/%s, want %s/%s", got, op, c.want, c.op)
			}
		})
	}
}

func TestRequestKindTable(t *testing.T) {
	if Deposit.table() != "add_money_requests" || Withdrawal.table() != "withdrawal_requests" {
		t.Fatal("unexpected request tables")
	}
	if RequestKind("bogus").table() != "add_money_requests" {
		t.Error("unknown kinds must never reach an arbitrary table name")
	}
}
