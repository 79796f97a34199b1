package aggregate

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"

	"github.com/radieske/matka-admin-platform/pkg/contracts/events"
)

func TestFromEvent(t *testing.T) {
	ist, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Fatal(err)
	}
	// 20:30 UTC já é o dia seguinte em IST
	ts := time.Date(2026, 3, 9, 20, 30, 0, 0, time.UTC)
	base := events.BetSettled{
		BetID: "b1", Family: "main", Market: "Kalyan", GameType: "single_digit",
		BidAmount: decimal.NewFromInt(10), WinningAmount: decimal.NewFromInt(100), Ts: ts,
	}

	win := base
	win.Status = "Win"
	d, err := FromEvent(win, ist)
	if err != nil {
		t.Fatal(err)
	}
	if d.DateKey != "10-03-2026" || d.Won != 1 || d.Lost != 0 || !d.Payout.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("win delta = %+v", d)
	}

	lose := base
	lose.Status = "Lose"
	d, err = FromEvent(lose, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if d.DateKey != "09-03-2026" || d.Lost != 1 || !d.Payout.IsZero() || !d.Staked.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("lose delta = %+v", d)
	}

	bad := []struct {
		name string
		mut  func(*events.BetSettled)
	}{
		{"pending status", func(e *events.BetSettled) { e.Status = "Pending" }},
		{"missing bet id", func(e *events.BetSettled) { e.Status = "Win"; e.BetID = "" }},
		{"missing ts", func(e *events.BetSettled) { e.Status = "Win"; e.Ts = time.Time{} }},
		{"negative stake", func(e *events.BetSettled) { e.Status = "Lose"; e.BidAmount = decimal.NewFromInt(-1) }},
	}
	for _, c := range bad {
		t.Run(c.name, func(t *testing.T) {
			ev := base
			c.mut(&ev)
			if _, err := FromEvent(ev, time.UTC); !errors.Is(err, ErrInvalidEvent) {
				t.Errorf("err = %v", err)
			}
		})
	}
}
