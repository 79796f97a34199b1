package repo

import (
	"testing"
	"time"
)

func TestFilterWhere(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name  string
		f     Filter
		where string
		nargs int
	}{
		{"empty", Filter{}, "", 0},
		{"status", Filter{Status: "Pending"}, " WHERE status = $1", 1},
		{"market and game", Filter{Market: "KALYAN", GameType: "Jodi Digit"}, " WHERE selected_button = $1 AND game_type = $2", 2},
		{"user and date", Filter{UserPhone: "9000", From: from, To: from.AddDate(0, 0, 1)},
			" WHERE user_phone = $1 AND created_at >= $2 AND created_at < $3", 3},
	}
	for _, c := range cases {
		where, args := c.f.where()
		if where != c.where || len(args) != c.nargs {
			t.Errorf("%s: got %q (%d args), want %q (%d args)", c.name, where, len(args), c.where, c.nargs)
		}
	}
}

func TestPageOffset(t *testing.T) {
	if got := (Page{Number: 3, Size: 20}).offset(); got != 40 {
		t.Errorf("offset = %d", got)
	}
}
