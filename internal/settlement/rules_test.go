package settlement

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func mustParse(t *testing.T, f Family, raw string) Result {
	t.Helper()
	p, err := ParserFor(f)
	if err != nil {
		t.Fatal(err)
	}
	r, err := p.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return r
}

func TestEvaluate(t *testing.T) {
	cases := []struct {
		name    string
		family  Family
		result  string
		game    GameType
		session Session
		bid     string
		second  string
		amount  int64
		policy  SessionPolicy
		outcome Outcome
		payout  int64
	}{
		{"main single digit open", FamilyMain, "123-4", SingleDigit, SessionOpen, "4", "", 10, PolicyStrict, OutcomeWin, 100},
		{"main single digit open miss", FamilyMain, "123-4", SingleDigit, SessionOpen, "5", "", 10, PolicyStrict, OutcomeLose, 0},
		{"main blank session is open", FamilyMain, "123-4", SingleDigit, "", "4", "", 1, PolicyStrict, OutcomeWin, 10},
		{"main close bet before close draw", FamilyMain, "123-4", SingleDigit, SessionClose, "4", "", 10, PolicyStrict, OutcomeSkip, 0},
		{"main open bet on full result strict", FamilyMain, "123-45-678", SingleDigit, SessionOpen, "4", "", 10, PolicyStrict, OutcomeSkip, 0},
		{"main open bet on full result lenient", FamilyMain, "123-45-678", SingleDigit, SessionOpen, "4", "", 10, PolicyLenient, OutcomeWin, 100},
		{"main single digit close", FamilyMain, "123-45-678", SingleDigit, SessionClose, "5", "", 2, PolicyStrict, OutcomeWin, 20},
		{"main double digit close", FamilyMain, "123-45-678", DoubleDigit, SessionClose, "45", "", 1, PolicyStrict, OutcomeWin, 100},
		{"main double digit open never wins", FamilyMain, "123-4", DoubleDigit, SessionOpen, "4", "", 1, PolicyStrict, OutcomeLose, 0},
		{"main single panna open", FamilyMain, "123-4", SinglePanna, SessionOpen, "123", "", 1, PolicyStrict, OutcomeWin, 160},
		{"main double panna close on single panna", FamilyMain, "123-45-678", DoublePanna, SessionClose, "678", "", 5, PolicyStrict, OutcomeLose, 0},
		{"main double panna close", FamilyMain, "123-45-788", DoublePanna, SessionClose, "788", "", 1, PolicyStrict, OutcomeWin, 320},
		{"main triple panna open", FamilyMain, "777-1", TriplePanna, SessionOpen, "777", "", 1, PolicyStrict, OutcomeWin, 700},
		{"main half sangam open", FamilyMain, "123-4", HalfSangam, SessionOpen, "4", "123", 1, PolicyStrict, OutcomeWin, 1000},
		{"main half sangam close", FamilyMain, "123-45-678", HalfSangam, SessionClose, "5", "678", 1, PolicyStrict, OutcomeWin, 1000},
		{"main full sangam", FamilyMain, "123-45-678", FullSangam, SessionClose, "123", "678", 1, PolicyStrict, OutcomeWin, 1000},
		{"main full sangam wrong close", FamilyMain, "123-45-678", FullSangam, SessionClose, "123", "679", 1, PolicyStrict, OutcomeLose, 0},
		{"main no numeric coercion", FamilyMain, "123-4", SingleDigit, SessionOpen, "04", "", 1, PolicyStrict, OutcomeLose, 0},
		{"main left digit unsupported", FamilyMain, "123-4", LeftDigit, SessionOpen, "4", "", 1, PolicyStrict, OutcomeLose, 0},
		{"starline triple panna", FamilyStarline, "555-5", TriplePanna, "", "555", "", 1, PolicyStrict, OutcomeWin, 1000},
		{"starline single digit", FamilyStarline, "123-6", SingleDigit, "", "6", "", 3, PolicyStrict, OutcomeWin, 30},
		{"starline single panna shape gate", FamilyStarline, "112-4", SinglePanna, "", "112", "", 1, PolicyStrict, OutcomeLose, 0},
		{"starline half sangam unsupported", FamilyStarline, "123-6", HalfSangam, "", "6", "123", 1, PolicyStrict, OutcomeLose, 0},
		{"starline double digit unsupported", FamilyStarline, "123-4", DoubleDigit, "", "45", "", 1, PolicyStrict, OutcomeLose, 0},
		{"main unsupported close bet before close draw", FamilyMain, "123-4", JodiDigit, SessionClose, "44", "", 1, PolicyStrict, OutcomeSkip, 0},
		{"gali jodi", FamilyGali, "37", JodiDigit, "", "37", "", 2, PolicyStrict, OutcomeWin, 180},
		{"gali left", FamilyGali, "37", LeftDigit, "", "3", "", 10, PolicyStrict, OutcomeWin, 90},
		{"gali right miss", FamilyGali, "37", RightDigit, "", "3", "", 10, PolicyStrict, OutcomeLose, 0},
		{"gali single digit unsupported", FamilyGali, "37", SingleDigit, "", "3", "", 10, PolicyStrict, OutcomeLose, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := mustParse(t, c.family, c.result)
			b := Bet{
				ID:             "b1",
				GameType:       c.game,
				SessionStatus:  c.session,
				BidNumber:      c.bid,
				SecondNumber:   c.second,
				BidAmount:      decimal.NewFromInt(c.amount),
				SelectedButton: "MKT",
			}
			d := Evaluate(r, b, c.policy)
			if d.Outcome != c.outcome {
				t.Fatalf("outcome = %s (%s), want %s", d.Outcome, d.Reason, c.outcome)
			}
			if c.outcome == OutcomeWin && !d.Payout.Equal(decimal.NewFromInt(c.payout)) {
				t.Errorf("payout = %s, want %d", d.Payout, c.payout)
			}
		})
	}
}

func TestMarketIsOpen(t *testing.T) {
	at := func(h, m int) time.Time { return time.Date(2026, 1, 2, h, m, 0, 0, time.UTC) }
	day := Market{OpenTime: "10:00", CloseTime: "12:30"}
	night := Market{OpenTime: "22:00", CloseTime: "02:00"}
	cases := []struct {
		m    Market
		now  time.Time
		want bool
	}{
		{day, at(11, 0), true},
		{day, at(12, 30), true},
		{day, at(12, 31), false},
		{day, at(9, 59), false},
		{night, at(23, 15), true},
		{night, at(1, 0), true},
		{night, at(3, 0), false},
		{Market{}, at(11, 0), false},
	}
	for i, c := range cases {
		if got := c.m.IsOpen(c.now); got != c.want {
			t.Errorf("case %d: IsOpen = %v, want %v", i, got, c.want)
		}
	}
}

func TestBetValidate(t *testing.T) {
	b := Bet{ID: "x", UserPhone: "9", SelectedButton: "M", GameType: SingleDigit, BidNumber: "1",
		BidAmount: decimal.NewFromInt(5), Status: StatusPending}
	if err := b.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.SessionStatus != SessionOpen {
		t.Errorf("blank session should default to Open, got %q", b.SessionStatus)
	}
	b.BidAmount = decimal.Zero
	if err := b.Validate(); err == nil {
		t.Error("expected error for zero amount")
	}
}
