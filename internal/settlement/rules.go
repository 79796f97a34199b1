package settlement

import (
	"github.com/shopspring/decimal"
)

// Tabela de multiplicadores por família e tipo de jogo
var payoutTable = map[Family]map[GameType]int64{
	FamilyMain: {
		SingleDigit: 10,
		DoubleDigit: 100,
		SinglePanna: 160,
		DoublePanna: 320,
		TriplePanna: 700,
		HalfSangam:  1000,
		FullSangam:  1000,
	},
	FamilyStarline: {
		SingleDigit: 10,
		SinglePanna: 160,
		DoublePanna: 320,
		TriplePanna: 1000,
	},
	FamilyGali: {
		LeftDigit:  9,
		RightDigit: 9,
		JodiDigit:  90,
	},
}

// Multiplier devolve o multiplicador do tipo de jogo na família
func Multiplier(f Family, g GameType) (int64, bool) {
	m, ok := payoutTable[f][g]
	return m, ok
}

// Outcome é o resultado da avaliação de uma aposta
type Outcome string

const (
	OutcomeWin    Outcome = "win"
	OutcomeLose   Outcome = "lose"
	OutcomeSkip   Outcome = "skip"
	OutcomeFailed Outcome = "failed"
)

// Decision é o veredito puro sobre uma aposta, antes de qualquer escrita
type Decision struct {
	Outcome Outcome
	Payout  decimal.Decimal
	Reason  string
}

func win(b Bet, mult int64) Decision {
	return Decision{Outcome: OutcomeWin, Payout: b.BidAmount.Mul(decimal.NewFromInt(mult))}
}

func lose() Decision { return Decision{Outcome: OutcomeLose} }

func skip(reason string) Decision { return Decision{Outcome: OutcomeSkip, Reason: reason} }

// Evaluate aplica a regra do tipo de jogo ao resultado. Comparações são sempre
// entre strings, sem coerção numérica ("07" != "7").
func Evaluate(r Result, b Bet, policy SessionPolicy) Decision {
	session := b.SessionStatus
	if session == "" {
		session = SessionOpen
	}
	if !r.Applicable(session, policy) {
		return skip("session " + string(session) + " not drawn")
	}

	// tipo de jogo fora da tabela da família não tem como ganhar
	mult, ok := Multiplier(r.Family, b.GameType)
	if !ok {
		return Decision{Outcome: OutcomeLose, Reason: "unsupported game type " + string(b.GameType) + " for " + string(r.Family)}
	}

	var won bool
	switch r.Family {
	case FamilyMain:
		won = evaluateMain(r, b, session)
	case FamilyStarline:
		won = evaluateStarline(r, b)
	case FamilyGali:
		won = evaluateGali(r, b)
	}
	if won {
		return win(b, mult)
	}
	return lose()
}

func evaluateMain(r Result, b Bet, s Session) bool {
	switch b.GameType {
	case SingleDigit:
		return b.BidNumber == r.SessionDigit(s)
	case DoubleDigit:
		return s == SessionClose && len(r.Middle) == 2 && b.BidNumber == r.Middle
	case SinglePanna, DoublePanna, TriplePanna:
		return pannaMatches(b.GameType, b.BidNumber, r.SessionPanna(s))
	case HalfSangam:
		return b.BidNumber == r.SessionDigit(s) && b.SecondNumber == r.SessionPanna(s)
	case FullSangam:
		return s == SessionClose && b.BidNumber == r.OpenPanna && b.SecondNumber == r.ClosePanna
	}
	return false
}

func evaluateStarline(r Result, b Bet) bool {
	switch b.GameType {
	case SingleDigit:
		return b.BidNumber == r.Digit
	case SinglePanna, DoublePanna, TriplePanna:
		return pannaMatches(b.GameType, b.BidNumber, r.OpenPanna)
	}
	return false
}

func evaluateGali(r Result, b Bet) bool {
	switch b.GameType {
	case LeftDigit:
		return b.BidNumber == r.Left
	case RightDigit:
		return b.BidNumber == r.Right
	case JodiDigit:
		return b.BidNumber == r.Jodi
	}
	return false
}

// pannaMatches exige igualdade de string e a forma declarada pelo tipo de jogo
func pannaMatches(g GameType, bid, panna string) bool {
	if bid != panna {
		return false
	}
	switch g {
	case SinglePanna:
		return IsSinglePanna(panna)
	case DoublePanna:
		return IsDoublePanna(panna)
	case TriplePanna:
		return IsTriplePanna(panna)
	}
	return false
}
