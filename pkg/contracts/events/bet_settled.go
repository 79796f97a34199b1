package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Evento emitido pelo result-service a cada aposta resolvida (Win | Lose)
type BetSettled struct {
	BetID         string          `json:"bet_id"`
	UserPhone     string          `json:"user_phone"`
	Family        string          `json:"family"`
	Market        string          `json:"market"`
	GameType      string          `json:"game_type"`
	Session       string          `json:"session,omitempty"`
	Result        string          `json:"result"`
	Status        string          `json:"status"` // "Win" | "Lose"
	BidAmount     decimal.Decimal `json:"bid_amount"`
	WinningAmount decimal.Decimal `json:"winning_amount"`
	Ts            time.Time       `json:"ts"`
}

// Evento de falha de liquidação; a aposta continua Pending e exige conferência manual
type SettlementFailed struct {
	BetID     string          `json:"bet_id"`
	UserPhone string          `json:"user_phone"`
	Family    string          `json:"family"`
	Market    string          `json:"market"`
	Result    string          `json:"result"`
	Payout    decimal.Decimal `json:"payout"`
	Error     string          `json:"error"`
	Ts        time.Time       `json:"ts"`
}
