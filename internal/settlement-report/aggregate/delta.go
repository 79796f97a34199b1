package aggregate

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/matka-admin-platform/internal/settlement"
	"github.com/radieske/matka-admin-platform/pkg/contracts/events"
)

var ErrInvalidEvent = errors.New("invalid bet_settled event")

// Delta é a contribuição de uma aposta liquidada para o agregado diário do mercado
type Delta struct {
	DateKey string
	Family  string
	Market  string
	Won     int
	Lost    int
	Staked  decimal.Decimal
	Payout  decimal.Decimal
}

// FromEvent converte o evento em delta; o dia é o da liquidação no fuso dos resultados
func FromEvent(ev events.BetSettled, loc *time.Location) (Delta, error) {
	if ev.BetID == "" || ev.Family == "" || ev.Market == "" {
		return Delta{}, fmt.Errorf("%w: missing bet_id/family/market", ErrInvalidEvent)
	}
	if ev.Ts.IsZero() {
		return Delta{}, fmt.Errorf("%w: missing ts", ErrInvalidEvent)
	}
	if ev.BidAmount.IsNegative() || ev.WinningAmount.IsNegative() {
		return Delta{}, fmt.Errorf("%w: negative amount", ErrInvalidEvent)
	}

	d := Delta{
		DateKey: settlement.DateKey(ev.Ts, loc),
		Family:  ev.Family,
		Market:  ev.Market,
		Staked:  ev.BidAmount,
		Payout:  decimal.Zero,
	}
	switch settlement.BetStatus(ev.Status) {
	case settlement.StatusWin:
		d.Won = 1
		d.Payout = ev.WinningAmount
	case settlement.StatusLose:
		d.Lost = 1
	default:
		return Delta{}, fmt.Errorf("%w: status %q", ErrInvalidEvent, ev.Status)
	}
	return d, nil
}

