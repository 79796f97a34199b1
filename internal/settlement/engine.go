package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/matka-admin-platform/pkg/contracts/events"
)

// Store é a visão do banco de resultados usada pela liquidação
type Store interface {
	Market(ctx context.Context, family Family, id string) (Market, error)
	Markets(ctx context.Context, family Family) ([]Market, error)
	// SetMarketNumber devolve o instante gravado em updated_at (relógio do banco)
	SetMarketNumber(ctx context.Context, family Family, id, number string) (time.Time, error)
	ClearNumbers(ctx context.Context, family Family) (int, error)
	// PendingBetsForMarket só devolve apostas criadas até placedBefore (zero = sem corte)
	PendingBetsForMarket(ctx context.Context, marketName string, placedBefore time.Time) ([]Bet, error)
	// MarkLost só altera apostas ainda Pending; caso contrário ErrBetNotPending
	MarkLost(ctx context.Context, betID string) error
	OverwriteSnapshot(ctx context.Context, family Family, dateKey string, results map[string]string) error
}

// Ledger aplica o crédito do prêmio e o status Win numa única transação
type Ledger interface {
	CreditWinning(ctx context.Context, userPhone, betID string, payout decimal.Decimal) (newBalance decimal.Decimal, err error)
}

// Locker serializa passadas de liquidação do mesmo mercado
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

type Publisher interface {
	PublishResultPublished(ctx context.Context, e events.ResultPublished) error
	PublishBetSettled(ctx context.Context, e events.BetSettled) error
	PublishSettlementFailed(ctx context.Context, e events.SettlementFailed) error
}

// Engine executa a liquidação das apostas de um mercado.
// Locker e Publisher são opcionais; callbacks servem para métricas.
type Engine struct {
	Log       *zap.Logger
	Store     Store
	Ledger    Ledger
	Locker    Locker
	Publisher Publisher

	Policy   SessionPolicy
	Location *time.Location
	LockTTL  time.Duration
	Now      func() time.Time

	OnBetSettled func(family Family, outcome Outcome)
	OnPass       func(family Family, result string)
}

// BetReport descreve o que aconteceu com uma aposta na passada
type BetReport struct {
	BetID     string          `json:"betId"`
	UserPhone string          `json:"userPhone"`
	GameType  GameType        `json:"gameType"`
	Outcome   Outcome         `json:"outcome"`
	Payout    decimal.Decimal `json:"payout"`
	Reason    string          `json:"reason,omitempty"`
}

// Report resume uma passada de liquidação
type Report struct {
	Family      Family          `json:"family"`
	Market      string          `json:"market"`
	Result      string          `json:"result"`
	Parsed      bool            `json:"parsed"`
	ParseError  string          `json:"parseError,omitempty"`
	Won         int             `json:"won"`
	Lost        int             `json:"lost"`
	Skipped     int             `json:"skipped"`
	Failed      int             `json:"failed"`
	TotalPayout decimal.Decimal `json:"totalPayout"`
	Bets        []BetReport     `json:"bets"`
}

func (r *Report) add(b BetReport) {
	switch b.Outcome {
	case OutcomeWin:
		r.Won++
		r.TotalPayout = r.TotalPayout.Add(b.Payout)
	case OutcomeLose:
		r.Lost++
	case OutcomeSkip:
		r.Skipped++
	case OutcomeFailed:
		r.Failed++
	}
	r.Bets = append(r.Bets, b)
}

// PublishReport é o retorno do comando publishResult
type PublishReport struct {
	MarketID   string   `json:"marketId"`
	Settlement Report   `json:"settlement"`
	Snapshot   Snapshot `json:"snapshot"`
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) log() *zap.Logger {
	if e.Log == nil {
		return zap.NewNop()
	}
	return e.Log
}

// PublishResult grava o novo número do mercado, liquida as apostas pendentes
// e reescreve o snapshot diário da família.
func (e *Engine) PublishResult(ctx context.Context, family Family, marketID, number string) (PublishReport, error) {
	out := PublishReport{MarketID: marketID}
	if _, err := ParserFor(family); err != nil {
		return out, err
	}

	release, err := e.lock(ctx, family, marketID)
	if err != nil {
		return out, err
	}
	defer func() {
		if rerr := release(context.Background()); rerr != nil {
			e.log().Warn("settlement lock release", zap.String("market_id", marketID), zap.Error(rerr))
		}
	}()

	m, err := e.Store.Market(ctx, family, marketID)
	if err != nil {
		return out, err
	}
	publishedAt, err := e.Store.SetMarketNumber(ctx, family, marketID, number)
	if err != nil {
		return out, fmt.Errorf("set market number: %w", err)
	}
	m.Number, m.UpdatedAt = number, publishedAt
	e.log().Info("result published",
		zap.String("family", string(family)), zap.String("market", m.Name), zap.String("number", number))

	rep, err := e.Settle(ctx, family, m)
	out.Settlement = rep
	if err != nil {
		return out, err
	}

	snap, err := e.WriteSnapshot(ctx, family)
	out.Snapshot = snap
	if err != nil {
		// a liquidação já foi efetivada; o snapshot pode ser regravado depois
		e.log().Error("daily snapshot write", zap.String("family", string(family)), zap.Error(err))
	}

	if e.Publisher != nil {
		ev := events.ResultPublished{
			Family:   string(family),
			MarketID: marketID,
			Market:   m.Name,
			Number:   number,
			Parsed:   rep.Parsed,
			Won:      rep.Won,
			Lost:     rep.Lost,
			Skipped:  rep.Skipped,
			Failed:   rep.Failed,
			DateKey:  snap.DateKey,
			Ts:       e.now(),
		}
		if perr := e.Publisher.PublishResultPublished(ctx, ev); perr != nil {
			e.log().Warn("publish result_published", zap.Error(perr))
		}
	}
	return out, nil
}

// Settle avalia as apostas Pending do mercado contra o número atual. Apostas
// criadas depois de m.UpdatedAt (publicação do número) ficam de fora.
// Uma vez iniciada, a passada não é cancelada pelo contexto do chamador.
func (e *Engine) Settle(ctx context.Context, family Family, m Market) (Report, error) {
	ctx = context.WithoutCancel(ctx)
	rep := Report{Family: family, Market: m.Name, Result: m.Number, TotalPayout: decimal.Zero}
	log := e.log().With(zap.String("family", string(family)), zap.String("market", m.Name))

	parser, err := ParserFor(family)
	if err != nil {
		return rep, err
	}
	res, err := parser.Parse(m.Number)
	if err != nil {
		rep.ParseError = err.Error()
		log.Warn("settlement skipped", zap.String("result", m.Number), zap.Error(err))
		e.pass(family, "unparseable")
		return rep, nil
	}
	rep.Parsed = true

	bets, err := e.Store.PendingBetsForMarket(ctx, m.Name, m.UpdatedAt)
	if err != nil {
		e.pass(family, "error")
		return rep, fmt.Errorf("fetch pending bets: %w", err)
	}
	if len(bets) == 0 {
		log.Info("no pending bets")
	}

	// sequencial: várias apostas podem mexer no saldo do mesmo usuário
	for _, b := range bets {
		br := e.settleOne(ctx, log, res, b)
		rep.add(br)
		if e.OnBetSettled != nil {
			e.OnBetSettled(family, br.Outcome)
		}
	}

	log.Info("settlement pass completed",
		zap.Int("won", rep.Won), zap.Int("lost", rep.Lost),
		zap.Int("skipped", rep.Skipped), zap.Int("failed", rep.Failed),
		zap.String("total_payout", rep.TotalPayout.String()))
	e.pass(family, "ok")
	return rep, nil
}

func (e *Engine) settleOne(ctx context.Context, log *zap.Logger, res Result, b Bet) BetReport {
	br := BetReport{BetID: b.ID, UserPhone: b.UserPhone, GameType: b.GameType, Payout: decimal.Zero}
	blog := log.With(zap.String("bet_id", b.ID), zap.String("game_type", string(b.GameType)))

	// sem chave não há como gravar o resultado; o resto dos defeitos perde
	if b.ID == "" || b.UserPhone == "" {
		br.Outcome, br.Reason = OutcomeSkip, "bet without id or user"
		blog.Warn("bet skipped", zap.String("reason", br.Reason))
		return br
	}
	var d Decision
	if err := b.Validate(); err != nil {
		d = Decision{Outcome: OutcomeLose, Reason: "invalid bet: " + err.Error()}
	} else {
		d = Evaluate(res, b, e.Policy)
	}
	switch d.Outcome {
	case OutcomeSkip:
		br.Outcome, br.Reason = OutcomeSkip, d.Reason
		blog.Debug("bet skipped", zap.String("reason", d.Reason))
		return br

	case OutcomeWin:
		bal, err := e.Ledger.CreditWinning(ctx, b.UserPhone, b.ID, d.Payout)
		if err != nil {
			return e.failed(ctx, blog, res, b, d.Payout, err)
		}
		br.Outcome, br.Payout = OutcomeWin, d.Payout
		blog.Info("bet won", zap.String("payout", d.Payout.String()), zap.String("new_balance", bal.String()))

	case OutcomeLose:
		if err := e.Store.MarkLost(ctx, b.ID); err != nil {
			return e.failed(ctx, blog, res, b, decimal.Zero, err)
		}
		br.Outcome, br.Reason = OutcomeLose, d.Reason
		if d.Reason != "" {
			blog.Warn("bet lost without evaluation", zap.String("reason", d.Reason))
		} else {
			blog.Debug("bet lost")
		}
	}

	if e.Publisher != nil {
		ev := events.BetSettled{
			BetID:         b.ID,
			UserPhone:     b.UserPhone,
			Family:        string(res.Family),
			Market:        b.SelectedButton,
			GameType:      string(b.GameType),
			Session:       string(b.SessionStatus),
			Result:        res.Raw,
			Status:        string(statusFor(br.Outcome)),
			BidAmount:     b.BidAmount,
			WinningAmount: br.Payout,
			Ts:            e.now(),
		}
		if err := e.Publisher.PublishBetSettled(ctx, ev); err != nil {
			blog.Warn("publish bet_settled", zap.Error(err))
		}
	}
	return br
}

// failed trata erros de escrita: a aposta fica Pending e vai para conferência manual
func (e *Engine) failed(ctx context.Context, log *zap.Logger, res Result, b Bet, payout decimal.Decimal, err error) BetReport {
	br := BetReport{BetID: b.ID, UserPhone: b.UserPhone, GameType: b.GameType, Payout: decimal.Zero}
	if errors.Is(err, ErrBetNotPending) {
		// outra passada resolveu a aposta primeiro
		br.Outcome, br.Reason = OutcomeSkip, "already settled"
		log.Info("bet already settled")
		return br
	}

	br.Outcome, br.Reason = OutcomeFailed, err.Error()
	log.Error("bet settlement failed, left pending for manual follow-up",
		zap.String("user_phone", b.UserPhone), zap.String("payout", payout.String()), zap.Error(err))

	if e.Publisher != nil {
		ev := events.SettlementFailed{
			BetID:     b.ID,
			UserPhone: b.UserPhone,
			Family:    string(res.Family),
			Market:    b.SelectedButton,
			Result:    res.Raw,
			Payout:    payout,
			Error:     err.Error(),
			Ts:        e.now(),
		}
		if perr := e.Publisher.PublishSettlementFailed(ctx, ev); perr != nil {
			log.Warn("publish bet_settlement_failed", zap.Error(perr))
		}
	}
	return br
}

// Resettle roda de novo a liquidação com o número já gravado no mercado.
// Usado na varredura periódica e no reprocessamento manual.
func (e *Engine) Resettle(ctx context.Context, family Family, marketID string) (Report, error) {
	release, err := e.lock(ctx, family, marketID)
	if err != nil {
		return Report{}, err
	}
	defer func() {
		if rerr := release(context.Background()); rerr != nil {
			e.log().Warn("settlement lock release", zap.String("market_id", marketID), zap.Error(rerr))
		}
	}()

	m, err := e.Store.Market(ctx, family, marketID)
	if err != nil {
		return Report{}, err
	}
	return e.Settle(ctx, family, m)
}

// ClearNumbers zera o número de todos os mercados da família
func (e *Engine) ClearNumbers(ctx context.Context, family Family) (int, error) {
	if _, err := ParserFor(family); err != nil {
		return 0, err
	}
	n, err := e.Store.ClearNumbers(ctx, family)
	if err != nil {
		return 0, fmt.Errorf("clear numbers: %w", err)
	}
	e.log().Info("market numbers cleared", zap.String("family", string(family)), zap.Int("markets", n))
	return n, nil
}

func (e *Engine) lock(ctx context.Context, family Family, marketID string) (func(context.Context) error, error) {
	if e.Locker == nil {
		return func(context.Context) error { return nil }, nil
	}
	ttl := e.LockTTL
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return e.Locker.Acquire(ctx, "settlement:lock:"+string(family)+":"+marketID, ttl)
}

func (e *Engine) pass(family Family, result string) {
	if e.OnPass != nil {
		e.OnPass(family, result)
	}
}

func statusFor(o Outcome) BetStatus {
	switch o {
	case OutcomeWin:
		return StatusWin
	case OutcomeLose:
		return StatusLose
	}
	return StatusPending
}
