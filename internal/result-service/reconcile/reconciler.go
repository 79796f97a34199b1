package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/radieske/matka-admin-platform/internal/settlement"
)

// Source lista mercados publicados que ainda têm apostas Pending
type Source interface {
	StrandedMarkets(ctx context.Context, olderThan time.Time) ([]settlement.Market, error)
}

type Settler interface {
	Resettle(ctx context.Context, family settlement.Family, marketID string) (settlement.Report, error)
}

// Reconciler varre periodicamente mercados com apostas esquecidas em Pending
// (falhas de escrita ou passadas interrompidas) e roda a liquidação de novo.
type Reconciler struct {
	Log     *zap.Logger
	Source  Source
	Settler Settler
	// apostas mais novas que isso ficam para a passada normal
	Grace time.Duration
	Now   func() time.Time

	OnRun func(markets, failed int)
}

// RunOnce executa uma varredura; erros por mercado não interrompem as demais
func (r *Reconciler) RunOnce(ctx context.Context) error {
	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}
	markets, err := r.Source.StrandedMarkets(ctx, now.Add(-r.Grace))
	if err != nil {
		return err
	}

	failed := 0
	for _, m := range markets {
		rep, err := r.Settler.Resettle(ctx, m.Family, m.ID)
		switch {
		case errors.Is(err, settlement.ErrSettlementInProgress):
			r.Log.Debug("reconcile skipped, market locked", zap.String("market", m.Name))
		case err != nil:
			failed++
			r.Log.Error("reconcile market", zap.String("family", string(m.Family)), zap.String("market", m.Name), zap.Error(err))
		case rep.Won+rep.Lost+rep.Failed > 0:
			r.Log.Info("reconciled stranded bets",
				zap.String("family", string(m.Family)), zap.String("market", m.Name),
				zap.Int("won", rep.Won), zap.Int("lost", rep.Lost), zap.Int("failed", rep.Failed))
		}
	}
	if r.OnRun != nil {
		r.OnRun(len(markets), failed)
	}
	return nil
}

// Start agenda RunOnce na expressão cron e para quando ctx for cancelado
func (r *Reconciler) Start(ctx context.Context, spec string) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if err := r.RunOnce(ctx); err != nil {
			r.Log.Warn("reconcile run", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	c.Start()
	r.Log.Info("reconciler scheduled", zap.String("cron", spec))

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
