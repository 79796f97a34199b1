package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/matka-admin-platform/internal/settlement"
)

type stubSource struct {
	markets []settlement.Market
	cutoff  time.Time
}

func (s *stubSource) StrandedMarkets(_ context.Context, olderThan time.Time) ([]settlement.Market, error) {
	s.cutoff = olderThan
	return s.markets, nil
}

type stubSettler struct {
	errs  map[string]error
	calls []string
}

func (s *stubSettler) Resettle(_ context.Context, _ settlement.Family, id string) (settlement.Report, error) {
	s.calls = append(s.calls, id)
	return settlement.Report{Won: 1}, s.errs[id]
}

func TestRunOnceContinuesPastFailures(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	src := &stubSource{markets: []settlement.Market{
		{ID: "a", Family: settlement.FamilyMain, Name: "A"},
		{ID: "b", Family: settlement.FamilyMain, Name: "B"},
		{ID: "c", Family: settlement.FamilyGali, Name: "C"},
	}}
	st := &stubSettler{errs: map[string]error{
		"a": errors.New("db down"),
		"b": settlement.ErrSettlementInProgress,
	}}

	var gotMarkets, gotFailed int
	r := &Reconciler{
		Log: zap.NewNop(), Source: src, Settler: st, Grace: 5 * time.Minute,
		Now:   func() time.Time { return now },
		OnRun: func(m, f int) { gotMarkets, gotFailed = m, f },
	}
	if err := r.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(st.calls) != 3 {
		t.Errorf("calls = %v", st.calls)
	}
	if gotMarkets != 3 || gotFailed != 1 {
		t.Errorf("markets=%d failed=%d", gotMarkets, gotFailed)
	}
	if !src.cutoff.Equal(now.Add(-5 * time.Minute)) {
		t.Errorf("cutoff = %s", src.cutoff)
	}
}

func TestStartRejectsBadSpec(t *testing.T) {
	r := &Reconciler{Log: zap.NewNop()}
	if err := r.Start(context.Background(), "every now and then"); err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
}
