package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	segkafka "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/matka-admin-platform/internal/settlement-report/aggregate"
	"github.com/radieske/matka-admin-platform/pkg/contracts/events"
)

// fakeStream entrega as mensagens em ordem e cancela o contexto ao esgotar
type fakeStream struct {
	msgs      []segkafka.Message
	next      int
	committed []int64
	cancel    context.CancelFunc
}

func (s *fakeStream) FetchMessage(ctx context.Context) (segkafka.Message, error) {
	if s.next >= len(s.msgs) {
		s.cancel()
		return segkafka.Message{}, ctx.Err()
	}
	m := s.msgs[s.next]
	s.next++
	return m, nil
}

func (s *fakeStream) CommitMessages(_ context.Context, msgs ...segkafka.Message) error {
	for _, m := range msgs {
		s.committed = append(s.committed, m.Offset)
	}
	return nil
}

type fakeRepo struct {
	seen     map[string]bool
	failures int // falhas antes de aceitar
	calls    int
	applied  []aggregate.Delta
}

func (r *fakeRepo) Apply(_ context.Context, betID string, d aggregate.Delta) (bool, error) {
	r.calls++
	if r.failures > 0 {
		r.failures--
		return false, errors.New("db down")
	}
	if r.seen[betID] {
		return false, nil
	}
	r.seen[betID] = true
	r.applied = append(r.applied, d)
	return true, nil
}

type fakeDLQ struct {
	msgs []segkafka.Message
}

func (d *fakeDLQ) WriteMessages(_ context.Context, msgs ...segkafka.Message) error {
	d.msgs = append(d.msgs, msgs...)
	return nil
}

func settled(t *testing.T, offset int64, betID, status string) segkafka.Message {
	t.Helper()
	b, err := json.Marshal(events.BetSettled{
		BetID: betID, Family: "main", Market: "Kalyan", Status: status,
		BidAmount: decimal.NewFromInt(10), WinningAmount: decimal.NewFromInt(95),
		Ts: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatal(err)
	}
	return segkafka.Message{Topic: "bet_settled", Offset: offset, Key: []byte(betID), Value: b}
}

func run(t *testing.T, p *Processor, stream *fakeStream) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream.cancel = cancel
	p.Reader = stream
	if err := p.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("run err = %v", err)
	}
}

func TestProcessorAggregatesOncePerBet(t *testing.T) {
	repo := &fakeRepo{seen: map[string]bool{}}
	dlq := &fakeDLQ{}
	var consumed, applied, dup int
	p := &Processor{
		Log: zap.NewNop(), Repo: repo, DLQ: dlq, Location: time.UTC,
		OnConsumed:  func() { consumed++ },
		OnApplied:   func() { applied++ },
		OnDuplicate: func() { dup++ },
	}
	stream := &fakeStream{msgs: []segkafka.Message{
		settled(t, 1, "b1", "Win"),
		settled(t, 2, "b2", "Lose"),
		settled(t, 3, "b1", "Win"), // reentrega
	}}
	run(t, p, stream)

	if consumed != 3 || applied != 2 || dup != 1 {
		t.Fatalf("consumed=%d applied=%d dup=%d", consumed, applied, dup)
	}
	if len(stream.committed) != 3 {
		t.Fatalf("committed = %v", stream.committed)
	}
	if len(dlq.msgs) != 0 {
		t.Fatalf("unexpected dlq messages: %d", len(dlq.msgs))
	}
	if repo.applied[0].Won != 1 || !repo.applied[0].Payout.Equal(decimal.NewFromInt(95)) {
		t.Fatalf("win delta = %+v", repo.applied[0])
	}
	if repo.applied[1].Lost != 1 || !repo.applied[1].Payout.IsZero() {
		t.Fatalf("lose delta = %+v", repo.applied[1])
	}
}

func TestProcessorSendsPoisonToDLQ(t *testing.T) {
	repo := &fakeRepo{seen: map[string]bool{}}
	dlq := &fakeDLQ{}
	stages := map[string]int{}
	p := &Processor{
		Log: zap.NewNop(), Repo: repo, DLQ: dlq, Location: time.UTC,
		OnError: func(s string) { stages[s]++ },
	}
	stream := &fakeStream{msgs: []segkafka.Message{
		{Topic: "bet_settled", Offset: 1, Value: []byte("{not json")},
		settled(t, 2, "b1", "Pending"),
		settled(t, 3, "b2", "Win"),
	}}
	run(t, p, stream)

	if len(dlq.msgs) != 2 || stages["decode"] != 1 || stages["validate"] != 1 {
		t.Fatalf("dlq=%d stages=%v", len(dlq.msgs), stages)
	}
	var reason string
	for _, h := range dlq.msgs[0].Headers {
		if h.Key == "dlq-reason" {
			reason = string(h.Value)
		}
	}
	if reason == "" {
		t.Fatal("dlq message without reason header")
	}
	if len(repo.applied) != 1 || len(stream.committed) != 3 {
		t.Fatalf("applied=%d committed=%v", len(repo.applied), stream.committed)
	}
}

func TestProcessorRetriesThenDeadLetters(t *testing.T) {
	dlq := &fakeDLQ{}

	// falha transitória: a segunda tentativa grava
	repo := &fakeRepo{seen: map[string]bool{}, failures: 1}
	p := &Processor{Log: zap.NewNop(), Repo: repo, DLQ: dlq, Location: time.UTC, Backoff: time.Millisecond}
	run(t, p, &fakeStream{msgs: []segkafka.Message{settled(t, 1, "b1", "Win")}})
	if repo.calls != 2 || len(repo.applied) != 1 || len(dlq.msgs) != 0 {
		t.Fatalf("calls=%d applied=%d dlq=%d", repo.calls, len(repo.applied), len(dlq.msgs))
	}

	// falha persistente: esgota as tentativas e vai para a DLQ
	repo = &fakeRepo{seen: map[string]bool{}, failures: 100}
	p = &Processor{Log: zap.NewNop(), Repo: repo, DLQ: dlq, Location: time.UTC, Backoff: time.Millisecond, MaxAttempts: 3}
	stream := &fakeStream{msgs: []segkafka.Message{settled(t, 1, "b1", "Win")}}
	run(t, p, stream)
	if repo.calls != 3 || len(dlq.msgs) != 1 || len(stream.committed) != 1 {
		t.Fatalf("calls=%d dlq=%d committed=%v", repo.calls, len(dlq.msgs), stream.committed)
	}
}
