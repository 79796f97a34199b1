package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/matka-admin-platform/internal/settlement-report/aggregate"
	"github.com/radieske/matka-admin-platform/internal/shared/kafka"
	"github.com/radieske/matka-admin-platform/pkg/contracts/events"
)

type Repo interface {
	Apply(ctx context.Context, betID string, d aggregate.Delta) (bool, error)
}

// Processor consome bet_settled e mantém o agregado diário por mercado.
// Mensagens inválidas vão para a DLQ; o offset só avança após gravar.
type Processor struct {
	Log      *zap.Logger
	Reader   kafka.Stream
	Repo     Repo
	DLQ      kafka.MessageWriter
	Location *time.Location

	MaxAttempts int           // tentativas de gravação antes da DLQ (default 5)
	Backoff     time.Duration // default 500ms

	OnConsumed  func()       // métricas (counter++)
	OnApplied   func()       // métricas
	OnDuplicate func()       // métricas
	OnError     func(string) // métricas por fase
}

// Run inicia o loop principal de consumo
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := kafka.FetchNext(ctx, p.Reader)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka fetch failed", zap.Error(err))
			p.errored("read")
			if !p.sleep(ctx) {
				return ctx.Err()
			}
			continue
		}
		if p.OnConsumed != nil {
			p.OnConsumed()
		}

		if err := p.handle(ctx, m); err != nil {
			// contexto cancelado no meio: não commita, a mensagem volta no próximo start
			return err
		}
		if err := kafka.Commit(ctx, p.Reader, m); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka commit failed", zap.Error(err), zap.Int64("offset", m.Offset))
			p.errored("commit")
		}
	}
}

// handle só retorna erro quando o contexto é cancelado
func (p *Processor) handle(ctx context.Context, m kafka.Message) error {
	var ev events.BetSettled
	if err := json.Unmarshal(m.Value, &ev); err != nil {
		p.errored("decode")
		return p.deadLetter(ctx, m, fmt.Errorf("decode: %w", err))
	}
	d, err := aggregate.FromEvent(ev, p.Location)
	if err != nil {
		p.errored("validate")
		return p.deadLetter(ctx, m, err)
	}

	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 5
	}
	for i := 1; ; i++ {
		applied, err := p.Repo.Apply(ctx, ev.BetID, d)
		if err == nil {
			if applied {
				if p.OnApplied != nil {
					p.OnApplied()
				}
			} else {
				p.Log.Debug("bet already aggregated", zap.String("bet_id", ev.BetID))
				if p.OnDuplicate != nil {
					p.OnDuplicate()
				}
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.Log.Warn("daily stats write failed",
			zap.String("bet_id", ev.BetID), zap.Int("attempt", i), zap.Error(err))
		p.errored("db")
		if i >= attempts {
			return p.deadLetter(ctx, m, err)
		}
		if !p.sleep(ctx) {
			return ctx.Err()
		}
	}
}

func (p *Processor) deadLetter(ctx context.Context, m kafka.Message, reason error) error {
	if p.DLQ == nil {
		p.Log.Error("dropping message without dlq", zap.Error(reason), zap.Int64("offset", m.Offset))
		return nil
	}
	if err := kafka.DeadLetter(ctx, p.DLQ, m, reason); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.Log.Error("dlq write failed", zap.Error(err), zap.NamedError("reason", reason))
		p.errored("dlq")
		return nil
	}
	p.Log.Warn("message sent to dlq", zap.Error(reason), zap.Int64("offset", m.Offset))
	return nil
}

func (p *Processor) errored(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}

func (p *Processor) sleep(ctx context.Context) bool {
	d := p.Backoff
	if d <= 0 {
		d = 500 * time.Millisecond
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
