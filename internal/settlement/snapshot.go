package settlement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DateKeyLayout é o formato dd-MM-yyyy usado como chave do snapshot diário
const DateKeyLayout = "02-01-2006"

// Snapshot é o quadro name -> number gravado para o dia
type Snapshot struct {
	Family  Family            `json:"family"`
	DateKey string            `json:"dateKey"`
	Results map[string]string `json:"results"`
	Written bool              `json:"written"`
}

// BuildBoard monta o quadro com os mercados publicados.
// Mercado sem nome entra com o ID.
func BuildBoard(markets []Market) map[string]string {
	board := make(map[string]string, len(markets))
	for _, m := range markets {
		if !m.Published() {
			continue
		}
		name := strings.TrimSpace(m.Name)
		if name == "" {
			name = m.ID
		}
		board[name] = m.Number
	}
	return board
}

// DateKey formata o instante no fuso de resultados
func DateKey(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(DateKeyLayout)
}

// WriteSnapshot sobrescreve o snapshot do dia com todos os mercados publicados
// da família. Quadro vazio não é gravado.
func (e *Engine) WriteSnapshot(ctx context.Context, family Family) (Snapshot, error) {
	snap := Snapshot{Family: family, DateKey: DateKey(e.now(), e.Location)}

	markets, err := e.Store.Markets(ctx, family)
	if err != nil {
		return snap, fmt.Errorf("list markets: %w", err)
	}
	snap.Results = BuildBoard(markets)
	if len(snap.Results) == 0 {
		e.log().Warn("daily snapshot empty, nothing written",
			zap.String("family", string(family)), zap.String("date_key", snap.DateKey))
		return snap, nil
	}

	if err := e.Store.OverwriteSnapshot(ctx, family, snap.DateKey, snap.Results); err != nil {
		return snap, fmt.Errorf("overwrite snapshot: %w", err)
	}
	snap.Written = true
	e.log().Info("daily snapshot written",
		zap.String("family", string(family)), zap.String("date_key", snap.DateKey),
		zap.Int("markets", len(snap.Results)))
	return snap, nil
}
