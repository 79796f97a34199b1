// Package memstore é uma implementação em memória do Store e do Ledger da
// liquidação, usada em testes e em execuções locais sem Postgres.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/matka-admin-platform/internal/settlement"
)

type Store struct {
	mu        sync.Mutex
	markets   map[settlement.Family]map[string]settlement.Market
	bets      map[string]settlement.Bet
	users     map[string]settlement.User
	snapshots map[string]map[string]string

	// FailCredit força erro no crédito de uma aposta (simula falha de escrita)
	FailCredit map[string]error
	// SnapshotErr força erro na gravação do snapshot
	SnapshotErr error
	// Now é o relógio usado em updated_at dos mercados (default time.Now)
	Now func() time.Time
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func New() *Store {
	return &Store{
		markets:    map[settlement.Family]map[string]settlement.Market{},
		bets:       map[string]settlement.Bet{},
		users:      map[string]settlement.User{},
		snapshots:  map[string]map[string]string{},
		FailCredit: map[string]error{},
	}
}

func (s *Store) PutMarket(m settlement.Market) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markets[m.Family] == nil {
		s.markets[m.Family] = map[string]settlement.Market{}
	}
	s.markets[m.Family][m.ID] = m
}

func (s *Store) PutBet(b settlement.Bet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.Status == "" {
		b.Status = settlement.StatusPending
	}
	s.bets[b.ID] = b
}

func (s *Store) PutUser(u settlement.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.Phone] = u
}

func (s *Store) Bet(id string) (settlement.Bet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bets[id]
	return b, ok
}

func (s *Store) User(phone string) (settlement.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[phone]
	return u, ok
}

func (s *Store) Snapshot(family settlement.Family, dateKey string) (map[string]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.snapshots[string(family)+"/"+dateKey]
	return r, ok
}

func (s *Store) Market(_ context.Context, family settlement.Family, id string) (settlement.Market, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.markets[family][id]
	if !ok {
		return settlement.Market{}, settlement.ErrMarketNotFound
	}
	return m, nil
}

func (s *Store) Markets(_ context.Context, family settlement.Family) ([]settlement.Market, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]settlement.Market, 0, len(s.markets[family]))
	for _, m := range s.markets[family] {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) SetMarketNumber(_ context.Context, family settlement.Family, id, number string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.markets[family][id]
	if !ok {
		return time.Time{}, settlement.ErrMarketNotFound
	}
	m.Number = number
	m.UpdatedAt = s.now()
	s.markets[family][id] = m
	return m.UpdatedAt, nil
}

func (s *Store) ClearNumbers(_ context.Context, family settlement.Family) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, m := range s.markets[family] {
		m.Number = ""
		m.UpdatedAt = s.now()
		s.markets[family][id] = m
		n++
	}
	return n, nil
}

func (s *Store) PendingBetsForMarket(_ context.Context, marketName string, placedBefore time.Time) ([]settlement.Bet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []settlement.Bet
	for _, b := range s.bets {
		if !placedBefore.IsZero() && b.CreatedAt.After(placedBefore) {
			continue
		}
		if b.SelectedButton == marketName && b.Status == settlement.StatusPending {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) MarkLost(_ context.Context, betID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bets[betID]
	if !ok || b.Status != settlement.StatusPending {
		return settlement.ErrBetNotPending
	}
	b.Status = settlement.StatusLose
	s.bets[betID] = b
	return nil
}

func (s *Store) OverwriteSnapshot(_ context.Context, family settlement.Family, dateKey string, results map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SnapshotErr != nil {
		return s.SnapshotErr
	}
	cp := make(map[string]string, len(results))
	for k, v := range results {
		cp[k] = v
	}
	s.snapshots[string(family)+"/"+dateKey] = cp
	return nil
}

// CreditWinning aplica saldo e status juntos, sob o mesmo lock
func (s *Store) CreditWinning(_ context.Context, phone, betID string, payout decimal.Decimal) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailCredit[betID]; err != nil {
		return decimal.Zero, err
	}
	u, ok := s.users[phone]
	if !ok {
		return decimal.Zero, settlement.ErrUserNotFound
	}
	b, ok := s.bets[betID]
	if !ok || b.Status != settlement.StatusPending {
		return decimal.Zero, settlement.ErrBetNotPending
	}
	u.Balance = u.Balance.Add(payout)
	u.UpdatedAt = time.Now()
	s.users[phone] = u

	p := payout
	b.Status = settlement.StatusWin
	b.WinningAmount = &p
	s.bets[betID] = b
	return u.Balance, nil
}
