package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/matka-admin-platform/internal/settlement"
	"github.com/radieske/matka-admin-platform/internal/wallet-service/repo"
)

type fakeRepo struct {
	users    map[string]settlement.User
	requests map[string]repo.Request
	adjusted []repo.Adjustment
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users: map[string]settlement.User{
			"9000": {Phone: "9000", Name: "Ravi", Balance: decimal.NewFromInt(100)},
		},
		requests: map[string]repo.Request{
			"w1": {ID: "w1", Kind: repo.Withdrawal, UserPhone: "9000", Amount: decimal.NewFromInt(500), Status: "Pending"},
			"d1": {ID: "d1", Kind: repo.Deposit, UserPhone: "9000", Amount: decimal.NewFromInt(50), Status: "Pending"},
			"d2": {ID: "d2", Kind: repo.Deposit, UserPhone: "9000", Amount: decimal.NewFromInt(50), Status: "Approved"},
		},
	}
}

func (f *fakeRepo) GetUser(_ context.Context, phone string) (settlement.User, error) {
	u, ok := f.users[phone]
	if !ok {
		return u, repo.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeRepo) Ledger(context.Context, string, int) ([]repo.LedgerEntry, error) {
	return []repo.LedgerEntry{}, nil
}

func (f *fakeRepo) AdjustBalance(_ context.Context, a repo.Adjustment) (repo.Mutation, error) {
	u, ok := f.users[a.UserPhone]
	if !ok {
		return repo.Mutation{}, repo.ErrUserNotFound
	}
	after, op, err := repo.NextBalance(u.Balance, a)
	if err != nil {
		return repo.Mutation{}, err
	}
	f.adjusted = append(f.adjusted, a)
	before := u.Balance
	u.Balance = after
	f.users[a.UserPhone] = u
	return repo.Mutation{UserPhone: u.Phone, Operation: op, Amount: a.Amount, BalanceBefore: before, BalanceAfter: after}, nil
}

func (f *fakeRepo) ListRequests(_ context.Context, kind repo.RequestKind, status string, _ int) ([]repo.Request, error) {
	var out []repo.Request
	for _, r := range f.requests {
		if r.Kind == kind && (status == "" || r.Status == status) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) ApproveRequest(_ context.Context, kind repo.RequestKind, id string) (repo.Mutation, error) {
	r, ok := f.requests[id]
	if !ok || r.Kind != kind {
		return repo.Mutation{}, repo.ErrRequestNotFound
	}
	if r.Status != "Pending" {
		return repo.Mutation{}, repo.ErrRequestNotPending
	}
	u := f.users[r.UserPhone]
	before := u.Balance
	if kind == repo.Withdrawal {
		if before.LessThan(r.Amount) {
			return repo.Mutation{}, repo.ErrInsufficientFunds
		}
		u.Balance = before.Sub(r.Amount)
	} else {
		u.Balance = before.Add(r.Amount)
	}
	f.users[r.UserPhone] = u
	r.Status = "Approved"
	f.requests[id] = r
	return repo.Mutation{UserPhone: u.Phone, Amount: r.Amount, BalanceBefore: before, BalanceAfter: u.Balance}, nil
}

func (f *fakeRepo) RejectRequest(_ context.Context, kind repo.RequestKind, id string) error {
	r, ok := f.requests[id]
	if !ok || r.Kind != kind {
		return repo.ErrRequestNotFound
	}
	if r.Status != "Pending" {
		return repo.ErrRequestNotPending
	}
	r.Status = "Rejected"
	f.requests[id] = r
	return nil
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestWalletRoutes(t *testing.T) {
	f := newFakeRepo()
	h := NewServer(zap.NewNop(), f, nil).Router()

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"balance", http.MethodGet, "/wallet/users/9000", "", http.StatusOK},
		{"unknown user", http.MethodGet, "/wallet/users/1234", "", http.StatusNotFound},
		{"adjust missing reason", http.MethodPost, "/wallet/users/9000/balance", `{"mode":"add","amount":"10"}`, http.StatusBadRequest},
		{"adjust bad mode", http.MethodPost, "/wallet/users/9000/balance", `{"mode":"double","amount":"10","reason":"x"}`, http.StatusBadRequest},
		{"adjust deduct too much", http.MethodPost, "/wallet/users/9000/balance", `{"mode":"deduct","amount":"1000","reason":"chargeback"}`, http.StatusUnprocessableEntity},
		{"adjust add", http.MethodPost, "/wallet/users/9000/balance", `{"mode":"add","amount":"10","reason":"bonus"}`, http.StatusOK},
		{"withdrawal insufficient", http.MethodPost, "/wallet/withdrawals/w1/approve", "", http.StatusUnprocessableEntity},
		{"deposit approve", http.MethodPost, "/wallet/deposits/d1/approve", "", http.StatusOK},
		{"deposit approve twice", http.MethodPost, "/wallet/deposits/d1/approve", "", http.StatusConflict},
		{"deposit already approved reject", http.MethodPost, "/wallet/deposits/d2/reject", "", http.StatusConflict},
		{"withdrawal reject", http.MethodPost, "/wallet/withdrawals/w1/reject", "", http.StatusOK},
		{"unknown kind", http.MethodGet, "/wallet/bonuses", "", http.StatusNotFound},
		{"list deposits", http.MethodGet, "/wallet/deposits?status=Approved", "", http.StatusOK},
	}
	for _, c := range cases {
		rec := do(t, h, c.method, c.path, c.body)
		if rec.Code != c.want {
			t.Errorf("%s: status = %d, want %d (%s)", c.name, rec.Code, c.want, rec.Body.String())
		}
	}

	// 100 + 10 (bonus) + 50 (depósito d1)
	if got := f.users["9000"].Balance; !got.Equal(decimal.NewFromInt(160)) {
		t.Errorf("final balance = %s, want 160", got)
	}
	if f.requests["w1"].Status != "Rejected" {
		t.Errorf("w1 status = %s", f.requests["w1"].Status)
	}
}

func TestGetBalanceBody(t *testing.T) {
	h := NewServer(zap.NewNop(), newFakeRepo(), nil).Router()
	rec := do(t, h, http.MethodGet, "/wallet/users/9000", "")

	var body struct {
		Phone   string          `json:"phone"`
		Balance decimal.Decimal `json:"balance"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Phone != "9000" || !body.Balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("body = %+v", body)
	}
}
