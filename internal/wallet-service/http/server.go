package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/radieske/matka-admin-platform/internal/settlement"
	"github.com/radieske/matka-admin-platform/internal/shared/metrics"
	"github.com/radieske/matka-admin-platform/internal/wallet-service/dto"
	"github.com/radieske/matka-admin-platform/internal/wallet-service/repo"
)

// Repo define as operações de saldo usadas pelo handler HTTP
type Repo interface {
	GetUser(ctx context.Context, phone string) (settlement.User, error)
	Ledger(ctx context.Context, phone string, limit int) ([]repo.LedgerEntry, error)
	AdjustBalance(ctx context.Context, a repo.Adjustment) (repo.Mutation, error)
	ListRequests(ctx context.Context, kind repo.RequestKind, status string, limit int) ([]repo.Request, error)
	ApproveRequest(ctx context.Context, kind repo.RequestKind, id string) (repo.Mutation, error)
	RejectRequest(ctx context.Context, kind repo.RequestKind, id string) error
}

var validate = validator.New()

// Server expõe endpoints HTTP de saldo, aprovações e edição manual
type Server struct {
	log     *zap.Logger
	repo    Repo
	metrics *metrics.Wallet
}

func NewServer(log *zap.Logger, repo Repo, m *metrics.Wallet) *Server {
	return &Server{log: log, repo: repo, metrics: m}
}

// Router retorna o roteador com as rotas da API de wallet
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/wallet/users/{phone}", s.getBalance)
	r.Get("/wallet/users/{phone}/ledger", s.getLedger)
	r.Post("/wallet/users/{phone}/balance", s.adjustBalance)

	r.Get("/wallet/{kind}", s.listRequests) // deposits | withdrawals
	r.Post("/wallet/{kind}/{id}/approve", s.approve)
	r.Post("/wallet/{kind}/{id}/reject", s.reject)
	return r
}

func (s *Server) getBalance(w http.ResponseWriter, r *http.Request) {
	u, err := s.repo.GetUser(r.Context(), chi.URLParam(r, "phone"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.BalanceResponse{Phone: u.Phone, Name: u.Name, Balance: u.Balance})
}

func (s *Server) getLedger(w http.ResponseWriter, r *http.Request) {
	entries, err := s.repo.Ledger(r.Context(), chi.URLParam(r, "phone"), limitParam(r, 50))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// adjustBalance aplica add | deduct | set com motivo obrigatório
func (s *Server) adjustBalance(w http.ResponseWriter, r *http.Request) {
	var req dto.AdjustBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	mut, err := s.repo.AdjustBalance(r.Context(), repo.Adjustment{
		UserPhone:     chi.URLParam(r, "phone"),
		Mode:          repo.AdjustMode(req.Mode),
		Amount:        req.Amount,
		Reason:        req.Reason,
		AllowNegative: req.AllowNegative,
	})
	s.metrics.Observe("admin_"+req.Mode, err)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.log.Info("balance adjusted",
		zap.String("user_phone", mut.UserPhone), zap.String("operation", mut.Operation),
		zap.String("before", mut.BalanceBefore.String()), zap.String("after", mut.BalanceAfter.String()),
		zap.String("reason", req.Reason))
	writeJSON(w, http.StatusOK, mut)
}

func (s *Server) listRequests(w http.ResponseWriter, r *http.Request) {
	kind, ok := requestKind(chi.URLParam(r, "kind"))
	if !ok {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "unknown request kind"})
		return
	}
	reqs, err := s.repo.ListRequests(r.Context(), kind, r.URL.Query().Get("status"), limitParam(r, 100))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

func (s *Server) approve(w http.ResponseWriter, r *http.Request) {
	kind, ok := requestKind(chi.URLParam(r, "kind"))
	if !ok {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "unknown request kind"})
		return
	}
	id := chi.URLParam(r, "id")
	mut, err := s.repo.ApproveRequest(r.Context(), kind, id)
	s.metrics.Observe(string(kind)+"_approve", err)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.log.Info("request approved",
		zap.String("kind", string(kind)), zap.String("request_id", id),
		zap.String("user_phone", mut.UserPhone), zap.String("amount", mut.Amount.String()))
	writeJSON(w, http.StatusOK, mut)
}

func (s *Server) reject(w http.ResponseWriter, r *http.Request) {
	kind, ok := requestKind(chi.URLParam(r, "kind"))
	if !ok {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "unknown request kind"})
		return
	}
	id := chi.URLParam(r, "id")
	err := s.repo.RejectRequest(r.Context(), kind, id)
	s.metrics.Observe(string(kind)+"_reject", err)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "Rejected"})
}

// fail traduz erros de domínio em status HTTP
func (s *Server) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, repo.ErrUserNotFound), errors.Is(err, repo.ErrRequestNotFound):
		status = http.StatusNotFound
	case errors.Is(err, repo.ErrRequestNotPending):
		status = http.StatusConflict
	case errors.Is(err, repo.ErrInsufficientFunds), errors.Is(err, repo.ErrInvalidAdjustment):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		s.log.Error("wallet request failed", zap.Error(err))
	}
	writeJSON(w, status, dto.ErrorResponse{Error: err.Error()})
}

func requestKind(s string) (repo.RequestKind, bool) {
	switch s {
	case "deposits":
		return repo.Deposit, true
	case "withdrawals":
		return repo.Withdrawal, true
	}
	return "", false
}

func limitParam(r *http.Request, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 || n > 500 {
		return def
	}
	return n
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
