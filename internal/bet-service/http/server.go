package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/radieske/matka-admin-platform/internal/bet-service/dto"
	"github.com/radieske/matka-admin-platform/internal/bet-service/repo"
	"github.com/radieske/matka-admin-platform/internal/settlement"
)

type Repo interface {
	List(ctx context.Context, f repo.Filter, p repo.Page) ([]settlement.Bet, error)
	Summary(ctx context.Context, f repo.Filter) (repo.Summary, error)
	Get(ctx context.Context, id string) (settlement.Bet, error)
}

var validate = validator.New()

// Server expõe o relatório de apostas (somente leitura)
type Server struct {
	log      *zap.Logger
	repo     Repo
	location *time.Location
}

func NewServer(log *zap.Logger, r Repo, loc *time.Location) *Server {
	if loc == nil {
		loc = time.UTC
	}
	return &Server{log: log, repo: r, location: loc}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/bets", s.report)
	r.Get("/bets/{id}", s.getBet)
	r.Get("/bets/{id}/status", s.getBetStatus)
	return r
}

func parseQuery(r *http.Request) dto.ReportQuery {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("pageSize"))
	if page == 0 {
		page = 1
	}
	if size == 0 {
		size = 50
	}
	return dto.ReportQuery{
		Status:   q.Get("status"),
		Market:   q.Get("market"),
		GameType: q.Get("gameType"),
		User:     q.Get("user"),
		Date:     q.Get("date"),
		Page:     page,
		PageSize: size,
	}
}

// report lista apostas filtradas e paginadas, com totais do filtro
func (s *Server) report(w http.ResponseWriter, r *http.Request) {
	q := parseQuery(r)
	if err := validate.Struct(q); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	f := repo.Filter{Status: q.Status, Market: q.Market, GameType: q.GameType, UserPhone: q.User}
	if q.Date != "" {
		// dia no fuso de resultados
		day, _ := time.ParseInLocation(settlement.DateKeyLayout, q.Date, s.location)
		f.From, f.To = day, day.AddDate(0, 0, 1)
	}

	bets, err := s.repo.List(r.Context(), f, repo.Page{Number: q.Page, Size: q.PageSize})
	if err != nil {
		s.fail(w, err)
		return
	}
	sum, err := s.repo.Summary(r.Context(), f)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ReportResponse{Bets: bets, Page: q.Page, PageSize: q.PageSize, Summary: sum})
}

func (s *Server) getBet(w http.ResponseWriter, r *http.Request) {
	b, err := s.repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) getBetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b, err := s.repo.Get(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.BetStatusResponse{BetID: id, Status: b.Status})
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, repo.ErrBetNotFound) {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
		return
	}
	s.log.Error("bet report query", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
