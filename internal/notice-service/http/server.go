package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/radieske/matka-admin-platform/internal/notice-service/dto"
	"github.com/radieske/matka-admin-platform/internal/notice-service/pubsub"
	"github.com/radieske/matka-admin-platform/internal/notice-service/repo"
)

type Repo interface {
	Put(ctx context.Context, n repo.Notice) (repo.Notice, error)
	Current(ctx context.Context) (repo.Notice, error)
	SetActive(ctx context.Context, active bool) (repo.Notice, error)
}

// Broadcaster entrega o aviso aos clientes conectados (Redis Pub/Sub em produção)
type Broadcaster interface {
	Publish(ctx context.Context, topic string, payload any) error
}

var validate = validator.New()

type Server struct {
	log   *zap.Logger
	repo  Repo
	bcast Broadcaster
	ws    http.HandlerFunc
}

func NewServer(log *zap.Logger, repo Repo, bcast Broadcaster, ws http.HandlerFunc) *Server {
	return &Server{log: log, repo: repo, bcast: bcast, ws: ws}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/notice", s.current)
	r.Post("/notice", s.publish)
	r.Post("/notice/active", s.toggle)
	if s.ws != nil {
		r.Get("/ws", s.ws)
	}
	return r
}

func (s *Server) current(w http.ResponseWriter, r *http.Request) {
	n, err := s.repo.Current(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) publish(w http.ResponseWriter, r *http.Request) {
	var req dto.PublishNoticeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	n, err := s.repo.Put(r.Context(), repo.Notice{Message: req.Message, SentBy: req.SentBy, Active: true})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.broadcast(r.Context(), n)
	s.log.Info("notice published", zap.String("sent_by", n.SentBy), zap.Int("length", len(n.Message)))
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) toggle(w http.ResponseWriter, r *http.Request) {
	var req dto.ToggleNoticeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	n, err := s.repo.SetActive(r.Context(), *req.Active)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.broadcast(r.Context(), n)
	writeJSON(w, http.StatusOK, n)
}

// broadcast é best-effort: o aviso já está gravado e será lido no próximo GET
func (s *Server) broadcast(ctx context.Context, n repo.Notice) {
	if s.bcast == nil {
		return
	}
	if err := s.bcast.Publish(ctx, pubsub.TopicNotice, n); err != nil {
		s.log.Warn("notice broadcast failed", zap.Error(err))
	}
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, repo.ErrNoNotice) {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
		return
	}
	s.log.Error("notice request failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
