package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/radieske/matka-admin-platform/internal/result-service/dto"
	"github.com/radieske/matka-admin-platform/internal/result-service/repo"
	"github.com/radieske/matka-admin-platform/internal/settlement"
)

// Engine é o subconjunto do motor de liquidação exposto via HTTP
type Engine interface {
	PublishResult(ctx context.Context, family settlement.Family, marketID, number string) (settlement.PublishReport, error)
	Resettle(ctx context.Context, family settlement.Family, marketID string) (settlement.Report, error)
	ClearNumbers(ctx context.Context, family settlement.Family) (int, error)
	WriteSnapshot(ctx context.Context, family settlement.Family) (settlement.Snapshot, error)
}

type ReadRepo interface {
	Markets(ctx context.Context, family settlement.Family) ([]settlement.Market, error)
	DailyResults(ctx context.Context, family settlement.Family, dateKey string) (map[string]string, error)
	DailyStats(ctx context.Context, family settlement.Family, dateKey string) ([]repo.DailyStat, error)
}

type ResultsCache interface {
	Get(ctx context.Context, family settlement.Family, dateKey string) (map[string]string, bool, error)
	Set(ctx context.Context, family settlement.Family, dateKey string, results map[string]string) error
	Invalidate(ctx context.Context, family settlement.Family, dateKey string) error
}

var validate = validator.New()

// API expõe publicação de resultados, listagem de mercados e quadros diários.
// Cache é opcional.
type API struct {
	Log      *zap.Logger
	Engine   Engine
	ReadRepo ReadRepo
	Cache    ResultsCache
	Location *time.Location
	Now      func() time.Time
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/markets/{family}", a.listMarkets)
	r.Post("/v1/markets/{family}/clear", a.clearNumbers)
	r.Post("/v1/markets/{family}/{id}/result", a.publishResult)
	r.Post("/v1/markets/{family}/{id}/settle", a.resettle)

	r.Post("/v1/results/{family}/snapshot", a.writeSnapshot)
	r.Get("/v1/results/{family}/{date}", a.dailyResults) // dd-MM-yyyy ou "today"
	r.Get("/v1/reports/{family}/{date}", a.dailyStats)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *API) now() time.Time {
	t := time.Now()
	if a.Now != nil {
		t = a.Now()
	}
	if a.Location != nil {
		t = t.In(a.Location)
	}
	return t
}

func (a *API) family(w http.ResponseWriter, r *http.Request) (settlement.Family, bool) {
	f, ok := settlement.ParseFamily(chi.URLParam(r, "family"))
	if !ok {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: settlement.ErrUnknownFamily.Error()})
	}
	return f, ok
}

func (a *API) listMarkets(w http.ResponseWriter, r *http.Request) {
	fam, ok := a.family(w, r)
	if !ok {
		return
	}
	markets, err := a.ReadRepo.Markets(r.Context(), fam)
	if err != nil {
		a.fail(w, err)
		return
	}
	now := a.now()
	out := make([]dto.MarketView, 0, len(markets))
	for _, m := range markets {
		out = append(out, dto.MarketView{Market: m, IsOpen: m.IsOpen(now)})
	}
	writeJSON(w, http.StatusOK, out)
}

// publishResult grava o número e dispara a liquidação do mercado
func (a *API) publishResult(w http.ResponseWriter, r *http.Request) {
	fam, ok := a.family(w, r)
	if !ok {
		return
	}
	var req dto.PublishResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	rep, err := a.Engine.PublishResult(r.Context(), fam, chi.URLParam(r, "id"), req.Number)
	if err != nil {
		a.fail(w, err)
		return
	}
	if a.Cache != nil && rep.Snapshot.Written {
		if err := a.Cache.Invalidate(r.Context(), fam, rep.Snapshot.DateKey); err != nil {
			a.Log.Warn("results cache invalidate", zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, rep)
}

func (a *API) resettle(w http.ResponseWriter, r *http.Request) {
	fam, ok := a.family(w, r)
	if !ok {
		return
	}
	rep, err := a.Engine.Resettle(r.Context(), fam, chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (a *API) clearNumbers(w http.ResponseWriter, r *http.Request) {
	fam, ok := a.family(w, r)
	if !ok {
		return
	}
	n, err := a.Engine.ClearNumbers(r.Context(), fam)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ClearResponse{Family: fam, Cleared: n})
}

func (a *API) writeSnapshot(w http.ResponseWriter, r *http.Request) {
	fam, ok := a.family(w, r)
	if !ok {
		return
	}
	snap, err := a.Engine.WriteSnapshot(r.Context(), fam)
	if err != nil {
		a.fail(w, err)
		return
	}
	if a.Cache != nil && snap.Written {
		_ = a.Cache.Invalidate(r.Context(), fam, snap.DateKey)
	}
	writeJSON(w, http.StatusOK, snap)
}

// dateParam resolve "today" no fuso dos resultados e valida dd-MM-yyyy
func (a *API) dateParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	dateKey := chi.URLParam(r, "date")
	if dateKey == "today" {
		return settlement.DateKey(a.now(), a.Location), true
	}
	if _, err := time.Parse(settlement.DateKeyLayout, dateKey); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "date must be dd-MM-yyyy"})
		return "", false
	}
	return dateKey, true
}

// dailyResults lê o quadro do dia, preferencialmente do cache
func (a *API) dailyResults(w http.ResponseWriter, r *http.Request) {
	fam, ok := a.family(w, r)
	if !ok {
		return
	}
	dateKey, ok := a.dateParam(w, r)
	if !ok {
		return
	}

	if a.Cache != nil {
		if res, hit, err := a.Cache.Get(r.Context(), fam, dateKey); err == nil && hit {
			writeJSON(w, http.StatusOK, dto.DailyResultsResponse{Family: fam, DateKey: dateKey, Results: res, Cached: true})
			return
		}
	}

	res, err := a.ReadRepo.DailyResults(r.Context(), fam, dateKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "no results for date"})
			return
		}
		a.fail(w, err)
		return
	}
	if a.Cache != nil {
		_ = a.Cache.Set(r.Context(), fam, dateKey, res)
	}
	writeJSON(w, http.StatusOK, dto.DailyResultsResponse{Family: fam, DateKey: dateKey, Results: res})
}

// dailyStats devolve apostas ganhas/perdidas e valores por mercado no dia
func (a *API) dailyStats(w http.ResponseWriter, r *http.Request) {
	fam, ok := a.family(w, r)
	if !ok {
		return
	}
	dateKey, ok := a.dateParam(w, r)
	if !ok {
		return
	}
	stats, err := a.ReadRepo.DailyStats(r.Context(), fam, dateKey)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.DailyStatsResponse{Family: fam, DateKey: dateKey, Markets: stats})
}

func (a *API) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, settlement.ErrMarketNotFound), errors.Is(err, settlement.ErrUnknownFamily):
		status = http.StatusNotFound
	case errors.Is(err, settlement.ErrSettlementInProgress):
		status = http.StatusLocked
	case errors.Is(err, settlement.ErrUnparseable):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		a.Log.Error("result-service request failed", zap.Error(err))
	}
	writeJSON(w, status, dto.ErrorResponse{Error: err.Error()})
}
