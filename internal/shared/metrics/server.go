package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HealthFunc func(ctx context.Context) error

// StartMetricsServer sobe um servidor HTTP leve só pra /metrics e /healthz.
// Todas as checagens de health precisam passar.
func StartMetricsServer(port string, checks ...HealthFunc) *http.Server {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", healthHandler(checks))

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		_ = srv.ListenAndServe()
	}()

	return srv
}

func healthHandler(checks []HealthFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()

		for _, fn := range checks {
			if err := fn(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(fmt.Sprintf("unhealthy: %v", err)))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

// Settlement agrupa os contadores do result-service
type Settlement struct {
	Bets   *prometheus.CounterVec
	Passes *prometheus.CounterVec
}

func NewSettlement(reg prometheus.Registerer) *Settlement {
	m := &Settlement{
		Bets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "settlement_bets_total",
			Help: "apostas avaliadas por família e resultado",
		}, []string{"family", "outcome"}),
		Passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "settlement_passes_total",
			Help: "passadas de liquidação por família e resultado",
		}, []string{"family", "result"}),
	}
	reg.MustRegister(m.Bets, m.Passes)
	return m
}

// Wallet conta mutações de saldo por operação
type Wallet struct {
	Mutations *prometheus.CounterVec
}

func NewWallet(reg prometheus.Registerer) *Wallet {
	m := &Wallet{
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_mutations_total",
			Help: "mutações de saldo por operação e resultado",
		}, []string{"operation", "result"}),
	}
	reg.MustRegister(m.Mutations)
	return m
}

// Observe registra ok/error para a operação
func (w *Wallet) Observe(op string, err error) {
	if w == nil {
		return
	}
	res := "ok"
	if err != nil {
		res = "error"
	}
	w.Mutations.WithLabelValues(op, res).Inc()
}
