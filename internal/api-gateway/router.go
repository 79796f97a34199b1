package gateway

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"go.uber.org/zap"
)

// Upstreams são as URLs base de cada serviço atrás do gateway
type Upstreams struct {
	Result string
	Wallet string
	Bet    string
	Notice string
}

func rp(log *zap.Logger, name, to string) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(to)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid %s upstream %q", name, to)
	}
	p := httputil.NewSingleHostReverseProxy(u)
	p.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Warn("upstream failed", zap.String("upstream", name), zap.String("path", r.URL.Path), zap.Error(err))
		w.WriteHeader(http.StatusBadGateway)
	}
	return p, nil
}

// NewHandler monta o roteamento /api/* -> serviços. Só o prefixo /api é removido,
// os serviços recebem o caminho a partir do próprio recurso.
func NewHandler(log *zap.Logger, up Upstreams) (http.Handler, error) {
	result, err := rp(log, "result", up.Result)
	if err != nil {
		return nil, err
	}
	wallet, err := rp(log, "wallet", up.Wallet)
	if err != nil {
		return nil, err
	}
	bet, err := rp(log, "bet", up.Bet)
	if err != nil {
		return nil, err
	}
	notice, err := rp(log, "notice", up.Notice)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()

	// resultados e liquidação (ex.: /api/v1/markets/main/kalyan/result -> result-service)
	mux.Handle("/api/v1/", http.StripPrefix("/api", result))

	// wallet (ex.: /api/wallet/users/9000 -> wallet-service)
	mux.Handle("/api/wallet/", http.StripPrefix("/api", wallet))

	// bid report
	mux.Handle("/api/bets", http.StripPrefix("/api", bet))
	mux.Handle("/api/bets/", http.StripPrefix("/api", bet))

	// aviso e WebSocket (o ReverseProxy repassa o upgrade)
	mux.Handle("/api/notice", http.StripPrefix("/api", notice))
	mux.Handle("/api/notice/", http.StripPrefix("/api", notice))
	mux.Handle("/api/ws", http.StripPrefix("/api", notice))

	return withCORS(mux), nil
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
