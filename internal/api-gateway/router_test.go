package gateway

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

// echo responde "<nome> <path>" para conferir o destino e o caminho repassado
func echo(name string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, name+" "+r.URL.Path)
	}))
}

func TestRoutesToUpstreams(t *testing.T) {
	result, wallet, bet, notice := echo("result"), echo("wallet"), echo("bet"), echo("notice")
	defer result.Close()
	defer wallet.Close()
	defer bet.Close()
	defer notice.Close()

	h, err := NewHandler(zap.NewNop(), Upstreams{
		Result: result.URL, Wallet: wallet.URL, Bet: bet.URL, Notice: notice.URL,
	})
	if err != nil {
		t.Fatal(err)
	}
	gw := httptest.NewServer(h)
	defer gw.Close()

	cases := []struct {
		path string
		want string
	}{
		{"/api/v1/markets/main/kalyan/result", "result /v1/markets/main/kalyan/result"},
		{"/api/v1/results/starline/today", "result /v1/results/starline/today"},
		{"/api/wallet/users/9000", "wallet /wallet/users/9000"},
		{"/api/bets", "bet /bets"},
		{"/api/bets/b1/status", "bet /bets/b1/status"},
		{"/api/notice", "notice /notice"},
	}
	for _, c := range cases {
		res, err := http.Get(gw.URL + c.path)
		if err != nil {
			t.Fatalf("%s: %v", c.path, err)
		}
		body, _ := io.ReadAll(res.Body)
		res.Body.Close()
		if string(body) != c.want {
			t.Errorf("%s -> %q, want %q", c.path, body, c.want)
		}
		if res.Header.Get("Access-Control-Allow-Origin") != "*" {
			t.Errorf("%s: missing CORS header", c.path)
		}
	}

	res, err := http.Get(gw.URL + "/api/unknown/1")
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Errorf("unknown route status = %d", res.StatusCode)
	}
}

func TestPreflightAndBadUpstream(t *testing.T) {
	h, err := NewHandler(zap.NewNop(), Upstreams{
		Result: "http://127.0.0.1:1", Wallet: "http://127.0.0.1:1", Bet: "http://127.0.0.1:1", Notice: "http://127.0.0.1:1",
	})
	if err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/wallet/deposits", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/wallet/deposits", nil))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("dead upstream status = %d", rec.Code)
	}

	if _, err := NewHandler(zap.NewNop(), Upstreams{Result: "::bad"}); err == nil {
		t.Fatal("expected invalid upstream error")
	}
}
