package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/timzinin/zinin-corp/internal/connectors/coingecko"
	"github.com/timzinin/zinin-corp/internal/connectors/forex"
	"github.com/timzinin/zinin-corp/internal/connectors/tonapi"
)

func testCoinsServer(t *testing.T) *coingecko.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"bitcoin": {"usd": 50000, "usd_24h_change": 1.2, "usd_market_cap": 1000000000000},
			"the-open-network": {"usd": 2.0}
		}`))
	}))
	t.Cleanup(srv.Close)
	return coingecko.New(coingecko.Config{BaseURL: srv.URL, Timeout: time.Second}, nil, zap.NewNop())
}

func testForexServer(t *testing.T, body string) *forex.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return forex.New(forex.Config{BaseURL: srv.URL, Timeout: time.Second}, nil, zap.NewNop())
}

func testTONServer(t *testing.T) *tonapi.Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/accounts/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/jettons") {
			w.Write([]byte(`{"balances": []}`))
			return
		}
		w.Write([]byte(`{"balance": 12000000000, "status": "active"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return tonapi.New(tonapi.Config{APIKey: "key", BaseURL: srv.URL, Timeout: time.Second}, nil, zap.NewNop())
}

const goodRates = `{
	"result": "success",
	"rates": {"USD": 1, "RUB": 90, "EUR": 0.9},
	"time_last_update_utc": "Tue, 20 Jan 2026 00:02:31 +0000"
}`

func TestPortfolioReport(t *testing.T) {
	p := &Portfolio{
		Coins:   testCoinsServer(t),
		Forex:   testForexServer(t, goodRates),
		TON:     testTONServer(t),
		Wallets: []string{"UQDkWallet1111x8Pnq"},
		Logger:  zap.NewNop(),
	}

	report, err := p.Report(context.Background())
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	for _, want := range []string{
		"CRYPTO PRICES:",
		"Bitcoin",
		"КУРСЫ ВАЛЮТ (к USD):",
		"RUB: 1 USD = 90.0000 RUB",
		"TON PORTFOLIO",
		"TON: 12.0000 ($24.00)",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("Report() missing %q in:\n%s", want, report)
		}
	}
}

func TestPortfolioReportPartialFailure(t *testing.T) {
	p := &Portfolio{
		Coins:   testCoinsServer(t),
		Forex:   testForexServer(t, `{"result": "error"}`),
		TON:     testTONServer(t),
		Wallets: []string{"UQDkWallet1111x8Pnq"},
		Logger:  zap.NewNop(),
	}

	report, err := p.Report(context.Background())
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if !strings.Contains(report, "Курсы валют недоступны.") {
		t.Errorf("Report() should note the failed source:\n%s", report)
	}
	if !strings.Contains(report, "CRYPTO PRICES:") {
		t.Errorf("Report() should keep working sources:\n%s", report)
	}
}

func TestPortfolioReportNoWallets(t *testing.T) {
	p := &Portfolio{
		Coins:  testCoinsServer(t),
		Forex:  testForexServer(t, goodRates),
		Logger: zap.NewNop(),
	}

	report, err := p.Report(context.Background())
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if !strings.Contains(report, "TON-кошельки не настроены.") {
		t.Errorf("Report() = %q, want wallets note", report)
	}
}

func TestPortfolioBalances(t *testing.T) {
	p := &Portfolio{
		Forex:   testForexServer(t, goodRates),
		TON:     testTONServer(t),
		Wallets: []string{"UQDkWallet1111x8Pnq"},
		Logger:  zap.NewNop(),
	}

	text, err := p.Balances(context.Background())
	if err != nil {
		t.Fatalf("Balances() error = %v", err)
	}
	if !strings.Contains(text, "UQDk...8Pnq: 12.0000 TON") {
		t.Errorf("Balances() missing wallet line:\n%s", text)
	}
	if !strings.Contains(text, "RUB: 1 USD = 90.0000 RUB") {
		t.Errorf("Balances() missing forex rates:\n%s", text)
	}
}
