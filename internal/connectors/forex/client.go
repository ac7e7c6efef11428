// Package forex - курсы валют через open.er-api.com.
// API бесплатный, без ключа, обновляется раз в сутки,
// поэтому кешируем на час.
package forex

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/timzinin/zinin-corp/internal/connectors"
)

const (
	defaultBaseURL = "https://open.er-api.com/v6"
	defaultTimeout = 10 * time.Second
	cacheTTL       = time.Hour
	providerName   = "forex"
)

// CorpCurrencies - валюты, за которыми следит корпорация.
var CorpCurrencies = []string{"RUB", "GEL", "TRY", "THB", "EUR", "GBP", "BTC"}

// Rates - курсы относительно базовой валюты плюс метка обновления.
type Rates struct {
	Base    string
	Rates   map[string]float64
	Updated string
}

type ratesResponse struct {
	Result            string             `json:"result"`
	Rates             map[string]float64 `json:"rates"`
	TimeLastUpdateUTC string             `json:"time_last_update_utc"`
}

// Config настраивает клиента курсов валют.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client ходит за курсами и кеширует их на час.
type Client struct {
	cfg        Config
	httpClient *http.Client
	rec        connectors.Recorder
	logger     *zap.Logger

	mu      sync.Mutex
	cached  Rates
	cacheTS time.Time
}

// New создаёт клиента курсов валют. rec может быть NopRecorder.
func New(cfg Config, rec connectors.Recorder, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if rec == nil {
		rec = connectors.NopRecorder{}
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		rec:        rec,
		logger:     logger,
	}
}

// Rates возвращает курсы относительно base (обычно USD).
func (c *Client) Rates(ctx context.Context, base string) (Rates, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	if base == "" {
		base = "USD"
	}

	c.mu.Lock()
	if c.cached.Base == base && time.Since(c.cacheTS) < cacheTTL {
		cached := c.cached
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.BaseURL+"/latest/"+base, nil)
	if err != nil {
		return Rates{}, fmt.Errorf("forex build request: %w", err)
	}

	var resp ratesResponse
	if err := connectors.GetJSON(c.httpClient, req, &resp, c.rec, providerName); err != nil {
		return Rates{}, err
	}
	if resp.Result != "success" {
		return Rates{}, fmt.Errorf("forex: api result %q", resp.Result)
	}

	rates := Rates{Base: base, Rates: resp.Rates, Updated: resp.TimeLastUpdateUTC}
	c.mu.Lock()
	c.cached = rates
	c.cacheTS = time.Now()
	c.mu.Unlock()
	return rates, nil
}

// Convert переводит сумму из одной валюты в другую через USD.
func (c *Client) Convert(ctx context.Context, amount float64, from, to string) (float64, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == to {
		return amount, nil
	}

	data, err := c.Rates(ctx, "USD")
	if err != nil {
		return 0, err
	}

	if _, ok := data.Rates[from]; !ok && from != "USD" {
		return 0, fmt.Errorf("forex: unknown currency %q", from)
	}
	if _, ok := data.Rates[to]; !ok && to != "USD" {
		return 0, fmt.Errorf("forex: unknown currency %q", to)
	}

	usd := amount
	if from != "USD" {
		usd = amount / data.Rates[from]
	}
	if to == "USD" {
		return usd, nil
	}
	return usd * data.Rates[to], nil
}

// FormatRates собирает сводку корпоративных валют к USD.
func FormatRates(data Rates) string {
	var b strings.Builder
	b.WriteString("КУРСЫ ВАЛЮТ (к USD):\n")
	b.WriteString("Обновлено: " + data.Updated + "\n")
	for _, cur := range CorpCurrencies {
		rate, ok := data.Rates[cur]
		if !ok || rate == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("  %s: 1 USD = %.4f %s  |  1 %s = %.6f USD\n",
			cur, rate, cur, cur, 1/rate))
	}
	return strings.TrimRight(b.String(), "\n")
}
