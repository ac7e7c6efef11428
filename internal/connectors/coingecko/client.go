// Package coingecko - клиент CoinGecko для цен криптовалют.
// Бесплатный тариф даёт 10-30 запросов в минуту, поэтому ответы
// кешируются на 5 минут.
package coingecko

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/timzinin/zinin-corp/internal/connectors"
)

const (
	defaultBaseURL = "https://api.coingecko.com/api/v3"
	defaultTimeout = 30 * time.Second
	cacheTTL       = 5 * time.Minute
	providerName   = "coingecko"
)

// topCoins подставляется вместо псевдо-идентификатора "top".
const topCoins = "bitcoin,ethereum,solana,the-open-network"

// Config настраивает клиента CoinGecko.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Prices - цены монет: coin id -> валюта -> значение.
// Помимо цен там же лежат usd_24h_change и usd_market_cap.
type Prices map[string]map[string]float64

type cacheEntry struct {
	data Prices
	ts   time.Time
}

// Client ходит в CoinGecko и кеширует ответы.
type Client struct {
	cfg        Config
	httpClient *http.Client
	rec        connectors.Recorder
	logger     *zap.Logger

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// New создаёт клиента CoinGecko. rec может быть NopRecorder.
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
		cache:      make(map[string]cacheEntry),
	}
}

// SimplePrice возвращает цены coinIDs (через запятую) в валютах vsCurrencies.
// "top" разворачивается в BTC+ETH+SOL+TON.
func (c *Client) SimplePrice(ctx context.Context, coinIDs, vsCurrencies string) (Prices, error) {
	if strings.EqualFold(strings.TrimSpace(coinIDs), "top") {
		coinIDs = topCoins
	}
	coinIDs = strings.TrimSpace(coinIDs)
	if vsCurrencies == "" {
		vsCurrencies = "usd"
	}
	vsCurrencies = strings.TrimSpace(vsCurrencies)

	cacheKey := coinIDs + ":" + vsCurrencies
	c.mu.Lock()
	entry, ok := c.cache[cacheKey]
	c.mu.Unlock()
	if ok && time.Since(entry.ts) < cacheTTL {
		return entry.data, nil
	}

	params := url.Values{}
	params.Set("ids", coinIDs)
	params.Set("vs_currencies", vsCurrencies)
	params.Set("include_24hr_change", "true")
	params.Set("include_market_cap", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.BaseURL+"/simple/price?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("coingecko build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("x-cg-demo-key", c.cfg.APIKey)
	}

	var data Prices
	if err := connectors.GetJSON(c.httpClient, req, &data, c.rec, providerName); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[cacheKey] = cacheEntry{data: data, ts: time.Now()}
	c.mu.Unlock()
	return data, nil
}

// USDPrice возвращает цену одной монеты в долларах.
// Используется другими коннекторами для конвертации.
func (c *Client) USDPrice(ctx context.Context, coinID string) (float64, error) {
	data, err := c.SimplePrice(ctx, coinID, "usd")
	if err != nil {
		return 0, err
	}
	coin, ok := data[coinID]
	if !ok {
		return 0, fmt.Errorf("coingecko: no price for %q", coinID)
	}
	return coin["usd"], nil
}

// FormatPrices собирает текстовую сводку цен для чата.
func FormatPrices(data Prices) string {
	if len(data) == 0 {
		return "Нет данных по ценам."
	}

	ids := make([]string, 0, len(data))
	for id := range data {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	b.WriteString("CRYPTO PRICES:\n")
	for _, id := range ids {
		prices := data[id]
		name := coinTitle(id)

		mcap := ""
		if v, ok := prices["usd_market_cap"]; ok && v > 0 {
			switch {
			case v >= 1e9:
				mcap = fmt.Sprintf(" | MCap: $%.1fB", v/1e9)
			case v >= 1e6:
				mcap = fmt.Sprintf(" | MCap: $%.0fM", v/1e6)
			}
		}
		b.WriteString(fmt.Sprintf("  %s%s:\n", name, mcap))

		currencies := make([]string, 0, len(prices))
		for cur := range prices {
			if strings.HasSuffix(cur, "_24h_change") || strings.HasSuffix(cur, "_market_cap") {
				continue
			}
			currencies = append(currencies, cur)
		}
		sort.Strings(currencies)
		for _, cur := range currencies {
			line := fmt.Sprintf("  %s: %.2f", strings.ToUpper(cur), prices[cur])
			if change, ok := prices[cur+"_24h_change"]; ok {
				sign := ""
				if change >= 0 {
					sign = "+"
				}
				line += fmt.Sprintf(" (%s%.1f%%)", sign, change)
			}
			b.WriteString("  " + line + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func coinTitle(id string) string {
	words := strings.Split(id, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
