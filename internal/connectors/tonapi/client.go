// Package tonapi - клиент tonapi.io для балансов и истории TON-кошельков.
package tonapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/timzinin/zinin-corp/internal/connectors"
)

const (
	defaultBaseURL = "https://tonapi.io/v2"
	defaultTimeout = 30 * time.Second
	providerName   = "tonapi"

	nanotonsPerTON = 1e9
	maxEventsLimit = 50
)

// Config настраивает клиента TonAPI.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Account - состояние кошелька.
type Account struct {
	Balance int64  `json:"balance"` // нанотоны
	Status  string `json:"status"`
}

// TON возвращает баланс в тонах.
func (a Account) TON() float64 {
	return float64(a.Balance) / nanotonsPerTON
}

// JettonBalance - баланс одного жетона на кошельке.
type JettonBalance struct {
	Balance string `json:"balance"` // целое в минимальных единицах
	Jetton  struct {
		Symbol   string `json:"symbol"`
		Decimals int    `json:"decimals"`
	} `json:"jetton"`
	Price struct {
		Prices map[string]float64 `json:"prices"`
	} `json:"price"`
}

// Amount возвращает баланс с учётом decimals.
func (j JettonBalance) Amount() float64 {
	raw, err := strconv.ParseFloat(j.Balance, 64)
	if err != nil {
		return 0
	}
	decimals := j.Jetton.Decimals
	if decimals == 0 {
		decimals = 9
	}
	div := 1.0
	for i := 0; i < decimals; i++ {
		div *= 10
	}
	return raw / div
}

// USDValue возвращает стоимость позиции в долларах, 0 если цены нет.
func (j JettonBalance) USDValue() float64 {
	return j.Amount() * j.Price.Prices["USD"]
}

type jettonsResponse struct {
	Balances []JettonBalance `json:"balances"`
}

// Event - одно событие из Actions API.
type Event struct {
	Timestamp int64    `json:"timestamp"`
	Actions   []Action `json:"actions"`
}

// Action - действие внутри события.
type Action struct {
	Type          string `json:"type"`
	Status        string `json:"status"`
	SimplePreview struct {
		Description string `json:"description"`
	} `json:"simple_preview"`
	TonTransfer *struct {
		Amount    int64  `json:"amount"`
		Comment   string `json:"comment"`
		Sender    party  `json:"sender"`
		Recipient party  `json:"recipient"`
	} `json:"TonTransfer"`
	JettonTransfer *struct {
		Amount    string `json:"amount"`
		Recipient party  `json:"recipient"`
		Jetton    struct {
			Symbol   string `json:"symbol"`
			Decimals int    `json:"decimals"`
		} `json:"jetton"`
	} `json:"JettonTransfer"`
}

type party struct {
	Address string `json:"address"`
}

type eventsResponse struct {
	Events []Event `json:"events"`
}

// Client ходит в TonAPI с Bearer-авторизацией.
type Client struct {
	cfg        Config
	httpClient *http.Client
	rec        connectors.Recorder
	logger     *zap.Logger
}

// New создаёт клиента TonAPI. rec может быть NopRecorder.
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

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.cfg.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("tonapi build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	return connectors.GetJSON(c.httpClient, req, out, c.rec, providerName)
}

// Account возвращает баланс и статус кошелька.
func (c *Client) Account(ctx context.Context, address string) (Account, error) {
	var acc Account
	if err := c.get(ctx, "/accounts/"+url.PathEscape(address), nil, &acc); err != nil {
		return Account{}, err
	}
	return acc, nil
}

// Jettons возвращает жетоны кошелька с ценами в USD.
func (c *Client) Jettons(ctx context.Context, address string) ([]JettonBalance, error) {
	query := url.Values{}
	query.Set("currencies", "usd")
	var resp jettonsResponse
	if err := c.get(ctx, "/accounts/"+url.PathEscape(address)+"/jettons", query, &resp); err != nil {
		return nil, err
	}
	return resp.Balances, nil
}

// Events возвращает историю событий кошелька, limit не больше 50.
func (c *Client) Events(ctx context.Context, address string, limit int) ([]Event, error) {
	if limit <= 0 || limit > maxEventsLimit {
		limit = maxEventsLimit
	}
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	var resp eventsResponse
	if err := c.get(ctx, "/accounts/"+url.PathEscape(address)+"/events", query, &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}
