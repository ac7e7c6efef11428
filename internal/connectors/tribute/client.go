package tribute

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/timzinin/zinin-corp/internal/connectors"
)

const (
	defaultBaseURL = "https://tribute.tg/api/v1"
	defaultTimeout = 30 * time.Second
	providerName   = "tribute"
)

// Config настраивает REST-клиента Tribute.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Product - продукт монетизации: подписка, цифровой или физический товар.
type Product struct {
	Name     string  `json:"name"`
	Title    string  `json:"title"`
	Amount   float64 `json:"amount"` // минорные единицы при значении больше 100
	Currency string  `json:"currency"`
	Type     string  `json:"type"`
	Status   string  `json:"status"`
	WebLink  string  `json:"webLink"`
}

// DisplayName возвращает name либо title, что заполнено.
func (p Product) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	if p.Title != "" {
		return p.Title
	}
	return "Unnamed"
}

// Price переводит amount в основные единицы. Tribute отдаёт копейки
// и центы, суммы до 100 считаются уже основными.
func (p Product) Price() float64 {
	if p.Amount > 100 {
		return p.Amount / 100
	}
	return p.Amount
}

// productsResponse покрывает оба формата ответа: голый массив
// и объект с полем rows.
type productsResponse struct {
	products []Product
}

func (r *productsResponse) UnmarshalJSON(data []byte) error {
	var list []Product
	if err := json.Unmarshal(data, &list); err == nil {
		r.products = list
		return nil
	}
	var wrapped struct {
		Rows     []Product `json:"rows"`
		Items    []Product `json:"items"`
		Products []Product `json:"products"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	switch {
	case wrapped.Rows != nil:
		r.products = wrapped.Rows
	case wrapped.Items != nil:
		r.products = wrapped.Items
	default:
		r.products = wrapped.Products
	}
	return nil
}

// Client ходит в REST API Tribute с авторизацией через Api-Key.
type Client struct {
	cfg        Config
	httpClient *http.Client
	rec        connectors.Recorder
	logger     *zap.Logger
}

// NewClient создаёт REST-клиента Tribute. rec может быть NopRecorder.
func NewClient(cfg Config, rec connectors.Recorder, logger *zap.Logger) *Client {
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

// Products возвращает список продуктов монетизации.
func (c *Client) Products(ctx context.Context) ([]Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/products", nil)
	if err != nil {
		return nil, fmt.Errorf("tribute build request: %w", err)
	}
	req.Header.Set("Api-Key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	var resp productsResponse
	if err := connectors.GetJSON(c.httpClient, req, &resp, c.rec, providerName); err != nil {
		return nil, err
	}
	return resp.products, nil
}

// FormatProducts собирает список продуктов для чата.
func FormatProducts(products []Product) string {
	if len(products) == 0 {
		return "Продуктов на Tribute не найдено."
	}
	var b strings.Builder
	b.WriteString("TRIBUTE PRODUCTS:\n")
	for _, p := range products {
		currency := strings.ToUpper(p.Currency)
		if currency == "" {
			currency = "USD"
		}
		line := fmt.Sprintf("  - %s: %.2f %s (%s) [%s]",
			p.DisplayName(), p.Price(), currency, orUnknown(p.Type), orUnknown(p.Status))
		if p.WebLink != "" {
			line += " " + p.WebLink
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
