package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	defaultTelegramAPI    = "https://api.telegram.org"
	defaultNotifyTimeout  = 10 * time.Second
	notifyResponseSnippet = 200
)

// NotifierConfig настраивает отправку уведомлений владельцу.
type NotifierConfig struct {
	Token   string
	ChatID  int64
	BaseURL string
	Timeout time.Duration
}

// Notifier шлёт сообщения владельцу напрямую через Bot API. Монитору не
// нужен поллинг-бот, достаточно одного POST на sendMessage.
type Notifier struct {
	cfg        NotifierConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewNotifier готовит клиента. Токен и chat_id проверяет вызывающий.
func NewNotifier(cfg NotifierConfig, logger *zap.Logger) *Notifier {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultTelegramAPI
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultNotifyTimeout
	}
	return &Notifier{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

type sendMessageRequest struct {
	ChatID    int64  `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// Notify отправляет HTML-сообщение в чат владельца.
func (n *Notifier) Notify(ctx context.Context, text string) error {
	payload, err := json.Marshal(sendMessageRequest{
		ChatID:    n.cfg.ChatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	url := n.cfg.BaseURL + "/bot" + n.cfg.Token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, notifyResponseSnippet))
		return fmt.Errorf("telegram notify status %d: %s", resp.StatusCode, snippet)
	}
	return nil
}
