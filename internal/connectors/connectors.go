// Package connectors - общий код клиентов внешних финансовых API.
// Конкретные клиенты живут в подпакетах coingecko, forex, tonapi, tribute.
package connectors

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Recorder получает факт вызова внешнего API. Реализуется ratemonitor,
// клиенты зовут его после каждого запроса.
type Recorder interface {
	Record(provider, agent string, success bool, statusCode, latencyMS int)
}

// NopRecorder - заглушка для тестов и необязательного мониторинга.
type NopRecorder struct{}

func (NopRecorder) Record(provider, agent string, success bool, statusCode, latencyMS int) {}

// GetJSON выполняет GET и декодирует ответ в out, фиксируя каждый вызов
// в rec. Сетевые ошибки и 5xx ретраятся с нарастающей паузой, 4xx нет.
func GetJSON(client *http.Client, req *http.Request, out any, rec Recorder, provider string) error {
	var lastErr error
	backoff := []time.Duration{1 * time.Second, 2 * time.Second}

	for attempt := 0; attempt <= len(backoff); attempt++ {
		if attempt > 0 {
			select {
			case <-req.Context().Done():
				return req.Context().Err()
			case <-time.After(backoff[attempt-1]):
			}
		}

		start := time.Now()
		resp, err := client.Do(req.Clone(req.Context()))
		latency := int(time.Since(start).Milliseconds())
		if err != nil {
			rec.Record(provider, "", false, 0, latency)
			lastErr = fmt.Errorf("%s request: %w", provider, err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			rec.Record(provider, "", false, resp.StatusCode, latency)
			lastErr = fmt.Errorf("%s read response: %w", provider, err)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			rec.Record(provider, "", true, resp.StatusCode, latency)
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("%s decode response: %w", provider, err)
			}
			return nil
		case resp.StatusCode >= 500:
			rec.Record(provider, "", false, resp.StatusCode, latency)
			lastErr = fmt.Errorf("%s status %d: %s", provider, resp.StatusCode, truncateBody(body))
			continue
		default:
			rec.Record(provider, "", false, resp.StatusCode, latency)
			return fmt.Errorf("%s status %d: %s", provider, resp.StatusCode, truncateBody(body))
		}
	}
	return lastErr
}

func truncateBody(body []byte) string {
	const limit = 200
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
