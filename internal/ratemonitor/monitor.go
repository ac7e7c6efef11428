// Package ratemonitor ведёт учёт вызовов внешних API по провайдерам и
// предупреждает при подходе к лимитам. Состояние переживает рестарты.
package ratemonitor

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/timzinin/zinin-corp/internal/storage"
)

const (
	maxCalls  = 10000
	maxAlerts = 200

	// defaultWarnPct - порог предупреждения в процентах от лимита.
	defaultWarnPct = 80
)

// ProviderLimit - лимиты провайдера.
type ProviderLimit struct {
	Name              string
	RequestsPerMinute int
	RequestsPerDay    int
	WarnPct           int
}

// Известные провайдеры и их лимиты.
var providerLimits = map[string]ProviderLimit{
	"openrouter": {Name: "OpenRouter", RequestsPerMinute: 60, RequestsPerDay: 5000, WarnPct: defaultWarnPct},
	"elevenlabs": {Name: "ElevenLabs", RequestsPerMinute: 20, RequestsPerDay: 1000, WarnPct: defaultWarnPct},
	"openai":     {Name: "OpenAI", RequestsPerMinute: 60, RequestsPerDay: 10000, WarnPct: defaultWarnPct},
	"coingecko":  {Name: "CoinGecko", RequestsPerMinute: 10, RequestsPerDay: 500, WarnPct: defaultWarnPct},
	"groq":       {Name: "Groq", RequestsPerMinute: 30, RequestsPerDay: 14400, WarnPct: defaultWarnPct},
}

// providerOrder - порядок провайдеров в сводке.
var providerOrder = []string{"openrouter", "elevenlabs", "openai", "coingecko", "groq"}

// Call - один зафиксированный вызов внешнего API.
type Call struct {
	Provider   string    `json:"provider"`
	Agent      string    `json:"agent,omitempty"`
	Success    bool      `json:"success"`
	StatusCode int       `json:"status_code"`
	LatencyMS  int       `json:"latency_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// Alert - предупреждение о приближении к лимиту.
type Alert struct {
	Provider  string    `json:"provider"`
	Window    string    `json:"window"` // minute или day
	Current   int       `json:"current"`
	Limit     int       `json:"limit"`
	Pct       float64   `json:"pct"`
	Timestamp time.Time `json:"timestamp"`
}

type state struct {
	Calls  []Call  `json:"calls"`
	Alerts []Alert `json:"alerts"`
}

// Monitor - учёт вызовов с JSON-персистентностью.
type Monitor struct {
	mu     sync.Mutex
	store  *storage.Store
	logger *zap.Logger
}

// NewMonitor создаёт монитор поверх каталога данных.
func NewMonitor(dataDir string, logger *zap.Logger) (*Monitor, error) {
	store, err := storage.NewStore(filepath.Join(dataDir, "rate_monitor.json"))
	if err != nil {
		return nil, err
	}
	return &Monitor{store: store, logger: logger}, nil
}

// Record фиксирует вызов и проверяет лимиты провайдера.
// Возвращает алерт, если использование выше порога, иначе nil.
func (m *Monitor) Record(provider, agent string, success bool, statusCode, latencyMS int) *Alert {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.load()
	st.Calls = append(st.Calls, Call{
		Provider:   provider,
		Agent:      agent,
		Success:    success,
		StatusCode: statusCode,
		LatencyMS:  latencyMS,
		Timestamp:  time.Now(),
	})
	if len(st.Calls) > maxCalls {
		st.Calls = st.Calls[len(st.Calls)-maxCalls:]
	}

	alert := checkLimits(st, provider)
	if alert != nil {
		st.Alerts = append(st.Alerts, *alert)
		if len(st.Alerts) > maxAlerts {
			st.Alerts = st.Alerts[len(st.Alerts)-maxAlerts:]
		}
		m.logger.Warn("использование API у лимита",
			zap.String("provider", provider),
			zap.String("window", alert.Window),
			zap.Float64("pct", alert.Pct))
	}

	m.save(st)
	return alert
}

// Usage - статистика по провайдеру за окно.
type Usage struct {
	Provider      string
	WindowMinutes int
	TotalCalls    int
	Success       int
	Failed        int
	AvgLatencyMS  int
	RPMLimit      int
	DailyLimit    int
}

// ProviderUsage считает статистику провайдера за последние minutes минут.
func (m *Monitor) ProviderUsage(provider string, minutes int) Usage {
	m.mu.Lock()
	st := m.load()
	m.mu.Unlock()

	cutoff := time.Now().Add(-time.Duration(minutes) * time.Minute)
	u := Usage{Provider: provider, WindowMinutes: minutes}

	var latencySum, latencyCount int
	for _, c := range st.Calls {
		if c.Provider != provider || c.Timestamp.Before(cutoff) {
			continue
		}
		u.TotalCalls++
		if c.Success {
			u.Success++
		} else {
			u.Failed++
		}
		if c.LatencyMS > 0 {
			latencySum += c.LatencyMS
			latencyCount++
		}
	}
	if latencyCount > 0 {
		u.AvgLatencyMS = latencySum / latencyCount
	}
	if limits, ok := providerLimits[provider]; ok {
		u.RPMLimit = limits.RequestsPerMinute
		u.DailyLimit = limits.RequestsPerDay
	}
	return u
}

// AllUsage возвращает статистику всех известных провайдеров.
func (m *Monitor) AllUsage(minutes int) map[string]Usage {
	result := make(map[string]Usage, len(providerLimits))
	for provider := range providerLimits {
		result[provider] = m.ProviderUsage(provider, minutes)
	}
	return result
}

// Alerts возвращает алерты за последние hours часов.
func (m *Monitor) Alerts(hours int) []Alert {
	m.mu.Lock()
	st := m.load()
	m.mu.Unlock()

	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour)
	var alerts []Alert
	for _, a := range st.Alerts {
		if !a.Timestamp.Before(cutoff) {
			alerts = append(alerts, a)
		}
	}
	return alerts
}

// FormatSummary собирает текстовую сводку использования API за час.
func (m *Monitor) FormatSummary() string {
	allUsage := m.AllUsage(60)
	recentAlerts := m.Alerts(24)

	lines := []string{"═══ API USAGE (1h) ═══"}
	anyCalls := false
	for _, provider := range providerOrder {
		u := allUsage[provider]
		if u.TotalCalls == 0 {
			continue
		}
		anyCalls = true
		failStr := ""
		if u.Failed > 0 {
			failStr = fmt.Sprintf(" | ❌ %d ошибок", u.Failed)
		}
		lines = append(lines, fmt.Sprintf("  %s: %d запросов%s | ~%dms",
			providerLimits[provider].Name, u.TotalCalls, failStr, u.AvgLatencyMS))
	}
	if !anyCalls {
		lines = append(lines, "  Нет API-вызовов за последний час")
	}

	if len(recentAlerts) > 0 {
		lines = append(lines, fmt.Sprintf("\n⚠️ Алерты (%d):", len(recentAlerts)))
		shown := recentAlerts
		if len(shown) > 5 {
			shown = shown[len(shown)-5:]
		}
		for _, a := range shown {
			name := a.Provider
			if limits, ok := providerLimits[a.Provider]; ok {
				name = limits.Name
			}
			lines = append(lines, fmt.Sprintf("  🟡 %s: %.0f%% от лимита (%s)", name, a.Pct, a.Window))
		}
	}
	return strings.Join(lines, "\n")
}

func checkLimits(st state, provider string) *Alert {
	limits, ok := providerLimits[provider]
	if !ok {
		return nil
	}
	now := time.Now()
	warn := float64(limits.WarnPct) / 100.0

	minuteCalls := countCalls(st, provider, now.Add(-time.Minute))
	if limits.RequestsPerMinute > 0 && float64(minuteCalls) >= float64(limits.RequestsPerMinute)*warn {
		return &Alert{
			Provider:  provider,
			Window:    "minute",
			Current:   minuteCalls,
			Limit:     limits.RequestsPerMinute,
			Pct:       float64(minuteCalls) / float64(limits.RequestsPerMinute) * 100,
			Timestamp: now,
		}
	}

	dayCalls := countCalls(st, provider, now.Add(-24*time.Hour))
	if limits.RequestsPerDay > 0 && float64(dayCalls) >= float64(limits.RequestsPerDay)*warn {
		return &Alert{
			Provider:  provider,
			Window:    "day",
			Current:   dayCalls,
			Limit:     limits.RequestsPerDay,
			Pct:       float64(dayCalls) / float64(limits.RequestsPerDay) * 100,
			Timestamp: now,
		}
	}
	return nil
}

func countCalls(st state, provider string, since time.Time) int {
	count := 0
	for _, c := range st.Calls {
		if c.Provider == provider && !c.Timestamp.Before(since) {
			count++
		}
	}
	return count
}

func (m *Monitor) load() state {
	var st state
	if err := m.store.Load(&st); err != nil {
		m.logger.Warn("не удалось прочитать rate_monitor.json", zap.Error(err))
		return state{}
	}
	return st
}

func (m *Monitor) save(st state) {
	if err := m.store.Save(st); err != nil {
		m.logger.Error("не удалось сохранить rate_monitor.json", zap.Error(err))
	}
}

// CallRecorder адаптирует Monitor под интерфейс Recorder коннекторов:
// алерт у коннекторов некуда девать, он остаётся в сторе монитора.
type CallRecorder struct {
	m *Monitor
}

// Recorder возвращает адаптер для передачи в клиенты внешних API.
func (m *Monitor) Recorder() CallRecorder {
	return CallRecorder{m: m}
}

func (r CallRecorder) Record(provider, agent string, success bool, statusCode, latencyMS int) {
	r.m.Record(provider, agent, success, statusCode, latencyMS)
}
