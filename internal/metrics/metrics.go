package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	BroadcastsTotal   *prometheus.CounterVec
	BroadcastDuration prometheus.Histogram

	LLMRequestsTotal   *prometheus.CounterVec
	LLMRequestDuration *prometheus.HistogramVec

	ExtractedTasksTotal *prometheus.CounterVec
	DelegationsTotal    *prometheus.CounterVec

	WebhookEventsTotal *prometheus.CounterVec

	TelegramRequestsTotal *prometheus.CounterVec

	RateLimitHitsTotal *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		BroadcastsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zinin_corp_broadcasts_total",
				Help: "Total number of chat broadcasts processed",
			},
			[]string{"status"},
		),
		BroadcastDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "zinin_corp_broadcast_duration_seconds",
				Help:    "Broadcast duration in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
			},
		),

		LLMRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zinin_corp_llm_requests_total",
				Help: "Total number of LLM API requests",
			},
			[]string{"agent", "status"},
		),
		LLMRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "zinin_corp_llm_request_duration_seconds",
				Help:    "LLM request duration in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"agent"},
		),

		ExtractedTasksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zinin_corp_extracted_tasks_total",
				Help: "Total number of tasks extracted from agent replies",
			},
			[]string{"assignee"},
		),
		DelegationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zinin_corp_delegations_total",
				Help: "Total number of delegations parsed from agent replies",
			},
			[]string{"from", "to"},
		),

		WebhookEventsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zinin_corp_webhook_events_total",
				Help: "Total number of Tribute webhook events",
			},
			[]string{"event", "status"},
		),

		TelegramRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zinin_corp_telegram_requests_total",
				Help: "Total number of Telegram updates handled",
			},
			[]string{"type", "status"},
		),

		RateLimitHitsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zinin_corp_rate_limit_hits_total",
				Help: "Total number of rate limit hits",
			},
			[]string{"user_id"},
		),
	}
	return m
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func (m *Metrics) RecordBroadcast(status string, duration time.Duration) {
	m.BroadcastsTotal.WithLabelValues(status).Inc()
	m.BroadcastDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordLLMRequest(agent, status string, duration time.Duration) {
	m.LLMRequestsTotal.WithLabelValues(agent, status).Inc()
	m.LLMRequestDuration.WithLabelValues(agent).Observe(duration.Seconds())
}

func (m *Metrics) RecordExtractedTask(assignee string) {
	m.ExtractedTasksTotal.WithLabelValues(assignee).Inc()
}

func (m *Metrics) RecordDelegation(from, to string) {
	m.DelegationsTotal.WithLabelValues(from, to).Inc()
}

func (m *Metrics) RecordWebhookEvent(event, status string) {
	m.WebhookEventsTotal.WithLabelValues(event, status).Inc()
}

func (m *Metrics) RecordTelegramRequest(reqType, status string) {
	m.TelegramRequestsTotal.WithLabelValues(reqType, status).Inc()
}

func (m *Metrics) RecordRateLimitHit(userID string) {
	m.RateLimitHitsTotal.WithLabelValues(userID).Inc()
}
