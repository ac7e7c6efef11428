package monitor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/timzinin/zinin-corp/internal/activity"
	"github.com/timzinin/zinin-corp/internal/connectors/tribute"
	"github.com/timzinin/zinin-corp/internal/domain"
	"github.com/timzinin/zinin-corp/internal/ratemonitor"
	"github.com/timzinin/zinin-corp/internal/revenue"
	"github.com/timzinin/zinin-corp/internal/taskpool"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*Server, *gin.Engine) {
	t.Helper()
	dir := t.TempDir()
	logger := zap.NewNop()

	tracker, err := activity.NewTracker(dir, logger)
	if err != nil {
		t.Fatalf("activity.NewTracker() error = %v", err)
	}
	rates, err := ratemonitor.NewMonitor(dir, logger)
	if err != nil {
		t.Fatalf("ratemonitor.NewMonitor() error = %v", err)
	}
	pool, err := taskpool.NewPool(dir, logger)
	if err != nil {
		t.Fatalf("taskpool.NewPool() error = %v", err)
	}
	rev, err := revenue.NewTracker(dir, 2500, "2026-03-02", logger)
	if err != nil {
		t.Fatalf("revenue.NewTracker() error = %v", err)
	}
	payments, err := tribute.NewStore(dir, logger)
	if err != nil {
		t.Fatalf("tribute.NewStore() error = %v", err)
	}

	srv := NewServer("", Deps{
		Activity: tracker,
		Rates:    rates,
		Pool:     pool,
		Revenue:  rev,
		Tribute:  payments,
		Keys: tribute.Keys{
			ByProject: map[string]string{"botanica": "botanica-key"},
			Default:   "default-key",
		},
	}, logger)
	t.Cleanup(func() { srv.cancel() })

	return srv, srv.routes()
}

func doRequest(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	_, r := newTestServer(t)

	w := doRequest(r, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d, want %d", w.Code, http.StatusOK)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal health: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("health status = %v, want ok", body["status"])
	}
}

func TestSnapshotEndpoint(t *testing.T) {
	srv, r := newTestServer(t)

	srv.deps.Activity.TaskStarted(domain.AgentAutomator, "чиню алерты")
	srv.deps.Rates.Record("coingecko", domain.AgentAccountant, true, 200, 120)
	if _, err := srv.deps.Pool.Create("поднять бекапы", taskpool.CreateParams{}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	w := doRequest(r, httptest.NewRequest(http.MethodGet, "/api/snapshot", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("snapshot status = %d, want %d", w.Code, http.StatusOK)
	}

	var snap struct {
		Timestamp string `json:"timestamp"`
		Agents    map[string]struct {
			Status string `json:"status"`
			Name   string `json:"name"`
		} `json:"agents"`
		APIUsage    map[string]json.RawMessage `json:"api_usage"`
		TaskPool    map[string]int             `json:"task_pool"`
		ActiveTasks []struct {
			Title  string `json:"title"`
			Status string `json:"status"`
		} `json:"active_tasks"`
		Revenue struct {
			TargetMRR float64 `json:"target_mrr"`
		} `json:"revenue"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}

	if snap.Timestamp == "" {
		t.Error("snapshot must carry a timestamp")
	}
	cto, ok := snap.Agents[domain.AgentAutomator]
	if !ok {
		t.Fatal("snapshot is missing the automator agent")
	}
	if cto.Status != activity.StatusWorking || cto.Name != "Мартин" {
		t.Errorf("automator = %+v, want working Мартин", cto)
	}
	if _, ok := snap.APIUsage["coingecko"]; !ok {
		t.Error("snapshot is missing coingecko api usage")
	}
	if snap.TaskPool["total"] != 1 {
		t.Errorf("task_pool total = %d, want 1", snap.TaskPool["total"])
	}
	if len(snap.ActiveTasks) != 1 || snap.ActiveTasks[0].Title != "поднять бекапы" {
		t.Errorf("active_tasks = %+v, want one open task", snap.ActiveTasks)
	}
	if snap.Revenue.TargetMRR != 2500 {
		t.Errorf("revenue target = %v, want 2500", snap.Revenue.TargetMRR)
	}
}

func TestAgentsEndpoint(t *testing.T) {
	srv, r := newTestServer(t)
	srv.deps.Activity.TaskStarted(domain.AgentSMM, "пишу пост")
	srv.deps.Activity.TaskEnded(domain.AgentSMM, "пишу пост", true)

	w := doRequest(r, httptest.NewRequest(http.MethodGet, "/api/agents", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("agents status = %d, want %d", w.Code, http.StatusOK)
	}
	var agents map[string]struct {
		Status   string `json:"status"`
		LastTask string `json:"last_task"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &agents); err != nil {
		t.Fatalf("unmarshal agents: %v", err)
	}
	smm, ok := agents[domain.AgentSMM]
	if !ok {
		t.Fatal("agents response is missing smm")
	}
	if smm.Status != activity.StatusIdle || smm.LastTask != "пишу пост" {
		t.Errorf("smm = %+v, want idle with last task", smm)
	}
}

func TestEventsEndpointLimit(t *testing.T) {
	srv, r := newTestServer(t)
	for i := 0; i < 5; i++ {
		srv.deps.Activity.TaskStarted(domain.AgentManager, "планёрка")
		srv.deps.Activity.TaskEnded(domain.AgentManager, "планёрка", true)
	}

	w := doRequest(r, httptest.NewRequest(http.MethodGet, "/api/events?hours=24&limit=3", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("events status = %d, want %d", w.Code, http.StatusOK)
	}
	var events []json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &events); err != nil {
		t.Fatalf("unmarshal events: %v", err)
	}
	if len(events) != 3 {
		t.Errorf("len(events) = %d, want 3", len(events))
	}
}

func TestEventsEndpointEmpty(t *testing.T) {
	_, r := newTestServer(t)

	w := doRequest(r, httptest.NewRequest(http.MethodGet, "/api/events", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("events status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := w.Body.String(); got != "[]" {
		t.Errorf("empty events body = %q, want []", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, r := newTestServer(t)

	w := doRequest(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Errorf("metrics status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestStopCancelsContext(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.server = &http.Server{}

	if err := srv.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	select {
	case <-srv.ctx.Done():
	default:
		t.Error("Stop() must cancel the server context")
	}
}
