package connectors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

type recordingRecorder struct {
	mu    sync.Mutex
	calls []int
}

func (r *recordingRecorder) Record(provider, agent string, success bool, statusCode, latencyMS int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, statusCode)
}

func TestGetJSONRetriesServerErrors(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"value": 7}`))
	}))
	defer server.Close()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}

	rec := &recordingRecorder{}
	var out struct {
		Value int `json:"value"`
	}
	if err := GetJSON(server.Client(), req, &out, rec, "test"); err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if out.Value != 7 {
		t.Errorf("Value = %d, want 7", out.Value)
	}
	if attempts.Load() != 3 {
		t.Errorf("attempts = %d, want 3 (two retries)", attempts.Load())
	}
	if len(rec.calls) != 3 {
		t.Errorf("recorded calls = %d, want 3", len(rec.calls))
	}
}

func TestGetJSONDoesNotRetryClientErrors(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)
	var out map[string]any
	if err := GetJSON(server.Client(), req, &out, NopRecorder{}, "test"); err == nil {
		t.Fatal("GetJSON() error = nil, want error on 401")
	}
	if attempts.Load() != 1 {
		t.Errorf("attempts = %d, want 1 (no retry on 4xx)", attempts.Load())
	}
}
