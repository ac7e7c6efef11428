package groq

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/timzinin/zinin-corp/internal/llm"
)

func TestClient_CompleteWithSystem(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}

		var req llm.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "llama-3.3-70b-versatile" {
			t.Errorf("Model = %q", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("Messages = %+v", req.Messages)
		}

		json.NewEncoder(w).Encode(llm.ChatResponse{
			Choices: []llm.Choice{
				{Message: llm.Message{Role: "assistant", Content: "Готово"}},
			},
		})
	}))
	defer server.Close()

	client := New(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
	}, zap.NewNop())

	result, err := client.CompleteWithSystem(context.Background(), "system", "prompt")
	if err != nil {
		t.Fatalf("CompleteWithSystem() error = %v", err)
	}
	if result != "Готово" {
		t.Errorf("CompleteWithSystem() = %q", result)
	}
}

func TestClient_RateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := New(Config{APIKey: "k", BaseURL: server.URL}, zap.NewNop())
	_, err := client.CompleteWithSystem(context.Background(), "s", "p")
	if err != llm.ErrRateLimit {
		t.Errorf("error = %v, want ErrRateLimit", err)
	}
}
