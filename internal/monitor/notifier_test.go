package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/timzinin/zinin-corp/internal/connectors/tribute"
	"github.com/timzinin/zinin-corp/internal/domain"
)

func TestNotifierSendsMessage(t *testing.T) {
	var gotPath string
	var gotReq sendMessageRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	n := NewNotifier(NotifierConfig{
		Token:   "test-token",
		ChatID:  42,
		BaseURL: ts.URL,
	}, zap.NewNop())

	if err := n.Notify(context.Background(), "<b>привет</b>"); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if gotPath != "/bottest-token/sendMessage" {
		t.Errorf("path = %q, want /bottest-token/sendMessage", gotPath)
	}
	if gotReq.ChatID != 42 || gotReq.Text != "<b>привет</b>" || gotReq.ParseMode != "HTML" {
		t.Errorf("request = %+v", gotReq)
	}
}

func TestNotifierServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false}`, http.StatusBadGateway)
	}))
	defer ts.Close()

	n := NewNotifier(NotifierConfig{Token: "t", ChatID: 1, BaseURL: ts.URL}, zap.NewNop())
	if err := n.Notify(context.Background(), "msg"); err == nil {
		t.Error("Notify() при ошибке Telegram должен вернуть error")
	}
}

func TestSubscriptionNote(t *testing.T) {
	srv, _ := newTestServer(t)

	note := srv.subscriptionNote(domain.TributeEvent{
		Event:    domain.TributeNewSubscription,
		Channel:  "botanica",
		UserID:   "42",
		Amount:   9000,
		Currency: "RUB",
	})

	for _, want := range []string{
		"🟢 Новая подписка",
		"<b>botanica</b>",
		"User: <code>42</code>",
		"Amount: 9000 RUB",
		"MRR: <code>$",
	} {
		if !strings.Contains(note, want) {
			t.Errorf("в уведомлении нет %q:\n%s", want, note)
		}
	}
}

func TestWebhookNotifiesOwnerOnNewSubscription(t *testing.T) {
	sent := make(chan sendMessageRequest, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req sendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			sent <- req
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	srv, r := newTestServer(t)
	srv.deps.Notifier = NewNotifier(NotifierConfig{
		Token:   "t",
		ChatID:  77,
		BaseURL: ts.URL,
	}, zap.NewNop())

	sig := tribute.Sign([]byte(subscriptionBody), "botanica-key")
	w := postWebhook(r, "/webhooks/tribute?project=botanica", subscriptionBody, sig)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	select {
	case req := <-sent:
		if req.ChatID != 77 {
			t.Errorf("chat_id = %d, want 77", req.ChatID)
		}
		if !strings.Contains(req.Text, "Новая подписка") {
			t.Errorf("текст уведомления = %q", req.Text)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("уведомление владельцу так и не отправлено")
	}
}

func TestWebhookDoesNotNotifyOnRenewal(t *testing.T) {
	sent := make(chan struct{}, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sent <- struct{}{}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	srv, _ := newTestServer(t)
	srv.deps.Notifier = NewNotifier(NotifierConfig{
		Token:   "t",
		ChatID:  77,
		BaseURL: ts.URL,
	}, zap.NewNop())

	srv.notifySubscription(domain.TributeEvent{
		Event:   domain.TributeRenewedSubscription,
		Channel: "botanica",
	})

	select {
	case <-sent:
		t.Error("продление подписки не должно дёргать владельца")
	case <-time.After(100 * time.Millisecond):
	}
}
