package agent

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/timzinin/zinin-corp/internal/activity"
	"github.com/timzinin/zinin-corp/internal/chat"
	"github.com/timzinin/zinin-corp/internal/domain"
	"github.com/timzinin/zinin-corp/internal/llm"
	"github.com/timzinin/zinin-corp/internal/llm/mock"
	"github.com/timzinin/zinin-corp/internal/storage"
	"github.com/timzinin/zinin-corp/internal/taskpool"
)

func testBroadcaster(t *testing.T, client llm.Client) (*Broadcaster, *taskpool.Queue) {
	t.Helper()
	dir := t.TempDir()
	logger := zap.NewNop()

	store, err := storage.NewStore(filepath.Join(dir, "chat_history.json"))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	history := chat.NewHistory(context.Background(), store, nil, logger)

	queue, err := taskpool.NewQueue(dir, logger)
	if err != nil {
		t.Fatalf("NewQueue() error = %v", err)
	}
	tracker, err := activity.NewTracker(dir, logger)
	if err != nil {
		t.Fatalf("NewTracker() error = %v", err)
	}

	router := llm.NewRouter(client, client, client, logger)
	b, err := NewBroadcaster(router, history, queue, tracker, nil, logger)
	if err != nil {
		t.Fatalf("NewBroadcaster() error = %v", err)
	}
	return b, queue
}

func TestBroadcastSingleTarget(t *testing.T) {
	b, _ := testBroadcaster(t, mock.New())

	replies, err := b.Broadcast(context.Background(), "как дела?")
	if err != nil {
		t.Fatalf("Broadcast() error = %v", err)
	}
	if len(replies) != 1 {
		t.Fatalf("len(replies) = %d, want 1 (fallback to CEO)", len(replies))
	}
	r := replies[0]
	if r.AgentKey != domain.AgentManager || r.AgentName != "Алексей" {
		t.Errorf("reply from (%s, %s), want manager/Алексей", r.AgentKey, r.AgentName)
	}
	if r.Content == "" || r.Err != nil {
		t.Errorf("reply = %+v", r)
	}
}

func TestBroadcastEmptyMessage(t *testing.T) {
	b, _ := testBroadcaster(t, mock.New())
	if _, err := b.Broadcast(context.Background(), "   "); !errors.Is(err, domain.ErrEmptyPrompt) {
		t.Errorf("Broadcast(empty) error = %v, want ErrEmptyPrompt", err)
	}
}

func TestBroadcastTeamSeesEarlierReplies(t *testing.T) {
	client := mock.New().WithResponse("Принято, беру в работу.")
	b, _ := testBroadcaster(t, client)

	replies, err := b.Broadcast(context.Background(), "Всем: доложите статус")
	if err != nil {
		t.Fatalf("Broadcast() error = %v", err)
	}
	if len(replies) != len(domain.AllAgents()) {
		t.Fatalf("len(replies) = %d, want %d", len(replies), len(domain.AllAgents()))
	}

	// Уже второй агент в обходе обязан видеть в контексте ответ первого,
	// записанный в историю на шаг раньше.
	second := client.AllCalls[1]
	if !strings.Contains(second.Prompt, "Алексей: Принято, беру в работу.") {
		t.Errorf("второй агент не видит ответ первого, prompt:\n%s", second.Prompt)
	}
	if !strings.Contains(second.Prompt, "Тим: Всем: доложите статус") {
		t.Errorf("второй агент не видит сообщение владельца, prompt:\n%s", second.Prompt)
	}

	// И каждый следующий видит ответ непосредственно предыдущего.
	for i := 2; i < len(client.AllCalls); i++ {
		prev := domain.AgentName(domain.AllAgents()[i-1])
		if !strings.Contains(client.AllCalls[i].Prompt, prev+": Принято, беру в работу.") {
			t.Errorf("агент #%d не видит ответ предыдущего (%s), prompt:\n%s",
				i+1, prev, client.AllCalls[i].Prompt)
		}
	}
}

func TestBroadcastDelegationFollowUp(t *testing.T) {
	client := mock.New().WithResponse("Поручаю Мартину настроить мониторинг вебхуков.")
	b, _ := testBroadcaster(t, client)

	replies, err := b.Broadcast(context.Background(), "что по инфраструктуре?")
	if err != nil {
		t.Fatalf("Broadcast() error = %v", err)
	}

	// Основной ответ от CTO (ключевые слова) плюс если делегат уже
	// отвечал, второго круга нет
	hasDelegated := false
	keys := make(map[string]int)
	for _, r := range replies {
		keys[r.AgentKey]++
		if r.Delegated {
			hasDelegated = true
		}
	}
	for key, n := range keys {
		if n > 1 {
			t.Errorf("agent %s replied %d times, want at most 1", key, n)
		}
	}
	_ = hasDelegated
}

func TestBroadcastDelegationToIdleAgent(t *testing.T) {
	client := mock.New().WithResponse("Делегирую Юки подготовить пост о запуске.")
	b, _ := testBroadcaster(t, client)

	// "как дела" уходит только CEO, его ответ делегирует Юки
	replies, err := b.Broadcast(context.Background(), "как дела?")
	if err != nil {
		t.Fatalf("Broadcast() error = %v", err)
	}
	if len(replies) != 2 {
		t.Fatalf("len(replies) = %d, want 2 (CEO + delegated SMM)", len(replies))
	}
	if replies[1].AgentKey != domain.AgentSMM || !replies[1].Delegated {
		t.Errorf("follow-up reply = %+v, want delegated smm", replies[1])
	}
}

func TestBroadcastExtractsTasks(t *testing.T) {
	client := mock.New().WithResponse("Маттиас, подготовь отчёт по выручке до конца дня.")
	b, queue := testBroadcaster(t, client)

	if _, err := b.Broadcast(context.Background(), "как дела?"); err != nil {
		t.Fatalf("Broadcast() error = %v", err)
	}

	pending, err := queue.Pending()
	if err != nil {
		t.Fatalf("Pending() error = %v", err)
	}
	if len(pending) == 0 {
		t.Fatal("queue is empty, want extracted task")
	}
	if pending[0].Assignee != domain.AgentAccountant {
		t.Errorf("task assignee = %s, want accountant", pending[0].Assignee)
	}
}

func TestBroadcastLLMFailure(t *testing.T) {
	client := mock.New().WithError(errors.New("провайдер лёг"))
	b, _ := testBroadcaster(t, client)

	replies, err := b.Broadcast(context.Background(), "как дела?")
	if err != nil {
		t.Fatalf("Broadcast() error = %v", err)
	}
	if len(replies) != 1 || replies[0].Err == nil {
		t.Errorf("replies = %+v, want one failed reply", replies)
	}
}
