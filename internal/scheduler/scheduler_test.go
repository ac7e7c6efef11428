package scheduler

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/timzinin/zinin-corp/internal/domain"
	"github.com/timzinin/zinin-corp/internal/revenue"
	"github.com/timzinin/zinin-corp/internal/taskpool"
)

type fakeSender struct {
	mu    sync.Mutex
	sent  []string
	chats []int64
}

func (f *fakeSender) Send(chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chats = append(f.chats, chatID)
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeSender) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func newTestScheduler(t *testing.T, cfg Config) (*Scheduler, *taskpool.Pool, *fakeSender) {
	t.Helper()
	dir := t.TempDir()
	logger := zap.NewNop()

	rev, err := revenue.NewTracker(dir, 2500, "2026-03-02", logger)
	if err != nil {
		t.Fatalf("revenue.NewTracker() error = %v", err)
	}
	pool, err := taskpool.NewPool(dir, logger)
	if err != nil {
		t.Fatalf("taskpool.NewPool() error = %v", err)
	}

	sender := &fakeSender{}
	return New(cfg, rev, pool, sender, logger), pool, sender
}

func TestRunStopsOnCancel(t *testing.T) {
	s, _, _ := newTestScheduler(t, Config{
		SnapshotEvery: 5 * time.Millisecond,
		ArchiveEvery:  5 * time.Millisecond,
		PatrolEvery:   5 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run() не остановился после отмены контекста")
	}

	if got := len(s.revenue.History(1)); got != 1 {
		t.Errorf("len(History(1)) = %d, want 1 дневной срез", got)
	}
}

func TestDefaults(t *testing.T) {
	s, _, _ := newTestScheduler(t, Config{})

	if s.cfg.SnapshotEvery != 24*time.Hour {
		t.Errorf("SnapshotEvery = %v, want 24h", s.cfg.SnapshotEvery)
	}
	if s.cfg.PatrolEvery != 6*time.Hour {
		t.Errorf("PatrolEvery = %v, want 6h", s.cfg.PatrolEvery)
	}
	if s.cfg.StaleDays != taskpool.DefaultStaleDays || s.cfg.KeepRecentDays != 7 {
		t.Errorf("StaleDays = %d, KeepRecentDays = %d, want %d и 7",
			s.cfg.StaleDays, s.cfg.KeepRecentDays, taskpool.DefaultStaleDays)
	}
}

func TestPatrolStaleTasksSendsCTOReport(t *testing.T) {
	s, pool, sender := newTestScheduler(t, Config{OwnerChatID: 77})
	s.cfg.StaleDays = 0 // любая назначенная задача считается зависшей

	task, err := pool.Create("обновить сертификаты", taskpool.CreateParams{})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := pool.Assign(task.ID, domain.AgentAutomator, domain.AgentManager); err != nil {
		t.Fatalf("Assign() error = %v", err)
	}

	s.patrolStaleTasks()

	msgs := sender.messages()
	if len(msgs) != 1 {
		t.Fatalf("len(sent) = %d, want 1", len(msgs))
	}
	if sender.chats[0] != 77 {
		t.Errorf("chat = %d, want 77", sender.chats[0])
	}
	if !strings.Contains(msgs[0], "Мартин") {
		t.Errorf("отчёт должен идти от CTO, got %q", msgs[0])
	}
	if !strings.Contains(msgs[0], "обновить сертификаты") {
		t.Errorf("отчёт должен содержать зависшую задачу, got %q", msgs[0])
	}
}

func TestPatrolQuietWhenNothingStale(t *testing.T) {
	s, pool, sender := newTestScheduler(t, Config{OwnerChatID: 77})

	if _, err := pool.Create("свежая задача", taskpool.CreateParams{}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	s.patrolStaleTasks()

	if got := len(sender.messages()); got != 0 {
		t.Errorf("len(sent) = %d, патруль не должен шуметь без зависших задач", got)
	}
}

func TestSweepArchive(t *testing.T) {
	s, pool, _ := newTestScheduler(t, Config{})
	s.cfg.KeepRecentDays = 0 // архивируем всё завершённое сразу

	task, err := pool.Create("написать отчёт", taskpool.CreateParams{Assignee: domain.AgentAccountant})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := pool.Start(task.ID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := pool.Complete(task.ID, "готово"); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	s.sweepArchive()

	sum, err := pool.Summarize()
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if sum.Total != 0 {
		t.Errorf("Total = %d, завершённая задача должна уехать в архив", sum.Total)
	}
}
