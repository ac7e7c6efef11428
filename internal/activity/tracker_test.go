package activity

import (
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/timzinin/zinin-corp/internal/domain"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	tr, err := NewTracker(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewTracker() error = %v", err)
	}
	return tr
}

func TestTaskLifecycle(t *testing.T) {
	tr := newTestTracker(t)

	tr.TaskStarted(domain.AgentAccountant, "подготовить отчёт")
	st := tr.Status(domain.AgentAccountant)
	if st.Status != StatusWorking || st.Task != "подготовить отчёт" {
		t.Errorf("после старта Status = %+v", st)
	}
	if st.StartedAt == nil {
		t.Error("StartedAt не проставлен")
	}

	tr.TaskEnded(domain.AgentAccountant, "подготовить отчёт", true)
	st = tr.Status(domain.AgentAccountant)
	if st.Status != StatusIdle {
		t.Errorf("после завершения Status = %q, want idle", st.Status)
	}
	if st.LastTask != "подготовить отчёт" || !st.LastTaskSuccess {
		t.Errorf("LastTask = %+v", st)
	}
}

func TestTaskDescriptionTruncated(t *testing.T) {
	tr := newTestTracker(t)
	long := strings.Repeat("щ", 200)
	tr.TaskStarted(domain.AgentSMM, long)
	st := tr.Status(domain.AgentSMM)
	if len([]rune(st.Task)) != maxTaskRunes {
		t.Errorf("len(Task) = %d, want %d", len([]rune(st.Task)), maxTaskRunes)
	}
}

func TestUnknownAgentIsIdle(t *testing.T) {
	tr := newTestTracker(t)
	st := tr.Status(domain.AgentAutomator)
	if st.Status != StatusIdle {
		t.Errorf("Status = %q, want idle", st.Status)
	}
}

func TestAllStatusesCoversAllAgents(t *testing.T) {
	tr := newTestTracker(t)
	tr.TaskStarted(domain.AgentManager, "планирование недели")

	statuses := tr.AllStatuses()
	if len(statuses) != len(domain.AllAgents()) {
		t.Errorf("AllStatuses() вернул %d агентов, want %d", len(statuses), len(domain.AllAgents()))
	}
	if statuses[domain.AgentManager].Status != StatusWorking {
		t.Errorf("manager = %+v", statuses[domain.AgentManager])
	}
	if statuses[domain.AgentSMM].Status != StatusIdle {
		t.Errorf("smm = %+v", statuses[domain.AgentSMM])
	}
}

func TestCommunicationIndicators(t *testing.T) {
	tr := newTestTracker(t)
	tr.TaskStarted(domain.AgentManager, "брифинг")
	tr.TaskStarted(domain.AgentAccountant, "цифры")

	tr.CommunicationStarted(domain.AgentManager, domain.AgentAccountant, "передача контекста")
	if got := tr.Status(domain.AgentManager).CommunicatingWith; got != domain.AgentAccountant {
		t.Errorf("manager общается с %q, want accountant", got)
	}
	if got := tr.Status(domain.AgentAccountant).CommunicatingWith; got != domain.AgentManager {
		t.Errorf("accountant общается с %q, want manager", got)
	}

	tr.CommunicationEnded(domain.AgentManager)
	if got := tr.Status(domain.AgentManager).CommunicatingWith; got != "" {
		t.Errorf("индикатор не снят: %q", got)
	}
}

func TestRecentEventsAndTaskCount(t *testing.T) {
	tr := newTestTracker(t)
	tr.TaskStarted(domain.AgentSMM, "пост")
	tr.TaskEnded(domain.AgentSMM, "пост", true)
	tr.TaskStarted(domain.AgentSMM, "ещё пост")
	tr.TaskEnded(domain.AgentSMM, "ещё пост", false)

	events := tr.RecentEvents(24, 50)
	if len(events) != 4 {
		t.Errorf("RecentEvents() вернул %d событий, want 4", len(events))
	}
	if got := tr.TaskCount(domain.AgentSMM, 24); got != 2 {
		t.Errorf("TaskCount() = %d, want 2", got)
	}
}

func TestEventsTrimmed(t *testing.T) {
	tr := newTestTracker(t)
	for i := 0; i < maxEvents/2+10; i++ {
		tr.TaskStarted(domain.AgentAutomator, "задача")
		tr.TaskEnded(domain.AgentAutomator, "задача", true)
	}
	events := tr.RecentEvents(24, maxEvents*2)
	if len(events) > maxEvents {
		t.Errorf("журнал не усечён: %d событий", len(events))
	}
}

func TestProgressIdleAgent(t *testing.T) {
	tr := newTestTracker(t)
	if got := tr.Progress(domain.AgentManager); got != -1 {
		t.Errorf("Progress(idle) = %v, want -1", got)
	}
}

func TestProgressWorkingAgent(t *testing.T) {
	tr := newTestTracker(t)
	tr.TaskStarted(domain.AgentManager, "стратегия")
	got := tr.Progress(domain.AgentManager)
	if got < 0 || got > 0.95 {
		t.Errorf("Progress() = %v, want в пределах [0, 0.95]", got)
	}
}
