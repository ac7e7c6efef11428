package extract

import (
	"testing"

	"github.com/timzinin/zinin-corp/internal/domain"
)

func TestTasksDetectsAssigneeAndVerb(t *testing.T) {
	tasks := Tasks("Маттиас, подготовь финансовый отчёт до пятницы", "")
	if len(tasks) != 1 {
		t.Fatalf("Tasks() вернул %d задач, want 1", len(tasks))
	}
	task := tasks[0]
	if task.Assignee != domain.AgentAccountant {
		t.Errorf("Assignee = %q, want %q", task.Assignee, domain.AgentAccountant)
	}
	if task.Deadline != "до пятницы" {
		t.Errorf("Deadline = %q, want %q", task.Deadline, "до пятницы")
	}
	if task.Status != domain.QueuedPending {
		t.Errorf("Status = %q, want %q", task.Status, domain.QueuedPending)
	}
}

func TestTasksRequiresBothAssigneeAndVerb(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"только имя", "Маттиас отличный финансист, я ему доверяю"},
		{"только глагол", "Подготовь отчёт о расходах за январь"},
		{"короткая строка", "Юки, сделай"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Tasks(tc.text, ""); len(got) != 0 {
				t.Errorf("Tasks(%q) = %v, want пусто", tc.text, got)
			}
		})
	}
}

func TestTasksStripsListNumbering(t *testing.T) {
	text := "1. Мартин, настрой webhook для платежей завтра"
	tasks := Tasks(text, domain.AgentManager)
	if len(tasks) != 1 {
		t.Fatalf("Tasks() вернул %d задач, want 1", len(tasks))
	}
	if tasks[0].Action != "Мартин, настрой webhook для платежей завтра" {
		t.Errorf("Action = %q, нумерация не убрана", tasks[0].Action)
	}
	if tasks[0].SourceAgent != domain.AgentManager {
		t.Errorf("SourceAgent = %q, want %q", tasks[0].SourceAgent, domain.AgentManager)
	}
	if tasks[0].Deadline != "завтра" {
		t.Errorf("Deadline = %q, want завтра", tasks[0].Deadline)
	}
}

func TestTasksMultipleLines(t *testing.T) {
	text := "План на неделю:\n" +
		"1. Маттиасу подготовить отчёт к понедельнику\n" +
		"2. Юки, опубликуй анонс в канале Ботаника\n" +
		"3. Отдохнуть на выходных"
	tasks := Tasks(text, "")
	if len(tasks) != 2 {
		t.Fatalf("Tasks() вернул %d задач, want 2", len(tasks))
	}
	if tasks[0].Assignee != domain.AgentAccountant {
		t.Errorf("tasks[0].Assignee = %q, want accountant", tasks[0].Assignee)
	}
	if tasks[0].Deadline != "к понедельнику" {
		t.Errorf("tasks[0].Deadline = %q, want к понедельнику", tasks[0].Deadline)
	}
	if tasks[1].Assignee != domain.AgentSMM {
		t.Errorf("tasks[1].Assignee = %q, want smm", tasks[1].Assignee)
	}
}

func TestTasksDeclinedNameForms(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Алексею проверить стратегию на этой неделе", domain.AgentManager},
		{"Прошу Мартина обновить парсер сегодня же", domain.AgentAutomator},
		{"Маттиаса попросим проанализировать расходы", domain.AgentAccountant},
	}
	for _, tc := range cases {
		tasks := Tasks(tc.text, "")
		if len(tasks) != 1 {
			t.Fatalf("Tasks(%q) вернул %d задач, want 1", tc.text, len(tasks))
		}
		if tasks[0].Assignee != tc.want {
			t.Errorf("Tasks(%q).Assignee = %q, want %q", tc.text, tasks[0].Assignee, tc.want)
		}
	}
}

func TestDetectDeadlineRelativeForms(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"сделай до конца дня", "до конца дня"},
		{"опубликуй на этой неделе", "на этой неделе"},
		{"проверь сегодня", "сегодня"},
		{"без срока вообще", ""},
	}
	for _, tc := range cases {
		if got := detectDeadline(tc.text); got != tc.want {
			t.Errorf("detectDeadline(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}
