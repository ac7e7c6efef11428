package extract

import (
	"strings"
	"testing"

	"github.com/timzinin/zinin-corp/internal/domain"
)

func TestDelegationsPoruchayu(t *testing.T) {
	text := "Поручаю Маттиасу подготовить финансовый отчёт за неделю."
	got := Delegations(text, domain.AgentManager)
	if len(got) != 1 {
		t.Fatalf("Delegations() вернул %d, want 1", len(got))
	}
	if got[0].AgentKey != domain.AgentAccountant {
		t.Errorf("AgentKey = %q, want accountant", got[0].AgentKey)
	}
	if !strings.Contains(got[0].TaskDescription, "подготовить финансовый отчёт") {
		t.Errorf("TaskDescription = %q", got[0].TaskDescription)
	}
}

func TestDelegationsVerbForms(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{"делегирую", "Делегирую Мартину настройку API интеграции с CRM системой.", domain.AgentAutomator},
		{"упоминание", "@Маттиас, подготовь отчёт о расходах за январь.", domain.AgentAccountant},
		{"должен", "Маттиас должен подготовить анализ затрат на API.", domain.AgentAccountant},
		{"прошу", "Прошу Мартина сделать деплой новой версии.", domain.AgentAutomator},
		{"необходимо", "Маттиасу необходимо подготовить P&L отчёт.", domain.AgentAccountant},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Delegations(tc.text, domain.AgentManager)
			if len(got) != 1 {
				t.Fatalf("Delegations(%q) вернул %d, want 1", tc.text, len(got))
			}
			if got[0].AgentKey != tc.want {
				t.Errorf("AgentKey = %q, want %q", got[0].AgentKey, tc.want)
			}
		})
	}
}

func TestDelegationsMultipleTargets(t *testing.T) {
	text := "Вот мой план:\n" +
		"1. Поручаю Маттиасу подготовить финансовый отчёт\n" +
		"2. Делегирую Мартину настройку webhook интеграции"
	got := Delegations(text, domain.AgentManager)
	if len(got) != 2 {
		t.Fatalf("Delegations() вернул %d, want 2", len(got))
	}
	keys := map[string]bool{}
	for _, d := range got {
		keys[d.AgentKey] = true
	}
	if !keys[domain.AgentAccountant] || !keys[domain.AgentAutomator] {
		t.Errorf("делегирования = %v, want accountant и automator", got)
	}
}

func TestDelegationsSkipsSelf(t *testing.T) {
	text := "Поручаю Алексею подготовить стратегию на квартал."
	if got := Delegations(text, domain.AgentManager); len(got) != 0 {
		t.Errorf("делегирование самому себе не отфильтровано: %v", got)
	}
}

func TestDelegationsDedupPerTarget(t *testing.T) {
	text := "Поручаю Маттиасу подготовить отчёт.\n" +
		"Ещё раз поручаю Маттиасу проверить цифры."
	got := Delegations(text, domain.AgentManager)
	if len(got) != 1 {
		t.Errorf("повторное делегирование одному агенту не схлопнуто: %v", got)
	}
}

func TestDelegationsIgnoresPlainMention(t *testing.T) {
	text := "Маттиас вчера хорошо выступил на созвоне команды."
	if got := Delegations(text, domain.AgentManager); len(got) != 0 {
		t.Errorf("упоминание без глагола делегирования посчитано делегированием: %v", got)
	}
}

func TestDelegationsEmptyText(t *testing.T) {
	if got := Delegations("   ", domain.AgentManager); got != nil {
		t.Errorf("Delegations(пусто) = %v, want nil", got)
	}
}
