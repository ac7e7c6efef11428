package taskpool

import (
	"fmt"
	"html"
	"strings"

	"github.com/timzinin/zinin-corp/internal/domain"
)

var statusEmoji = map[domain.TaskStatus]string{
	domain.StatusTodo:       "📝",
	domain.StatusAssigned:   "👤",
	domain.StatusInProgress: "🔄",
	domain.StatusDone:       "✅",
	domain.StatusBlocked:    "🚫",
}

var priorityEmoji = map[domain.TaskPriority]string{
	domain.PriorityCritical: "🔴",
	domain.PriorityHigh:     "🟠",
	domain.PriorityMedium:   "🟡",
	domain.PriorityLow:      "🟢",
}

// FormatTask собирает HTML-карточку задачи для Telegram.
func FormatTask(t domain.PoolTask) string {
	emoji, ok := statusEmoji[t.Status]
	if !ok {
		emoji = "❓"
	}
	prio, ok := priorityEmoji[t.Priority]
	if !ok {
		prio = "⚪"
	}

	parts := []string{
		fmt.Sprintf("%s %s <b>%s</b>", emoji, prio, html.EscapeString(t.Title)),
		fmt.Sprintf("   ID: <code>%s</code> | %s", t.ID, t.Status),
	}
	if t.Assignee != "" {
		parts = append(parts, fmt.Sprintf("   👤 %s (%s)", domain.AgentName(t.Assignee), t.Assignee))
	}
	if len(t.BlockedBy) > 0 {
		parts = append(parts, "   🔗 ждёт: "+strings.Join(t.BlockedBy, ", "))
	}
	if len(t.Tags) > 0 {
		parts = append(parts, "   🏷 "+strings.Join(t.Tags, ", "))
	}
	return strings.Join(parts, "\n")
}

// FormatSummary собирает сводку пула для Telegram.
func FormatSummary(s Summary) string {
	if s.Total == 0 {
		return "📋 Пул задач пуст"
	}

	lines := []string{"📋 <b>Пул задач</b>\n"}
	order := []domain.TaskStatus{
		domain.StatusTodo, domain.StatusAssigned, domain.StatusInProgress,
		domain.StatusDone, domain.StatusBlocked,
	}
	for _, status := range order {
		if count := s.ByStatus[status]; count > 0 {
			lines = append(lines, fmt.Sprintf("%s %s: %d", statusEmoji[status], status, count))
		}
	}
	lines = append(lines, fmt.Sprintf("\n📊 Всего: %d", s.Total))
	return strings.Join(lines, "\n")
}

// FormatReady показывает задачи, готовые к назначению, с подсказкой
// исполнителя от роутера тегов. Решение остаётся за CEO.
func FormatReady(tasks []domain.PoolTask) string {
	if len(tasks) == 0 {
		return ""
	}
	lines := []string{fmt.Sprintf("🗂 <b>Готовы к назначению</b> (%d)\n", len(tasks))}
	for _, t := range tasks {
		lines = append(lines, FormatTask(t))
		suggestions := SuggestAssignee(t.Tags)
		if NeedsEscalation(suggestions) {
			lines = append(lines, "   ❗ роутер не уверен, нужно решение Алексея")
		} else {
			best := suggestions[0]
			lines = append(lines, fmt.Sprintf("   💡 предлагается: %s (%.0f%%)",
				domain.AgentName(best.AgentKey), best.Confidence*100))
		}
	}
	return strings.Join(lines, "\n")
}

// FormatQueue собирает список незакрытых поручений из очереди.
func FormatQueue(tasks []domain.QueuedTask) string {
	if len(tasks) == 0 {
		return "📭 Очередь поручений пуста"
	}
	lines := []string{fmt.Sprintf("📋 <b>Поручения из переписки</b> (%d)\n", len(tasks))}
	for i, t := range tasks {
		line := fmt.Sprintf("%d. %s → %s", i+1, domain.AgentName(t.Assignee), html.EscapeString(t.Action))
		if t.Deadline != "" {
			line += " ⏰ " + t.Deadline
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
