package taskpool

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/timzinin/zinin-corp/internal/domain"
)

// DefaultStaleDays - сколько дней без движения делает задачу брошенной.
const DefaultStaleDays = 3

// Stale возвращает задачи в работе, которых никто не касался staleDays дней.
// Срочные идут первыми.
func (p *Pool) Stale(staleDays int) ([]domain.PoolTask, error) {
	pool, err := p.load()
	if err != nil {
		return nil, err
	}
	cutoff := time.Now().AddDate(0, 0, -staleDays)

	var stale []domain.PoolTask
	for _, t := range pool {
		if t.Status != domain.StatusAssigned && t.Status != domain.StatusInProgress {
			continue
		}
		if lastTouched(t).Before(cutoff) {
			stale = append(stale, t)
		}
	}
	sort.SliceStable(stale, func(i, j int) bool {
		return stale[i].Priority < stale[j].Priority
	})
	return stale, nil
}

func lastTouched(t domain.PoolTask) time.Time {
	if !t.UpdatedAt.IsZero() {
		return t.UpdatedAt
	}
	if t.AssignedAt != nil {
		return *t.AssignedAt
	}
	return t.CreatedAt
}

// FormatStaleReport собирает отчёт Orphan Task Patrol для отправки CTO.
func FormatStaleReport(tasks []domain.PoolTask) string {
	if len(tasks) == 0 {
		return "🔍 Orphan Task Patrol: все задачи в движении, брошенных нет."
	}

	lines := []string{
		"🔍 <b>Orphan Task Patrol</b>\n",
		fmt.Sprintf("Найдено %d задач без движения:\n", len(tasks)),
	}
	shown := tasks
	if len(shown) > 10 {
		shown = shown[:10]
	}
	for _, t := range shown {
		days := int(time.Since(lastTouched(t)).Hours() / 24)
		title := []rune(t.Title)
		if len(title) > 50 {
			title = title[:50]
		}
		assignee := t.Assignee
		if assignee == "" {
			assignee = "без исполнителя"
		}
		lines = append(lines, fmt.Sprintf(
			"  <code>%s</code> «%s»\n    👤 %s | %s | %dд без движения",
			t.ID, html.EscapeString(string(title)), assignee, t.Status, days))
	}
	if len(tasks) > 10 {
		lines = append(lines, fmt.Sprintf("\n  ... и ещё %d", len(tasks)-10))
	}
	return strings.Join(lines, "\n")
}
