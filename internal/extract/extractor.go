// Package extract разбирает ответы агентов и сообщения владельца:
// вытаскивает поручения с исполнителем и дедлайном, а также делегирования
// между агентами.
package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/timzinin/zinin-corp/internal/domain"
)

// minLineRunes - строки короче не рассматриваются как поручения.
const minLineRunes = 10

// Формы имён агентов в именительном, дательном и винительном падежах.
var assigneePatterns = map[string][]string{
	domain.AgentManager:    {"алексей", "алексею", "алексея"},
	domain.AgentAccountant: {"маттиас", "маттиасу", "маттиаса"},
	domain.AgentAutomator:  {"мартин", "мартину", "мартина"},
	domain.AgentSMM:        {"юки"},
}

// Глаголы-действия в повелительном наклонении.
var actionVerbRe = regexp.MustCompile(`(?i)(?:сделай|подготовь|проверь|создай|обнови|опубликуй|проанализируй|напиши|отправь|настрой)[а-яё]*`)

// Дедлайны: день недели с предлогом или относительное выражение.
var deadlinePatterns = []struct {
	re     *regexp.Regexp
	prefix string
}{
	{regexp.MustCompile(`(?i)до\s+(пятницы|понедельника|вторника|среды|четверга|субботы|воскресенья)`), "до "},
	{regexp.MustCompile(`(?i)к\s+(понедельнику|вторнику|среде|четвергу|пятнице|субботе|воскресенью)`), "к "},
	{regexp.MustCompile(`(?i)до\s+конца\s+дня`), ""},
	{regexp.MustCompile(`(?i)на\s+этой\s+неделе`), ""},
	{regexp.MustCompile(`(?i)сегодня`), ""},
	{regexp.MustCompile(`(?i)завтра`), ""},
}

var listNumberingRe = regexp.MustCompile(`^\d+[\.\)\-]\s*`)

// Tasks извлекает поручения из текста. Поручением считается строка, где
// упомянут агент и есть глагол-действие. sourceAgent - ключ автора текста,
// пустой для сообщений владельца.
func Tasks(content, sourceAgent string) []domain.QueuedTask {
	var tasks []domain.QueuedTask
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if len([]rune(line)) < minLineRunes {
			continue
		}

		assignee := detectAssignee(line)
		if assignee == "" || !actionVerbRe.MatchString(line) {
			continue
		}

		tasks = append(tasks, domain.QueuedTask{
			Action:      listNumberingRe.ReplaceAllString(line, ""),
			Assignee:    assignee,
			Deadline:    detectDeadline(line),
			SourceAgent: sourceAgent,
			Status:      domain.QueuedPending,
			CreatedAt:   time.Now(),
		})
	}
	return tasks
}

func detectAssignee(line string) string {
	lower := strings.ToLower(line)
	for _, key := range domain.AllAgents() {
		for _, form := range assigneePatterns[key] {
			if strings.Contains(lower, form) {
				return key
			}
		}
	}
	return ""
}

func detectDeadline(line string) string {
	lower := strings.ToLower(line)
	for _, p := range deadlinePatterns {
		match := p.re.FindStringSubmatch(lower)
		if match == nil {
			continue
		}
		if len(match) > 1 {
			return p.prefix + match[1]
		}
		return strings.Join(strings.Fields(match[0]), " ")
	}
	return ""
}
