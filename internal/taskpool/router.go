package taskpool

import (
	"sort"
	"strings"

	"github.com/timzinin/zinin-corp/internal/domain"
)

// EscalationThreshold - если уверенность лучшей подсказки ниже,
// задача уходит на ручное решение CEO.
const EscalationThreshold = 0.3

// Компетенции агентов для подбора исполнителя по тегам.
var agentTags = map[string][]string{
	domain.AgentManager: {
		"strategy", "delegation", "coordination", "review",
		"report", "planning", "escalation",
	},
	domain.AgentAccountant: {
		"finance", "budget", "revenue", "p&l", "portfolio",
		"crypto", "banking", "billing", "tribute", "costs",
		"forex", "transactions",
	},
	domain.AgentAutomator: {
		"architecture", "infrastructure", "mcp", "code",
		"api", "health", "deployment", "testing", "audit",
		"security", "devops", "monitoring",
	},
	domain.AgentSMM: {
		"content", "linkedin", "threads", "post", "podcast",
		"social", "copywriting", "seo", "brand",
	},
}

// Ключевые слова названия задачи для автоматической простановки тегов.
var tagKeywords = map[string][]string{
	"finance":        {"финанс", "бюджет", "p&l", "баланс", "revenue", "доход", "расход"},
	"revenue":        {"revenue", "mrr", "подписк", "выручк", "tribute", "монетизац"},
	"crypto":         {"крипто", "bitcoin", "btc", "eth", "портфел", "defi", "токен"},
	"content":        {"контент", "пост", "статья", "публикац", "текст", "копирайт"},
	"linkedin":       {"linkedin", "линкедин"},
	"threads":        {"threads", "тредс"},
	"podcast":        {"подкаст", "podcast", "аудио"},
	"infrastructure": {"инфраструктур", "деплой", "docker", "railway", "сервер"},
	"mcp":            {"mcp", "обёртк"},
	"api":            {"api", "интеграц", "webhook", "эндпоинт"},
	"code":           {"код", "рефактор", "баг", "фикс", "тест"},
	"architecture":   {"архитектур", "систем"},
	"strategy":       {"стратег", "план", "vision"},
	"social":         {"smm", "соцсет", "social"},
	"brand":          {"бренд", "brand"},
	"seo":            {"seo", "оптимизац", "мета"},
	"audit":          {"аудит", "ревью", "review"},
	"monitoring":     {"мониторинг", "алерт", "health"},
}

// AutoTag выводит теги из названия задачи по словарю ключевых слов.
func AutoTag(title string) []string {
	lower := strings.ToLower(title)
	var tags []string
	for tag, keywords := range tagKeywords {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				tags = append(tags, tag)
				break
			}
		}
	}
	sort.Strings(tags)
	return tags
}

// Suggestion - кандидат в исполнители с уверенностью подбора.
type Suggestion struct {
	AgentKey   string
	Confidence float64
}

// SuggestAssignee сопоставляет теги задачи с компетенциями агентов.
// Уверенность = доля тегов задачи, покрытых компетенциями агента.
func SuggestAssignee(tags []string) []Suggestion {
	if len(tags) == 0 {
		return nil
	}
	tagSet := make(map[string]bool, len(tags))
	for _, t := range tags {
		tagSet[t] = true
	}

	var suggestions []Suggestion
	for _, agent := range domain.AllAgents() {
		overlap := 0
		for _, at := range agentTags[agent] {
			if tagSet[at] {
				overlap++
			}
		}
		if overlap > 0 {
			suggestions = append(suggestions, Suggestion{
				AgentKey:   agent,
				Confidence: float64(overlap) / float64(len(tagSet)),
			})
		}
	}
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})
	return suggestions
}

// NeedsEscalation сообщает, что роутер не уверен в подборе и задачу
// должен распределить CEO вручную.
func NeedsEscalation(suggestions []Suggestion) bool {
	return len(suggestions) == 0 || suggestions[0].Confidence < EscalationThreshold
}
