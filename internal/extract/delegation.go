package extract

import (
	"regexp"
	"strings"

	"github.com/timzinin/zinin-corp/internal/domain"
)

// Delegation - поручение одного агента другому, найденное в ответе.
type Delegation struct {
	AgentKey        string
	TaskDescription string
}

// Формы имён для делегирования, включая творительный падеж.
var delegationAgentPatterns = map[string][]string{
	domain.AgentManager:    {"алексей", "алексею", "алексея", "алексеем"},
	domain.AgentAccountant: {"маттиас", "маттиасу", "маттиаса", "маттиасом"},
	domain.AgentAutomator:  {"мартин", "мартину", "мартина", "мартином"},
	domain.AgentSMM:        {"юки"},
}

// Обороты, означающие передачу задачи.
var delegationVerbRes = []*regexp.Regexp{
	regexp.MustCompile(`поруча[а-яё]*`),
	regexp.MustCompile(`делегиру[а-яё]*`),
	regexp.MustCompile(`прошу\s+[а-яё]*\s*подготов`),
	regexp.MustCompile(`прошу\s+[а-яё]*\s*сделат`),
	regexp.MustCompile(`прошу\s+[а-яё]*\s*провест`),
	regexp.MustCompile(`прошу\s+[а-яё]*\s*проанализ`),
	regexp.MustCompile(`долж(?:ен|на|ны)\s+подготов`),
	regexp.MustCompile(`долж(?:ен|на|ны)\s+сделат`),
	regexp.MustCompile(`долж(?:ен|на|ны)\s+провест`),
	regexp.MustCompile(`долж(?:ен|на|ны)\s+проанализ`),
	regexp.MustCompile(`необходимо.*подготов`),
	regexp.MustCompile(`необходимо.*провест`),
	regexp.MustCompile(`нужно.*подготов`),
	regexp.MustCompile(`нужно.*провест`),
	regexp.MustCompile(`@\s*маттиас`),
	regexp.MustCompile(`@\s*мартин`),
	regexp.MustCompile(`@\s*юки`),
	regexp.MustCompile(`@\s*алексей`),
}

var leadingBulletRe = regexp.MustCompile(`^[-—*]\s*`)

// Delegations ищет в ответе агента передачу задач коллегам. Делегирование
// самому себе и повторное делегирование одному агенту игнорируются.
func Delegations(text, sourceAgent string) []Delegation {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var delegations []Delegation
	seen := make(map[string]bool)

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len([]rune(line)) < minLineRunes {
			continue
		}

		target := detectDelegationTarget(line)
		if target == "" || target == sourceAgent || seen[target] {
			continue
		}
		if !hasDelegationVerb(line) {
			continue
		}

		desc := listNumberingRe.ReplaceAllString(line, "")
		desc = leadingBulletRe.ReplaceAllString(desc, "")
		delegations = append(delegations, Delegation{
			AgentKey:        target,
			TaskDescription: desc,
		})
		seen[target] = true
	}
	return delegations
}

func detectDelegationTarget(line string) string {
	lower := strings.ToLower(line)
	for _, key := range domain.AllAgents() {
		for _, form := range delegationAgentPatterns[key] {
			if strings.Contains(lower, form) {
				return key
			}
		}
	}
	return ""
}

func hasDelegationVerb(line string) bool {
	lower := strings.ToLower(line)
	for _, re := range delegationVerbRes {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}
