package domain

// Ключи агентов совпадают с именами секций конфигурации и тегами задач.
const (
	AgentManager    = "manager"
	AgentAccountant = "accountant"
	AgentAutomator  = "automator"
	AgentSMM        = "smm"
)

// AllAgents возвращает ключи агентов в порядке вывода отчётов.
func AllAgents() []string {
	return []string{AgentManager, AgentAccountant, AgentSMM, AgentAutomator}
}

var agentNames = map[string]string{
	AgentManager:    "Алексей",
	AgentAccountant: "Маттиас",
	AgentSMM:        "Юки",
	AgentAutomator:  "Мартин",
}

var agentEmoji = map[string]string{
	AgentManager:    "👑",
	AgentAccountant: "🏦",
	AgentSMM:        "📱",
	AgentAutomator:  "⚙️",
}

var agentRoles = map[string]string{
	AgentManager:    "CEO",
	AgentAccountant: "CFO",
	AgentSMM:        "Head of SMM",
	AgentAutomator:  "CTO",
}

// AgentName возвращает человеческое имя агента, "Алексей" для неизвестного ключа.
func AgentName(key string) string {
	if name, ok := agentNames[key]; ok {
		return name
	}
	return agentNames[AgentManager]
}

// AgentEmoji возвращает эмодзи агента для подписи сообщений.
func AgentEmoji(key string) string {
	if e, ok := agentEmoji[key]; ok {
		return e
	}
	return "🤖"
}

// AgentRole возвращает должность агента.
func AgentRole(key string) string {
	if r, ok := agentRoles[key]; ok {
		return r
	}
	return ""
}

// IsAgent проверяет, что ключ принадлежит одному из агентов корпорации.
func IsAgent(key string) bool {
	_, ok := agentNames[key]
	return ok
}
