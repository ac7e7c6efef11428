package llm

import (
	"strings"

	"go.uber.org/zap"
)

// Complexity - оценка сложности запроса для выбора модели.
type Complexity int

const (
	Simple Complexity = iota
	Moderate
	Complex
)

func (c Complexity) String() string {
	switch c {
	case Simple:
		return "simple"
	case Moderate:
		return "moderate"
	default:
		return "complex"
	}
}

// Агенты, которым по умолчанию положена сильная модель.
var complexAgents = map[string]bool{
	"manager":    true, // CEO всегда получает лучшую модель
	"accountant": true, // финансы, точность критична
	"automator":  true, // архитектура, точность критична
}

// Ключевые слова сложных запросов.
var complexKeywords = []string{
	"стратеги", "strategy", "обзор", "review", "отчёт", "отчет", "report",
	"делегир", "delegate", "бюджет", "budget", "портфел", "portfolio",
	"аудит", "audit", "архитектур", "architecture", "миграци", "migration",
}

// Ключевые слова простых запросов.
var simpleKeywords = []string{
	"статус", "status", "баланс", "balance", "помощь", "help",
	"время", "time", "привет", "hello", "здравствуй",
	"список", "list", "покажи", "show",
}

// AssessComplexity оценивает сложность запроса по агенту, ключевым
// словам и длине сообщения.
func AssessComplexity(message, agentKey string) Complexity {
	base := Moderate
	if complexAgents[agentKey] {
		base = Complex
	}

	lower := strings.ToLower(message)
	for _, kw := range complexKeywords {
		if strings.Contains(lower, kw) {
			return Complex
		}
	}
	for _, kw := range simpleKeywords {
		if strings.Contains(lower, kw) {
			return Simple
		}
	}

	runes := len([]rune(message))
	switch {
	case runes < 30:
		if base > Moderate {
			return Moderate
		}
		return base
	case runes > 300:
		if base < Moderate {
			return Moderate
		}
		return base
	}
	return base
}

// Router выбирает клиента под запрос: сильная модель для CEO и сложных
// задач, командная для остального, быстрая для простых. Быстрый клиент
// опционален, без него простые запросы идут на командную модель.
type Router struct {
	ceo    Client
	team   Client
	fast   Client
	logger *zap.Logger
}

// NewRouter собирает роутер. team и fast могут быть nil, тогда
// соответствующие запросы обслуживает ceo-клиент.
func NewRouter(ceo, team, fast Client, logger *zap.Logger) *Router {
	if team == nil {
		team = ceo
	}
	return &Router{ceo: ceo, team: team, fast: fast, logger: logger}
}

// ClientFor возвращает клиента под агента и сообщение.
func (r *Router) ClientFor(agentKey, message string) Client {
	complexity := AssessComplexity(message, agentKey)

	var client Client
	switch complexity {
	case Complex:
		client = r.ceo
	case Simple:
		if r.fast != nil {
			client = r.fast
		} else {
			client = r.team
		}
	default:
		client = r.team
	}

	r.logger.Debug("модель выбрана",
		zap.String("agent", agentKey),
		zap.String("complexity", complexity.String()))
	return client
}
