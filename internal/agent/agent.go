// Package agent - персоны корпорации и последовательный броадкаст
// сообщений Тима по команде.
package agent

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/timzinin/zinin-corp/internal/domain"
	"github.com/timzinin/zinin-corp/internal/llm"
)

// Agent - одна персона: имя, ключевые слова, системный промпт.
type Agent struct {
	key      string
	name     string
	title    string
	emoji    string
	keywords []string
	prompt   string
	router   *llm.Router
	logger   *zap.Logger
}

// New создаёт персону по ключу агента. Неизвестный ключ вернёт
// domain.ErrUnknownAgent.
func New(key string, router *llm.Router, logger *zap.Logger) (*Agent, error) {
	spec, ok := personas[key]
	if !ok {
		return nil, domain.ErrUnknownAgent
	}
	return &Agent{
		key:      key,
		name:     spec.name,
		title:    spec.title,
		emoji:    spec.emoji,
		keywords: spec.keywords,
		prompt:   spec.prompt,
		router:   router,
		logger:   logger,
	}, nil
}

func (a *Agent) Key() string   { return a.key }
func (a *Agent) Name() string  { return a.name }
func (a *Agent) Title() string { return a.title }
func (a *Agent) Emoji() string { return a.emoji }

// CanHandle возвращает уверенность, что сообщение адресовано этой
// персоне, по доле совпавших ключевых слов.
func (a *Agent) CanHandle(message string) float64 {
	if len(a.keywords) == 0 {
		return 0
	}
	msg := strings.ToLower(message)
	matches := 0
	for _, kw := range a.keywords {
		if strings.Contains(msg, kw) {
			matches++
		}
	}
	if matches == 0 {
		return 0
	}
	conf := float64(matches) / float64(len(a.keywords)) * 3
	if conf > 1 {
		conf = 1
	}
	return conf
}

// Reply зовёт LLM с системным промптом персоны. prompt уже содержит
// контекст переписки, выбор модели делает llm.Router по сложности.
func (a *Agent) Reply(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", domain.ErrEmptyPrompt
	}
	client := a.router.ClientFor(a.key, prompt)
	reply, err := client.CompleteWithSystem(ctx, a.prompt, prompt)
	if err != nil {
		a.logger.Error("ответ персоны не получен",
			zap.String("agent", a.key), zap.Error(err))
		return "", err
	}
	return reply, nil
}

var normalizeRe = regexp.MustCompile(`[.,!?;:]+`)

// Route выбирает получателей сообщения. Обращение ко всей команде или
// отсутствие совпадений отдаёт сообщение CEO.
func Route(message string, team map[string]*Agent) []string {
	normalized := strings.ToLower(normalizeRe.ReplaceAllString(message, ""))
	normalized = strings.Join(strings.Fields(normalized), " ")

	for _, w := range teamWords {
		if strings.Contains(normalized, w) {
			return domain.AllAgents()
		}
	}

	type scored struct {
		key  string
		conf float64
	}
	var hits []scored
	for key, a := range team {
		if conf := a.CanHandle(normalized); conf > 0 {
			hits = append(hits, scored{key: key, conf: conf})
		}
	}
	if len(hits) == 0 {
		return []string{domain.AgentManager}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].conf != hits[j].conf {
			return hits[i].conf > hits[j].conf
		}
		return hits[i].key < hits[j].key
	})

	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.key)
	}
	return out
}
