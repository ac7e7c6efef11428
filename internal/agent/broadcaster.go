package agent

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/timzinin/zinin-corp/internal/activity"
	"github.com/timzinin/zinin-corp/internal/chat"
	"github.com/timzinin/zinin-corp/internal/domain"
	"github.com/timzinin/zinin-corp/internal/extract"
	"github.com/timzinin/zinin-corp/internal/llm"
	"github.com/timzinin/zinin-corp/internal/metrics"
	"github.com/timzinin/zinin-corp/internal/taskpool"
)

// Reply - ответ одной персоны в рамках броадкаста.
type Reply struct {
	AgentKey  string
	AgentName string
	Emoji     string
	Content   string
	Delegated bool // ответ получен по поручению другого агента
	Err       error
}

// Broadcaster рассылает сообщение Тима по команде. Рассылка
// последовательная: каждый следующий агент видит в контексте ответы
// предыдущих.
type Broadcaster struct {
	team     map[string]*Agent
	history  *chat.History
	queue    *taskpool.Queue
	activity *activity.Tracker
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewBroadcaster собирает команду из всех персон. metrics может быть nil.
func NewBroadcaster(
	router *llm.Router,
	history *chat.History,
	queue *taskpool.Queue,
	tracker *activity.Tracker,
	m *metrics.Metrics,
	logger *zap.Logger,
) (*Broadcaster, error) {
	team := make(map[string]*Agent, len(personas))
	for _, key := range domain.AllAgents() {
		a, err := New(key, router, logger)
		if err != nil {
			return nil, err
		}
		team[key] = a
	}
	return &Broadcaster{
		team:     team,
		history:  history,
		queue:    queue,
		activity: tracker,
		metrics:  m,
		logger:   logger,
	}, nil
}

// Team возвращает персону по ключу.
func (b *Broadcaster) Team(key string) (*Agent, bool) {
	a, ok := b.team[key]
	return a, ok
}

// Broadcast отправляет сообщение выбранным по ключевым словам персонам
// и возвращает их ответы в порядке обхода, включая ответы по поручениям.
func (b *Broadcaster) Broadcast(ctx context.Context, text string) ([]Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrEmptyPrompt
	}

	started := time.Now()
	b.history.Append(ctx, domain.NewUserMessage(text))

	targets := Route(text, b.team)
	b.logger.Info("броадкаст",
		zap.Strings("targets", targets),
		zap.Int("history", b.history.Len()))

	var replies []Reply
	var delegations []extract.Delegation
	answered := make(map[string]bool)

	for _, key := range targets {
		reply := b.ask(ctx, key, text, false)
		replies = append(replies, reply)
		answered[key] = true
		if reply.Err != nil {
			continue
		}
		delegations = append(delegations, b.harvest(reply.Content, key)...)
	}

	// Поручения отрабатываются одним дополнительным кругом: по одному
	// ответу на агента, без вложенных делегирований.
	for _, d := range delegations {
		if answered[d.AgentKey] {
			continue
		}
		answered[d.AgentKey] = true
		followUp := "Поручение от коллеги: " + d.TaskDescription
		reply := b.ask(ctx, d.AgentKey, followUp, true)
		replies = append(replies, reply)
		if reply.Err == nil {
			// задачи из ответа сохраняем, новые делегирования уже не раскручиваем
			b.enqueueTasks(reply.Content, d.AgentKey)
		}
	}

	status := "ok"
	for _, r := range replies {
		if r.Err != nil {
			status = "partial"
			break
		}
	}
	if b.metrics != nil {
		b.metrics.RecordBroadcast(status, time.Since(started))
	}

	if len(replies) == 0 {
		return nil, domain.ErrNoAgentReplies
	}
	return replies, nil
}

// ask зовёт одну персону с актуальным контекстом переписки.
func (b *Broadcaster) ask(ctx context.Context, key, text string, delegated bool) Reply {
	a, ok := b.team[key]
	if !ok {
		return Reply{AgentKey: key, Err: domain.ErrUnknownAgent}
	}
	reply := Reply{
		AgentKey:  key,
		AgentName: a.Name(),
		Emoji:     a.Emoji(),
		Delegated: delegated,
	}

	prompt := text
	if contextStr := chat.FormatContext(b.history.Messages(), chat.DefaultContextMessages); contextStr != "" {
		prompt = contextStr + "\n\n---\nНовое сообщение: " + text
	}

	taskNote := "Ответ в корпоративном чате: " + text
	b.activity.TaskStarted(key, taskNote)

	started := time.Now()
	content, err := a.Reply(ctx, prompt)
	elapsed := time.Since(started)

	if err != nil {
		b.activity.TaskEnded(key, taskNote, false)
		if b.metrics != nil {
			b.metrics.RecordLLMRequest(key, "error", elapsed)
		}
		reply.Err = err
		return reply
	}
	b.activity.TaskEnded(key, taskNote, true)
	if b.metrics != nil {
		b.metrics.RecordLLMRequest(key, "ok", elapsed)
	}

	reply.Content = content
	b.history.Append(ctx, domain.NewAgentMessage(key, content))
	return reply
}

// harvest извлекает из ответа задачи для очереди и делегирования.
func (b *Broadcaster) harvest(content, sourceAgent string) []extract.Delegation {
	b.enqueueTasks(content, sourceAgent)

	delegations := extract.Delegations(content, sourceAgent)
	for _, d := range delegations {
		b.logger.Info("делегирование",
			zap.String("from", sourceAgent),
			zap.String("to", d.AgentKey))
		if b.metrics != nil {
			b.metrics.RecordDelegation(sourceAgent, d.AgentKey)
		}
	}
	return delegations
}

func (b *Broadcaster) enqueueTasks(content, sourceAgent string) {
	tasks := extract.Tasks(content, sourceAgent)
	if len(tasks) == 0 {
		return
	}
	added, err := b.queue.Add(tasks)
	if err != nil {
		b.logger.Error("не удалось сохранить извлечённые задачи", zap.Error(err))
		return
	}
	if b.metrics != nil {
		for _, t := range tasks {
			b.metrics.RecordExtractedTask(t.Assignee)
		}
	}
	b.logger.Info("задачи из ответа",
		zap.String("agent", sourceAgent),
		zap.Int("extracted", len(tasks)),
		zap.Int("queued", added))
}
