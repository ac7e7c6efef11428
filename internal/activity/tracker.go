// Package activity фиксирует, чем заняты агенты: статусы, события задач
// и переговоры между агентами. Журнал читает монитор-сервер.
package activity

import (
	"math"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/timzinin/zinin-corp/internal/domain"
	"github.com/timzinin/zinin-corp/internal/storage"
)

const (
	maxEvents = 500
	// описания задач в журнале усечены, полный текст живёт в пуле
	maxTaskRunes = 120
	// оценка длительности задачи без истории, секунды
	defaultTaskDurationSec = 90
)

// Статусы агента.
const (
	StatusWorking = "working"
	StatusIdle    = "idle"
)

// Типы событий журнала.
const (
	EventTaskStart     = "task_start"
	EventTaskEnd       = "task_end"
	EventCommunication = "communication"
)

// AgentStatus - текущее состояние одного агента.
type AgentStatus struct {
	Status              string     `json:"status"`
	Task                string     `json:"task,omitempty"`
	StartedAt           *time.Time `json:"started_at,omitempty"`
	CommunicatingWith   string     `json:"communicating_with,omitempty"`
	LastTask            string     `json:"last_task,omitempty"`
	LastTaskTime        *time.Time `json:"last_task_time,omitempty"`
	LastTaskSuccess     bool       `json:"last_task_success,omitempty"`
	LastTaskDurationSec int        `json:"last_task_duration_sec,omitempty"`
}

// Event - запись журнала активности.
type Event struct {
	Type        string    `json:"type"`
	Agent       string    `json:"agent,omitempty"`
	FromAgent   string    `json:"from_agent,omitempty"`
	ToAgent     string    `json:"to_agent,omitempty"`
	Task        string    `json:"task,omitempty"`
	Description string    `json:"description,omitempty"`
	Success     bool      `json:"success,omitempty"`
	DurationSec int       `json:"duration_sec,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

type log struct {
	Events      []Event                `json:"events"`
	AgentStatus map[string]AgentStatus `json:"agent_status"`
}

// Tracker - журнал активности с JSON-персистентностью.
type Tracker struct {
	mu     sync.Mutex
	store  *storage.Store
	logger *zap.Logger
}

// NewTracker создаёт трекер поверх каталога данных.
func NewTracker(dataDir string, logger *zap.Logger) (*Tracker, error) {
	store, err := storage.NewStore(filepath.Join(dataDir, "activity_log.json"))
	if err != nil {
		return nil, err
	}
	return &Tracker{store: store, logger: logger}, nil
}

// TaskStarted отмечает, что агент взял задачу в работу.
func (t *Tracker) TaskStarted(agentKey, task string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	data := t.load()
	now := time.Now()
	task = truncate(task, maxTaskRunes)

	data.AgentStatus[agentKey] = AgentStatus{
		Status:    StatusWorking,
		Task:      task,
		StartedAt: &now,
	}
	data.Events = append(data.Events, Event{
		Type:      EventTaskStart,
		Agent:     agentKey,
		Task:      task,
		Timestamp: now,
	})
	t.save(data)
}

// TaskEnded отмечает завершение задачи и считает её длительность.
func (t *Tracker) TaskEnded(agentKey, task string, success bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	data := t.load()
	now := time.Now()
	task = truncate(task, maxTaskRunes)

	durationSec := 0
	if prev, ok := data.AgentStatus[agentKey]; ok && prev.StartedAt != nil {
		durationSec = int(now.Sub(*prev.StartedAt).Seconds())
	}

	data.AgentStatus[agentKey] = AgentStatus{
		Status:              StatusIdle,
		LastTask:            task,
		LastTaskTime:        &now,
		LastTaskSuccess:     success,
		LastTaskDurationSec: durationSec,
	}
	data.Events = append(data.Events, Event{
		Type:        EventTaskEnd,
		Agent:       agentKey,
		Task:        task,
		Success:     success,
		DurationSec: durationSec,
		Timestamp:   now,
	})
	t.save(data)
}

// CommunicationStarted фиксирует передачу контекста между агентами.
func (t *Tracker) CommunicationStarted(fromAgent, toAgent, description string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	data := t.load()
	now := time.Now()

	if st, ok := data.AgentStatus[fromAgent]; ok {
		st.CommunicatingWith = toAgent
		data.AgentStatus[fromAgent] = st
	}
	if st, ok := data.AgentStatus[toAgent]; ok {
		st.CommunicatingWith = fromAgent
		data.AgentStatus[toAgent] = st
	}

	data.Events = append(data.Events, Event{
		Type:        EventCommunication,
		FromAgent:   fromAgent,
		ToAgent:     toAgent,
		Description: truncate(description, maxTaskRunes),
		Timestamp:   now,
	})
	t.save(data)
}

// CommunicationEnded снимает индикатор переговоров с агента.
func (t *Tracker) CommunicationEnded(agentKey string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	data := t.load()
	if st, ok := data.AgentStatus[agentKey]; ok {
		st.CommunicatingWith = ""
		data.AgentStatus[agentKey] = st
		t.save(data)
	}
}

// Status возвращает состояние агента, idle по умолчанию.
func (t *Tracker) Status(agentKey string) AgentStatus {
	t.mu.Lock()
	data := t.load()
	t.mu.Unlock()

	if st, ok := data.AgentStatus[agentKey]; ok {
		return st
	}
	return AgentStatus{Status: StatusIdle}
}

// AllStatuses возвращает состояние всех агентов корпорации.
func (t *Tracker) AllStatuses() map[string]AgentStatus {
	t.mu.Lock()
	data := t.load()
	t.mu.Unlock()

	result := make(map[string]AgentStatus, len(domain.AllAgents()))
	for _, key := range domain.AllAgents() {
		if st, ok := data.AgentStatus[key]; ok {
			result[key] = st
		} else {
			result[key] = AgentStatus{Status: StatusIdle}
		}
	}
	return result
}

// RecentEvents возвращает события за hours часов, не больше limit.
func (t *Tracker) RecentEvents(hours, limit int) []Event {
	t.mu.Lock()
	data := t.load()
	t.mu.Unlock()

	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour)
	var events []Event
	for _, e := range data.Events {
		if !e.Timestamp.Before(cutoff) {
			events = append(events, e)
		}
	}
	if len(events) > limit {
		events = events[len(events)-limit:]
	}
	return events
}

// TaskCount считает завершённые задачи агента за hours часов.
func (t *Tracker) TaskCount(agentKey string, hours int) int {
	count := 0
	for _, e := range t.RecentEvents(hours, maxEvents) {
		if e.Type == EventTaskEnd && e.Agent == agentKey {
			count++
		}
	}
	return count
}

// Progress оценивает прогресс текущей задачи агента от 0 до 0.95 по
// средней длительности прошлых задач. Для простаивающего агента -1.
func (t *Tracker) Progress(agentKey string) float64 {
	t.mu.Lock()
	data := t.load()
	t.mu.Unlock()

	st, ok := data.AgentStatus[agentKey]
	if !ok || st.Status != StatusWorking || st.StartedAt == nil {
		return -1
	}
	elapsed := time.Since(*st.StartedAt).Seconds()

	var sum, n float64
	for _, e := range data.Events {
		if e.Type == EventTaskEnd && e.Agent == agentKey && e.DurationSec > 0 {
			sum += float64(e.DurationSec)
			n++
		}
	}
	avg := float64(defaultTaskDurationSec)
	if n > 0 {
		avg = sum / n
	}
	if avg < 1 {
		avg = 1
	}
	progress := elapsed / avg
	if progress > 0.95 {
		progress = 0.95
	}
	return math.Round(progress*100) / 100
}

func (t *Tracker) load() log {
	var data log
	if err := t.store.Load(&data); err != nil {
		t.logger.Warn("не удалось прочитать журнал активности", zap.Error(err))
	}
	if data.AgentStatus == nil {
		data.AgentStatus = make(map[string]AgentStatus)
	}
	return data
}

func (t *Tracker) save(data log) {
	if len(data.Events) > maxEvents {
		data.Events = data.Events[len(data.Events)-maxEvents:]
	}
	if err := t.store.Save(data); err != nil {
		t.logger.Error("не удалось сохранить журнал активности", zap.Error(err))
	}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
