package domain

import "time"

// Статусы задач в общем пуле.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusAssigned   TaskStatus = "assigned"
	StatusInProgress TaskStatus = "in_progress"
	StatusBlocked    TaskStatus = "blocked"
	StatusDone       TaskStatus = "done"
)

// IsValid проверяет, что статус известен пулу.
func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusTodo, StatusAssigned, StatusInProgress, StatusBlocked, StatusDone:
		return true
	}
	return false
}

// Приоритеты задач: 1 самый срочный, 4 самый спокойный.
type TaskPriority int

const (
	PriorityCritical TaskPriority = 1
	PriorityHigh     TaskPriority = 2
	PriorityMedium   TaskPriority = 3
	PriorityLow      TaskPriority = 4
)

// QueuedTask - задача, извлечённая из переписки. Живёт в bounded-очереди
// до разбора владельцем, в пул попадает отдельным шагом.
type QueuedTask struct {
	Action      string     `json:"action"`
	Assignee    string     `json:"assignee"`
	Deadline    string     `json:"deadline,omitempty"`
	SourceAgent string     `json:"source_agent,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Статусы записей очереди.
const (
	QueuedPending   = "pending"
	QueuedCompleted = "completed"
)

// PoolTask - задача общего пула с зависимостями и историей статусов.
type PoolTask struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	Assignee    string       `json:"assignee,omitempty"`
	AssignedBy  string       `json:"assigned_by,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
	BlockedBy   []string     `json:"blocked_by,omitempty"`
	Blocks      []string     `json:"blocks,omitempty"`
	Result      string       `json:"result,omitempty"`
	Source      string       `json:"source,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	AssignedAt  *time.Time   `json:"assigned_at,omitempty"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

// IsOpen сообщает, что задача ещё не завершена.
func (t *PoolTask) IsOpen() bool {
	return t.Status != StatusDone
}
