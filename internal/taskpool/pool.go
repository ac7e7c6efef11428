// Package taskpool реализует общий пул задач корпорации с движком
// зависимостей, а также bounded-очередь поручений из переписки.
// Назначает задачи только CEO, роутер тегов лишь подсказывает исполнителя.
package taskpool

import (
	"encoding/hex"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/timzinin/zinin-corp/internal/domain"
	"github.com/timzinin/zinin-corp/internal/storage"
)

// Pool - общий пул задач, состояние лежит в одном JSON-файле.
type Pool struct {
	mu         sync.Mutex
	store      *storage.Store
	archiveDir string
	logger     *zap.Logger
}

// NewPool создаёт пул поверх каталога данных.
func NewPool(dataDir string, logger *zap.Logger) (*Pool, error) {
	store, err := storage.NewStore(filepath.Join(dataDir, "task_pool.json"))
	if err != nil {
		return nil, err
	}
	return &Pool{
		store:      store,
		archiveDir: filepath.Join(dataDir, "archive"),
		logger:     logger,
	}, nil
}

func shortID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:4])
}

// CreateParams - необязательные атрибуты новой задачи.
type CreateParams struct {
	Priority   domain.TaskPriority
	Tags       []string
	BlockedBy  []string
	Source     string
	AssignedBy string
	Assignee   string
}

// Create добавляет задачу в пул. Теги выводятся из названия, если не заданы.
// Задача с исполнителем сразу получает статус assigned, задача с
// незакрытыми зависимостями - blocked.
func (p *Pool) Create(title string, params CreateParams) (*domain.PoolTask, error) {
	if title == "" {
		return nil, domain.ErrEmptyTitle
	}
	if params.Priority == 0 {
		params.Priority = domain.PriorityMedium
	}
	if params.Tags == nil {
		params.Tags = AutoTag(title)
	}

	now := time.Now()
	task := domain.PoolTask{
		ID:         shortID(),
		Title:      title,
		Status:     domain.StatusTodo,
		Priority:   params.Priority,
		Tags:       params.Tags,
		BlockedBy:  params.BlockedBy,
		Source:     params.Source,
		AssignedBy: params.AssignedBy,
		Assignee:   params.Assignee,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if task.Assignee != "" {
		task.Status = domain.StatusAssigned
		task.AssignedAt = &now
	}
	if len(task.BlockedBy) > 0 {
		task.Status = domain.StatusBlocked
	}

	err := p.update(func(pool []domain.PoolTask) ([]domain.PoolTask, error) {
		// обратные ссылки blocks на зависимостях
		for _, depID := range task.BlockedBy {
			if dep := findTask(pool, depID); dep != nil && !contains(dep.Blocks, task.ID) {
				dep.Blocks = append(dep.Blocks, task.ID)
			}
		}
		return append(pool, task), nil
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info("создана задача",
		zap.String("id", task.ID),
		zap.String("title", title),
		zap.String("status", string(task.Status)))
	return &task, nil
}

// Assign назначает задачу агенту: todo или blocked переходит в assigned,
// при незакрытых зависимостях остаётся blocked.
func (p *Pool) Assign(taskID, assignee, assignedBy string) (*domain.PoolTask, error) {
	var result domain.PoolTask
	err := p.update(func(pool []domain.PoolTask) ([]domain.PoolTask, error) {
		task := findTask(pool, taskID)
		if task == nil {
			return nil, fmt.Errorf("assign %s: %w", taskID, domain.ErrTaskNotFound)
		}
		if task.Status != domain.StatusTodo && task.Status != domain.StatusBlocked {
			return nil, fmt.Errorf("assign %s in %s: %w", taskID, task.Status, domain.ErrBadTransition)
		}

		now := time.Now()
		task.Assignee = assignee
		task.AssignedBy = assignedBy
		task.AssignedAt = &now
		task.UpdatedAt = now
		if len(unmetDeps(pool, task)) > 0 {
			task.Status = domain.StatusBlocked
		} else {
			task.Status = domain.StatusAssigned
		}
		result = *task
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	p.logger.Info("задача назначена",
		zap.String("id", taskID),
		zap.String("assignee", assignee),
		zap.String("status", string(result.Status)))
	return &result, nil
}

// Start переводит задачу assigned -> in_progress.
func (p *Pool) Start(taskID string) (*domain.PoolTask, error) {
	var result domain.PoolTask
	err := p.update(func(pool []domain.PoolTask) ([]domain.PoolTask, error) {
		task := findTask(pool, taskID)
		if task == nil {
			return nil, fmt.Errorf("start %s: %w", taskID, domain.ErrTaskNotFound)
		}
		if task.Status != domain.StatusAssigned {
			return nil, fmt.Errorf("start %s in %s: %w", taskID, task.Status, domain.ErrBadTransition)
		}
		task.Status = domain.StatusInProgress
		task.UpdatedAt = time.Now()
		result = *task
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Complete завершает задачу и запускает движок зависимостей: задачи,
// ждавшие только её, разблокируются.
func (p *Pool) Complete(taskID, result string) (*domain.PoolTask, error) {
	var done domain.PoolTask
	var unblocked []string
	err := p.update(func(pool []domain.PoolTask) ([]domain.PoolTask, error) {
		task := findTask(pool, taskID)
		if task == nil {
			return nil, fmt.Errorf("complete %s: %w", taskID, domain.ErrTaskNotFound)
		}
		if task.Status != domain.StatusInProgress && task.Status != domain.StatusAssigned {
			return nil, fmt.Errorf("complete %s in %s: %w", taskID, task.Status, domain.ErrBadTransition)
		}

		now := time.Now()
		task.Status = domain.StatusDone
		task.CompletedAt = &now
		task.UpdatedAt = now
		task.Result = result
		done = *task

		unblocked = runDependencyEngine(pool, taskID)
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	if len(unblocked) > 0 {
		p.logger.Info("задача завершена, зависимости разблокированы",
			zap.String("id", taskID),
			zap.Strings("unblocked", unblocked))
	} else {
		p.logger.Info("задача завершена", zap.String("id", taskID))
	}
	return &done, nil
}

// Block вручную блокирует задачу.
func (p *Pool) Block(taskID string) (*domain.PoolTask, error) {
	var result domain.PoolTask
	err := p.update(func(pool []domain.PoolTask) ([]domain.PoolTask, error) {
		task := findTask(pool, taskID)
		if task == nil {
			return nil, fmt.Errorf("block %s: %w", taskID, domain.ErrTaskNotFound)
		}
		task.Status = domain.StatusBlocked
		task.UpdatedAt = time.Now()
		result = *task
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Delete удаляет задачу и чистит ссылки на неё у остальных.
func (p *Pool) Delete(taskID string) error {
	return p.update(func(pool []domain.PoolTask) ([]domain.PoolTask, error) {
		kept := pool[:0]
		found := false
		for _, t := range pool {
			if t.ID == taskID {
				found = true
				continue
			}
			kept = append(kept, t)
		}
		if !found {
			return nil, fmt.Errorf("delete %s: %w", taskID, domain.ErrTaskNotFound)
		}
		for i := range kept {
			kept[i].BlockedBy = remove(kept[i].BlockedBy, taskID)
			kept[i].Blocks = remove(kept[i].Blocks, taskID)
		}
		return kept, nil
	})
}

// Task возвращает задачу по идентификатору.
func (p *Pool) Task(taskID string) (*domain.PoolTask, error) {
	pool, err := p.load()
	if err != nil {
		return nil, err
	}
	task := findTask(pool, taskID)
	if task == nil {
		return nil, fmt.Errorf("task %s: %w", taskID, domain.ErrTaskNotFound)
	}
	copied := *task
	return &copied, nil
}

// All возвращает все задачи пула.
func (p *Pool) All() ([]domain.PoolTask, error) {
	return p.load()
}

// ByStatus возвращает задачи с любым из статусов.
func (p *Pool) ByStatus(statuses ...domain.TaskStatus) ([]domain.PoolTask, error) {
	pool, err := p.load()
	if err != nil {
		return nil, err
	}
	wanted := make(map[domain.TaskStatus]bool, len(statuses))
	for _, s := range statuses {
		wanted[s] = true
	}
	var out []domain.PoolTask
	for _, t := range pool {
		if wanted[t.Status] {
			out = append(out, t)
		}
	}
	return out, nil
}

// ByAssignee возвращает задачи агента.
func (p *Pool) ByAssignee(assignee string) ([]domain.PoolTask, error) {
	pool, err := p.load()
	if err != nil {
		return nil, err
	}
	var out []domain.PoolTask
	for _, t := range pool {
		if t.Assignee == assignee {
			out = append(out, t)
		}
	}
	return out, nil
}

// Ready возвращает todo-задачи без незакрытых зависимостей, срочные первыми.
func (p *Pool) Ready() ([]domain.PoolTask, error) {
	pool, err := p.load()
	if err != nil {
		return nil, err
	}
	var ready []domain.PoolTask
	for i := range pool {
		if pool[i].Status == domain.StatusTodo && len(unmetDeps(pool, &pool[i])) == 0 {
			ready = append(ready, pool[i])
		}
	}
	sort.SliceStable(ready, func(i, j int) bool {
		return ready[i].Priority < ready[j].Priority
	})
	return ready, nil
}

// Summary - счётчики задач по статусам.
type Summary struct {
	Total    int
	ByStatus map[domain.TaskStatus]int
}

// Summarize считает задачи по статусам.
func (p *Pool) Summarize() (Summary, error) {
	pool, err := p.load()
	if err != nil {
		return Summary{}, err
	}
	s := Summary{Total: len(pool), ByStatus: make(map[domain.TaskStatus]int)}
	for _, t := range pool {
		s.ByStatus[t.Status]++
	}
	return s, nil
}

// unmetDeps возвращает незавершённые зависимости задачи.
// Удалённая зависимость считается выполненной.
func unmetDeps(pool []domain.PoolTask, task *domain.PoolTask) []string {
	var unmet []string
	for _, depID := range task.BlockedBy {
		if dep := findTask(pool, depID); dep != nil && dep.Status != domain.StatusDone {
			unmet = append(unmet, depID)
		}
	}
	return unmet
}

// runDependencyEngine убирает завершённую задачу из blocked_by зависимых и
// разблокирует те, у кого зависимостей не осталось.
func runDependencyEngine(pool []domain.PoolTask, completedID string) []string {
	var unblocked []string
	for i := range pool {
		t := &pool[i]
		if !contains(t.BlockedBy, completedID) {
			continue
		}
		t.BlockedBy = remove(t.BlockedBy, completedID)

		if len(unmetDeps(pool, t)) == 0 && t.Status == domain.StatusBlocked {
			if t.Assignee != "" {
				t.Status = domain.StatusAssigned
			} else {
				t.Status = domain.StatusTodo
			}
			t.UpdatedAt = time.Now()
			unblocked = append(unblocked, t.ID)
		}
	}
	return unblocked
}

func (p *Pool) load() ([]domain.PoolTask, error) {
	var pool []domain.PoolTask
	if err := p.store.Load(&pool); err != nil {
		return nil, err
	}
	return pool, nil
}

// update загружает пул, применяет fn и сохраняет результат под мьютексом,
// чтобы read-modify-write был атомарным в рамках процесса.
func (p *Pool) update(fn func([]domain.PoolTask) ([]domain.PoolTask, error)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	pool, err := p.load()
	if err != nil {
		return err
	}
	pool, err = fn(pool)
	if err != nil {
		return err
	}
	return p.store.Save(pool)
}

func findTask(pool []domain.PoolTask, id string) *domain.PoolTask {
	for i := range pool {
		if pool[i].ID == id {
			return &pool[i]
		}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func remove(list []string, v string) []string {
	out := list[:0]
	for _, item := range list {
		if item != v {
			out = append(out, item)
		}
	}
	return out
}
