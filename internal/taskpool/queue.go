package taskpool

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/timzinin/zinin-corp/internal/domain"
	"github.com/timzinin/zinin-corp/internal/storage"
)

// maxQueuedTasks - потолок очереди, при переполнении старые записи вытесняются.
const maxQueuedTasks = 100

// Queue - очередь поручений, извлечённых из переписки. Ждут разбора
// владельцем, в общий пул не попадают автоматически.
type Queue struct {
	mu     sync.Mutex
	store  *storage.Store
	logger *zap.Logger
}

// NewQueue создаёт очередь поверх каталога данных.
func NewQueue(dataDir string, logger *zap.Logger) (*Queue, error) {
	store, err := storage.NewStore(filepath.Join(dataDir, "task_queue.json"))
	if err != nil {
		return nil, err
	}
	return &Queue{store: store, logger: logger}, nil
}

// Add добавляет поручения в очередь. Дубликаты по паре
// (исполнитель, нормализованный текст) среди незакрытых записей
// пропускаются. Возвращает число добавленных.
func (q *Queue) Add(tasks []domain.QueuedTask) (int, error) {
	if len(tasks) == 0 {
		return 0, nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	queue, err := q.load()
	if err != nil {
		return 0, err
	}

	pending := make(map[string]bool)
	for _, t := range queue {
		if t.Status != domain.QueuedCompleted {
			pending[dedupKey(t)] = true
		}
	}

	added := 0
	for _, t := range tasks {
		key := dedupKey(t)
		if pending[key] {
			continue
		}
		queue = append(queue, t)
		pending[key] = true
		added++
	}
	if added == 0 {
		return 0, nil
	}

	if len(queue) > maxQueuedTasks {
		queue = queue[len(queue)-maxQueuedTasks:]
	}
	if err := q.store.Save(queue); err != nil {
		return 0, err
	}
	q.logger.Info("поручения добавлены в очередь", zap.Int("added", added))
	return added, nil
}

// Complete помечает запись очереди выполненной по индексу.
func (q *Queue) Complete(index int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	queue, err := q.load()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(queue) {
		return domain.ErrTaskIndexRange
	}
	now := time.Now()
	queue[index].Status = domain.QueuedCompleted
	queue[index].CompletedAt = &now
	return q.store.Save(queue)
}

// Pending возвращает незакрытые поручения.
func (q *Queue) Pending() ([]domain.QueuedTask, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	queue, err := q.load()
	if err != nil {
		return nil, err
	}
	var pending []domain.QueuedTask
	for _, t := range queue {
		if t.Status != domain.QueuedCompleted {
			pending = append(pending, t)
		}
	}
	return pending, nil
}

// All возвращает очередь целиком.
func (q *Queue) All() ([]domain.QueuedTask, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.load()
}

func (q *Queue) load() ([]domain.QueuedTask, error) {
	var queue []domain.QueuedTask
	if err := q.store.Load(&queue); err != nil {
		return nil, err
	}
	return queue, nil
}

func dedupKey(t domain.QueuedTask) string {
	action := strings.Join(strings.Fields(strings.ToLower(t.Action)), " ")
	return t.Assignee + "|" + action
}
