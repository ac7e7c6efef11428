package chat

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/timzinin/zinin-corp/internal/domain"
	"github.com/timzinin/zinin-corp/internal/storage"
)

// maxStoredMessages - потолок истории на диске, старые сообщения вытесняются.
const maxStoredMessages = 200

// Repository - постоянное хранилище истории чата. Реализация на Postgres
// живёт в internal/repository/postgres, файл остаётся локальным кешем.
type Repository interface {
	LoadMessages(ctx context.Context) ([]domain.Message, error)
	SaveMessages(ctx context.Context, messages []domain.Message) error
}

// History - история чата с записью в файл и, если настроен, в Postgres.
type History struct {
	mu       sync.RWMutex
	messages []domain.Message
	store    *storage.Store
	repo     Repository
	logger   *zap.Logger
}

// NewHistory загружает историю: сначала из Postgres, при его отсутствии
// или ошибке из локального файла.
func NewHistory(ctx context.Context, store *storage.Store, repo Repository, logger *zap.Logger) *History {
	h := &History{store: store, repo: repo, logger: logger}

	if repo != nil {
		messages, err := repo.LoadMessages(ctx)
		if err == nil {
			h.messages = messages
			return h
		}
		logger.Warn("не удалось загрузить историю из базы, читаем файл", zap.Error(err))
	}
	if err := store.Load(&h.messages); err != nil {
		logger.Warn("не удалось прочитать файл истории, начинаем с пустой", zap.Error(err))
		h.messages = nil
	}
	return h
}

// Append добавляет сообщение и сохраняет историю.
func (h *History) Append(ctx context.Context, msg domain.Message) {
	h.mu.Lock()
	h.messages = append(h.messages, msg)
	if len(h.messages) > maxStoredMessages {
		h.messages = h.messages[len(h.messages)-maxStoredMessages:]
	}
	snapshot := make([]domain.Message, len(h.messages))
	copy(snapshot, h.messages)
	h.mu.Unlock()

	h.persist(ctx, snapshot)
}

// Messages возвращает копию истории.
func (h *History) Messages() []domain.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]domain.Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Len возвращает число сообщений в истории.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

// Clear очищает историю и хранилища.
func (h *History) Clear(ctx context.Context) {
	h.mu.Lock()
	h.messages = nil
	h.mu.Unlock()
	h.persist(ctx, []domain.Message{})
}

func (h *History) persist(ctx context.Context, snapshot []domain.Message) {
	if err := h.store.Save(snapshot); err != nil {
		h.logger.Error("не удалось сохранить историю в файл", zap.Error(err))
	}
	if h.repo == nil {
		return
	}
	if err := h.repo.SaveMessages(ctx, snapshot); err != nil {
		h.logger.Warn("не удалось сохранить историю в базу", zap.Error(err))
	}
}
