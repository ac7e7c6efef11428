package tribute

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/timzinin/zinin-corp/internal/domain"
	"github.com/timzinin/zinin-corp/internal/storage"
)

// rawEvent - тело вебхука Tribute как оно приходит. Идентификатор
// пользователя бывает числом и строкой, поэтому json.Number.
type rawEvent struct {
	ID               string      `json:"id"`
	EventID          string      `json:"event_id"`
	Event            string      `json:"event"`
	Amount           float64     `json:"amount"`
	Currency         string      `json:"currency"`
	TelegramUserID   json.Number `json:"telegram_user_id"`
	UserID           json.Number `json:"user_id"`
	SubscriberID     json.Number `json:"subscriber_id"`
	SubscriptionName string      `json:"subscription_name"`
	ChannelName      string      `json:"channel_name"`
}

func (r rawEvent) eventID() string {
	if r.ID != "" {
		return r.ID
	}
	return r.EventID
}

func (r rawEvent) userID() string {
	for _, n := range []json.Number{r.TelegramUserID, r.UserID, r.SubscriberID} {
		if n.String() != "" {
			return n.String()
		}
	}
	return ""
}

// Store - идемпотентное хранилище событий вебхуков в JSON-файле.
// Дубликаты по id события отбрасываются, событие получает received_at.
type Store struct {
	mu     sync.Mutex
	store  *storage.Store
	logger *zap.Logger
}

// NewStore открывает хранилище платежей в dataDir.
func NewStore(dataDir string, logger *zap.Logger) (*Store, error) {
	st, err := storage.NewStore(filepath.Join(dataDir, "tribute_payments.json"))
	if err != nil {
		return nil, err
	}
	return &Store{store: st, logger: logger}, nil
}

// Add разбирает тело вебхука и сохраняет событие. channel - канал
// выручки, определённый по проекту, может быть пустым. Повторное
// событие возвращает domain.ErrDuplicateEvent.
func (s *Store) Add(body []byte, channel string) (domain.TributeEvent, error) {
	var raw rawEvent
	if err := json.Unmarshal(body, &raw); err != nil {
		return domain.TributeEvent{}, fmt.Errorf("parse tribute event: %w", err)
	}

	ev := domain.TributeEvent{
		ID:         raw.eventID(),
		Event:      raw.Event,
		Channel:    channel,
		UserID:     raw.userID(),
		Amount:     raw.Amount,
		Currency:   raw.Currency,
		ReceivedAt: time.Now().UTC(),
	}
	if ev.Channel == "" {
		ev.Channel = channelFromName(raw.ChannelName)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var events []domain.TributeEvent
	if err := s.store.Load(&events); err != nil {
		return domain.TributeEvent{}, err
	}
	if ev.ID != "" {
		for _, existing := range events {
			if existing.ID == ev.ID {
				s.logger.Info("повторное событие Tribute",
					zap.String("id", ev.ID), zap.String("event", ev.Event))
				return existing, domain.ErrDuplicateEvent
			}
		}
	}
	events = append(events, ev)
	if err := s.store.Save(events); err != nil {
		return domain.TributeEvent{}, err
	}
	s.logger.Info("событие Tribute сохранено",
		zap.String("event", ev.Event),
		zap.String("channel", ev.Channel),
		zap.String("user", ev.UserID))
	return ev, nil
}

// Events возвращает все сохранённые события. Пустой channel не фильтрует.
func (s *Store) Events(channel string) ([]domain.TributeEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var events []domain.TributeEvent
	if err := s.store.Load(&events); err != nil {
		return nil, err
	}
	if channel == "" {
		return events, nil
	}
	filtered := events[:0:0]
	for _, ev := range events {
		if ev.Channel == channel {
			filtered = append(filtered, ev)
		}
	}
	return filtered, nil
}

// Stats - счётчики подписочных событий.
type Stats struct {
	ActiveNow int
	New       int
	Renewed   int
	Cancelled int
}

// SubscriptionStats считает активных подписчиков реплеем событий.
func (s *Store) SubscriptionStats() (Stats, error) {
	events, err := s.Events("")
	if err != nil {
		return Stats{}, err
	}

	var st Stats
	active := make(map[string]bool)
	for _, ev := range events {
		switch ev.Event {
		case domain.TributeNewSubscription:
			st.New++
			active[ev.UserID] = true
		case domain.TributeRenewedSubscription:
			st.Renewed++
			active[ev.UserID] = true
		case domain.TributeCancelledSubscription:
			st.Cancelled++
			delete(active, ev.UserID)
		}
	}
	st.ActiveNow = len(active)
	return st, nil
}

// FormatStats собирает сводку подписок по вебхукам.
func FormatStats(st Stats) string {
	out := "TRIBUTE SUBSCRIPTIONS (webhook data):\n" +
		"  Active now: ~" + strconv.Itoa(st.ActiveNow) + "\n" +
		"  Total new: " + strconv.Itoa(st.New) + "\n" +
		"  Renewals: " + strconv.Itoa(st.Renewed) + "\n" +
		"  Cancelled: " + strconv.Itoa(st.Cancelled)
	if st.New > 0 {
		churn := float64(st.Cancelled) / float64(st.New) * 100
		out += fmt.Sprintf("\n  Churn rate: %.1f%%", churn)
	}
	return out
}

// channelFromName угадывает канал по channel_name из payload'а,
// когда вебхук пришёл без ?project=.
func channelFromName(name string) string {
	if name == "" {
		return ""
	}
	lower := strings.ToLower(name)
	for key, p := range Projects {
		if strings.Contains(lower, key) || strings.Contains(lower, strings.ToLower(p.DisplayName)) {
			return p.Channel
		}
	}
	return ""
}
