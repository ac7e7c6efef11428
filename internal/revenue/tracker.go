// Package revenue отслеживает MRR по каналам корпорации, ведёт дневные
// срезы и считает разрыв до цели.
package revenue

import (
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/timzinin/zinin-corp/internal/domain"
	"github.com/timzinin/zinin-corp/internal/storage"
)

// Стартовые каналы дохода.
var defaultChannels = map[string]domain.Channel{
	"krmktl":   {Name: "Крипто Маркетологи", MRR: 350, Members: 215, Target: 1000},
	"sborka":   {Name: "СБОРКА", MRR: 0, Members: 0, Target: 800},
	"botanica": {Name: "Ботаника", MRR: 165, Members: 3, Target: 600},
	"personal": {Name: "Personal Brand", MRR: 0, Members: 0, Target: 500},
	"sponsors": {Name: "Sponsors", MRR: 0, Members: 0, Target: 400},
}

// ChannelOrder - порядок каналов в отчётах.
var ChannelOrder = []string{"krmktl", "sborka", "botanica", "personal", "sponsors"}

// Tracker - трекер дохода с JSON-персистентностью.
type Tracker struct {
	mu        sync.Mutex
	store     *storage.Store
	targetMRR float64
	deadline  string
	logger    *zap.Logger
}

// NewTracker создаёт трекер. Если файла состояния нет, каналы
// инициализируются стартовыми значениями.
func NewTracker(dataDir string, targetMRR float64, deadline string, logger *zap.Logger) (*Tracker, error) {
	store, err := storage.NewStore(filepath.Join(dataDir, "revenue.json"))
	if err != nil {
		return nil, err
	}
	return &Tracker{
		store:     store,
		targetMRR: targetMRR,
		deadline:  deadline,
		logger:    logger,
	}, nil
}

func (t *Tracker) load() domain.RevenueData {
	var data domain.RevenueData
	if err := t.store.Load(&data); err != nil {
		t.logger.Warn("не удалось прочитать revenue.json, стартуем с дефолтов", zap.Error(err))
		data = domain.RevenueData{}
	}
	if data.Channels == nil {
		data = domain.RevenueData{
			TargetMRR: t.targetMRR,
			Deadline:  t.deadline,
			Channels:  make(map[string]domain.Channel, len(defaultChannels)),
			UpdatedAt: time.Now(),
		}
		for k, v := range defaultChannels {
			data.Channels[k] = v
		}
	}
	return data
}

func (t *Tracker) save(data domain.RevenueData) {
	data.UpdatedAt = time.Now()
	if err := t.store.Save(data); err != nil {
		t.logger.Error("не удалось сохранить revenue.json", zap.Error(err))
	}
}

// Summary - снимок состояния дохода.
type Summary struct {
	Channels  map[string]domain.Channel
	TotalMRR  float64
	TargetMRR float64
	Gap       float64
	DaysLeft  int
	Deadline  string
	UpdatedAt time.Time
}

// Summary возвращает текущее состояние: каналы, сумму, разрыв, дни до дедлайна.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	data := t.load()
	t.mu.Unlock()

	return Summary{
		Channels:  data.Channels,
		TotalMRR:  data.TotalMRR(),
		TargetMRR: data.TargetMRR,
		Gap:       data.Gap(),
		DaysLeft:  daysLeft(data.Deadline),
		Deadline:  data.Deadline,
		UpdatedAt: data.UpdatedAt,
	}
}

func daysLeft(deadline string) int {
	d, err := time.Parse("2006-01-02", deadline)
	if err != nil {
		return 0
	}
	days := int(time.Until(d).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// ChannelUpdate - необязательные поля для обновления канала.
type ChannelUpdate struct {
	MRR     *float64
	Members *int
	Target  *float64
}

// UpdateChannel обновляет канал, создавая его при необходимости.
func (t *Tracker) UpdateChannel(key string, upd ChannelUpdate) domain.Channel {
	t.mu.Lock()
	defer t.mu.Unlock()

	data := t.load()
	ch, ok := data.Channels[key]
	if !ok {
		ch = domain.Channel{Name: key}
	}
	if upd.MRR != nil {
		ch.MRR = *upd.MRR
	}
	if upd.Members != nil {
		ch.Members = *upd.Members
	}
	if upd.Target != nil {
		ch.Target = *upd.Target
	}
	data.Channels[key] = ch
	t.save(data)
	return ch
}

// DailySnapshot добавляет дневной срез в историю. Срез за сегодня
// перезаписывается, дубликатов по дате не бывает.
func (t *Tracker) DailySnapshot() domain.RevenueSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	data := t.load()
	today := time.Now().Format("2006-01-02")

	snapshot := domain.RevenueSnapshot{
		Date:     today,
		TotalMRR: data.TotalMRR(),
		Channels: make(map[string]float64, len(data.Channels)),
		Gap:      data.Gap(),
	}
	for k, ch := range data.Channels {
		snapshot.Channels[k] = ch.MRR
	}

	history := data.History[:0]
	for _, h := range data.History {
		if h.Date != today {
			history = append(history, h)
		}
	}
	data.History = append(history, snapshot)
	t.save(data)
	return snapshot
}

// History возвращает последние days срезов.
func (t *Tracker) History(days int) []domain.RevenueSnapshot {
	t.mu.Lock()
	data := t.load()
	t.mu.Unlock()

	if len(data.History) > days {
		return data.History[len(data.History)-days:]
	}
	return data.History
}
