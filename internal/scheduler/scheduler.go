// Package scheduler гоняет фоновые регламентные работы корпорации.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/timzinin/zinin-corp/internal/domain"
	"github.com/timzinin/zinin-corp/internal/revenue"
	"github.com/timzinin/zinin-corp/internal/taskpool"
)

// Sender доставляет отчёты владельцу. Реализуется телеграм-ботом.
type Sender interface {
	Send(chatID int64, text string) error
}

type Config struct {
	OwnerChatID    int64
	SnapshotEvery  time.Duration // срез MRR, по умолчанию сутки
	ArchiveEvery   time.Duration // чистка пула, по умолчанию сутки
	PatrolEvery    time.Duration // патруль зависших задач, по умолчанию 6 часов
	StaleDays      int           // задача считается зависшей после стольких дней
	KeepRecentDays int           // завершённые моложе этого не архивируются
}

// Scheduler владеет набором тикерных циклов, живущих до отмены ctx.
type Scheduler struct {
	cfg     Config
	revenue *revenue.Tracker
	pool    *taskpool.Pool
	sender  Sender
	logger  *zap.Logger
}

func New(cfg Config, rev *revenue.Tracker, pool *taskpool.Pool, sender Sender, logger *zap.Logger) *Scheduler {
	if cfg.SnapshotEvery <= 0 {
		cfg.SnapshotEvery = 24 * time.Hour
	}
	if cfg.ArchiveEvery <= 0 {
		cfg.ArchiveEvery = 24 * time.Hour
	}
	if cfg.PatrolEvery <= 0 {
		cfg.PatrolEvery = 6 * time.Hour
	}
	if cfg.StaleDays <= 0 {
		cfg.StaleDays = taskpool.DefaultStaleDays
	}
	if cfg.KeepRecentDays <= 0 {
		cfg.KeepRecentDays = 7
	}
	return &Scheduler{
		cfg:     cfg,
		revenue: rev,
		pool:    pool,
		sender:  sender,
		logger:  logger,
	}
}

// Run блокируется до отмены ctx.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup

	jobs := []struct {
		name  string
		every time.Duration
		fn    func()
	}{
		{"revenue_snapshot", s.cfg.SnapshotEvery, s.snapshotRevenue},
		{"archive_sweep", s.cfg.ArchiveEvery, s.sweepArchive},
		{"stale_patrol", s.cfg.PatrolEvery, s.patrolStaleTasks},
	}

	for _, job := range jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runJob(ctx, job.name, job.every, job.fn)
		}()
	}

	s.logger.Info("scheduler started",
		zap.Duration("snapshot_every", s.cfg.SnapshotEvery),
		zap.Duration("archive_every", s.cfg.ArchiveEvery),
		zap.Duration("patrol_every", s.cfg.PatrolEvery),
	)

	wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runJob(ctx context.Context, name string, every time.Duration, fn func()) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

// snapshotRevenue фиксирует дневной срез MRR в истории трекера.
func (s *Scheduler) snapshotRevenue() {
	snap := s.revenue.DailySnapshot()
	s.logger.Info("дневной срез дохода",
		zap.String("date", snap.Date),
		zap.Float64("total_mrr", snap.TotalMRR),
		zap.Float64("gap", snap.Gap),
	)
}

// sweepArchive уносит старые завершённые задачи в дневные архивы.
func (s *Scheduler) sweepArchive() {
	moved, err := s.pool.ArchiveDone(s.cfg.KeepRecentDays)
	if err != nil {
		s.logger.Error("archive sweep failed", zap.Error(err))
		return
	}
	if moved > 0 {
		s.logger.Info("задачи заархивированы", zap.Int("moved", moved))
	}
}

// patrolStaleTasks ищет зависшие задачи и шлёт владельцу отчёт от CTO.
func (s *Scheduler) patrolStaleTasks() {
	stale, err := s.pool.Stale(s.cfg.StaleDays)
	if err != nil {
		s.logger.Error("stale patrol failed", zap.Error(err))
		return
	}
	if len(stale) == 0 {
		return
	}

	s.logger.Warn("найдены зависшие задачи", zap.Int("count", len(stale)))

	if s.sender == nil || s.cfg.OwnerChatID == 0 {
		return
	}

	key := domain.AgentAutomator
	text := fmt.Sprintf("%s <b>%s</b> (%s):\n%s",
		domain.AgentEmoji(key), domain.AgentName(key), domain.AgentRole(key),
		taskpool.FormatStaleReport(stale))
	if err := s.sender.Send(s.cfg.OwnerChatID, text); err != nil {
		s.logger.Error("stale report send failed", zap.Error(err))
	}
}
