package taskpool

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/timzinin/zinin-corp/internal/domain"
)

// ArchiveDone выносит завершённые задачи старше keepRecentDays в дневные
// файлы архива data/archive/YYYY-MM-DD.json. Возвращает число перенесённых.
func (p *Pool) ArchiveDone(keepRecentDays int) (int, error) {
	cutoff := time.Now().AddDate(0, 0, -keepRecentDays)
	archived := 0
	byDate := make(map[string][]domain.PoolTask)

	err := p.update(func(pool []domain.PoolTask) ([]domain.PoolTask, error) {
		kept := pool[:0]
		for _, t := range pool {
			if t.Status == domain.StatusDone && t.CompletedAt != nil && t.CompletedAt.Before(cutoff) {
				date := t.CompletedAt.Format("2006-01-02")
				byDate[date] = append(byDate[date], t)
				archived++
				continue
			}
			kept = append(kept, t)
		}
		if archived == 0 {
			return kept, nil
		}

		if err := os.MkdirAll(p.archiveDir, 0o755); err != nil {
			return nil, fmt.Errorf("create archive dir: %w", err)
		}
		for date, tasks := range byDate {
			if err := p.appendArchive(date, tasks); err != nil {
				return nil, err
			}
		}
		return kept, nil
	})
	if err != nil {
		return 0, err
	}
	if archived > 0 {
		p.logger.Info("задачи перенесены в архив",
			zap.Int("archived", archived),
			zap.Int("files", len(byDate)))
	}
	return archived, nil
}

func (p *Pool) appendArchive(date string, tasks []domain.PoolTask) error {
	path := filepath.Join(p.archiveDir, date+".json")

	var existing []domain.PoolTask
	if data, err := os.ReadFile(path); err == nil {
		// битый архив перезаписываем заново
		_ = json.Unmarshal(data, &existing)
	}
	existing = append(existing, tasks...)

	data, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal archive %s: %w", date, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write archive %s: %w", date, err)
	}
	return nil
}

// Archived возвращает архив задач за дату в формате YYYY-MM-DD.
func (p *Pool) Archived(date string) ([]domain.PoolTask, error) {
	path := filepath.Join(p.archiveDir, date+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read archive %s: %w", date, err)
	}
	var tasks []domain.PoolTask
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("parse archive %s: %w", date, err)
	}
	return tasks, nil
}

// ArchiveStats - сводка по архиву.
type ArchiveStats struct {
	Files      int
	TotalTasks int
	Dates      []string
}

// ArchiveSummary считает файлы и задачи в архиве.
func (p *Pool) ArchiveSummary() (ArchiveStats, error) {
	entries, err := os.ReadDir(p.archiveDir)
	if err != nil {
		if os.IsNotExist(err) {
			return ArchiveStats{}, nil
		}
		return ArchiveStats{}, fmt.Errorf("read archive dir: %w", err)
	}

	var stats ArchiveStats
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		date := strings.TrimSuffix(entry.Name(), ".json")
		stats.Files++
		stats.Dates = append(stats.Dates, date)

		tasks, err := p.Archived(date)
		if err != nil {
			continue
		}
		stats.TotalTasks += len(tasks)
	}
	sort.Strings(stats.Dates)
	return stats, nil
}
