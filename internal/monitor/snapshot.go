package monitor

import (
	"time"

	"go.uber.org/zap"

	"github.com/timzinin/zinin-corp/internal/activity"
	"github.com/timzinin/zinin-corp/internal/domain"
	"github.com/timzinin/zinin-corp/internal/ratemonitor"
)

const maxActiveTasks = 20

// snapshot - полный срез состояния для дашборда. Сериализация
// детерминирована, хеш снапшота детектит изменения в SSE-потоке.
type snapshot struct {
	Timestamp   string                       `json:"timestamp"`
	Agents      map[string]agentView         `json:"agents"`
	Events      []activity.Event             `json:"events"`
	APIUsage    map[string]ratemonitor.Usage `json:"api_usage"`
	Alerts      []ratemonitor.Alert          `json:"alerts"`
	TaskPool    map[string]int               `json:"task_pool"`
	ActiveTasks []taskView                   `json:"active_tasks"`
	Revenue     revenueView                  `json:"revenue"`
}

type agentView struct {
	activity.AgentStatus
	Name     string  `json:"name"`
	Emoji    string  `json:"emoji"`
	Role     string  `json:"role"`
	Progress float64 `json:"progress"`
}

type taskView struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Assignee string `json:"assignee"`
	Priority int    `json:"priority"`
}

type revenueView struct {
	TotalMRR  float64 `json:"total_mrr"`
	TargetMRR float64 `json:"target_mrr"`
	Gap       float64 `json:"gap"`
	DaysLeft  int     `json:"days_left"`
}

func (s *Server) buildSnapshot() snapshot {
	snap := snapshot{
		Timestamp: time.Now().Format(time.RFC3339),
		Agents:    s.agentViews(),
		Events:    []activity.Event{},
		APIUsage:  map[string]ratemonitor.Usage{},
		Alerts:    []ratemonitor.Alert{},
		TaskPool:  map[string]int{},
	}

	if events := s.deps.Activity.RecentEvents(24, 50); events != nil {
		snap.Events = events
	}

	if s.deps.Rates != nil {
		if usage := s.deps.Rates.AllUsage(60); usage != nil {
			snap.APIUsage = usage
		}
		if alerts := s.deps.Rates.Alerts(24); alerts != nil {
			snap.Alerts = alerts
		}
	}

	if s.deps.Pool != nil {
		if sum, err := s.deps.Pool.Summarize(); err == nil {
			snap.TaskPool["total"] = sum.Total
			for status, n := range sum.ByStatus {
				snap.TaskPool[string(status)] = n
			}
		}
		snap.ActiveTasks = s.activeTasks()
	}

	if s.deps.Revenue != nil {
		rs := s.deps.Revenue.Summary()
		snap.Revenue = revenueView{
			TotalMRR:  rs.TotalMRR,
			TargetMRR: rs.TargetMRR,
			Gap:       rs.Gap,
			DaysLeft:  rs.DaysLeft,
		}
	}

	return snap
}

func (s *Server) agentViews() map[string]agentView {
	statuses := s.deps.Activity.AllStatuses()
	views := make(map[string]agentView, len(statuses))
	for key, st := range statuses {
		views[key] = agentView{
			AgentStatus: st,
			Name:        domain.AgentName(key),
			Emoji:       domain.AgentEmoji(key),
			Role:        domain.AgentRole(key),
			Progress:    s.deps.Activity.Progress(key),
		}
	}
	return views
}

func (s *Server) activeTasks() []taskView {
	all, err := s.deps.Pool.All()
	if err != nil {
		s.logger.Warn("task pool unavailable", zap.Error(err))
		return []taskView{}
	}

	views := make([]taskView, 0, maxActiveTasks)
	for i := range all {
		t := &all[i]
		if !t.IsOpen() {
			continue
		}
		views = append(views, taskView{
			ID:       t.ID,
			Title:    t.Title,
			Status:   string(t.Status),
			Assignee: t.Assignee,
			Priority: int(t.Priority),
		})
		if len(views) >= maxActiveTasks {
			break
		}
	}
	return views
}
