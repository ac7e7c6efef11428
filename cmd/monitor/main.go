// Монитор корпорации: HTTP-панель состояния и приём вебхуков Tribute.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/timzinin/zinin-corp/internal/activity"
	"github.com/timzinin/zinin-corp/internal/config"
	"github.com/timzinin/zinin-corp/internal/connectors/tribute"
	"github.com/timzinin/zinin-corp/internal/metrics"
	"github.com/timzinin/zinin-corp/internal/monitor"
	"github.com/timzinin/zinin-corp/internal/ratemonitor"
	"github.com/timzinin/zinin-corp/internal/revenue"
	"github.com/timzinin/zinin-corp/internal/taskpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("monitor exited with error", zap.Error(err))
	}
	logger.Info("monitor stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	m := metrics.New()

	tracker, err := activity.NewTracker(cfg.DataDir, logger)
	if err != nil {
		return err
	}
	rates, err := ratemonitor.NewMonitor(cfg.DataDir, logger)
	if err != nil {
		return err
	}
	pool, err := taskpool.NewPool(cfg.DataDir, logger)
	if err != nil {
		return err
	}
	rev, err := revenue.NewTracker(cfg.DataDir, cfg.Revenue.TargetMRR, cfg.Revenue.Deadline, logger)
	if err != nil {
		return err
	}
	events, err := tribute.NewStore(cfg.DataDir, logger)
	if err != nil {
		return err
	}

	// Уведомления о подписках идут владельцу, если заданы токен и чат.
	var notifier *monitor.Notifier
	if cfg.Telegram.Token != "" && cfg.Telegram.OwnerChatID != 0 {
		notifier = monitor.NewNotifier(monitor.NotifierConfig{
			Token:  cfg.Telegram.Token,
			ChatID: cfg.Telegram.OwnerChatID,
		}, logger)
	}

	srv := monitor.NewServer(cfg.Monitor.Addr, monitor.Deps{
		Activity: tracker,
		Rates:    rates,
		Pool:     pool,
		Revenue:  rev,
		Tribute:  events,
		Keys: tribute.Keys{
			ByProject: cfg.Tribute.ProjectKeys,
			Default:   cfg.Tribute.DefaultKey,
		},
		Notifier: notifier,
		Metrics:  m,
	}, logger)

	if err := srv.Start(); err != nil {
		return err
	}
	logger.Info("monitor started", zap.String("addr", cfg.Monitor.Addr))

	<-ctx.Done()
	if err := srv.Stop(); err != nil {
		logger.Warn("shutdown failed", zap.Error(err))
	}
	return nil
}
