// Телеграм-бот корпорации: команда персон, трекеры и фоновый планировщик.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/timzinin/zinin-corp/internal/activity"
	"github.com/timzinin/zinin-corp/internal/agent"
	"github.com/timzinin/zinin-corp/internal/bank"
	"github.com/timzinin/zinin-corp/internal/chat"
	"github.com/timzinin/zinin-corp/internal/config"
	"github.com/timzinin/zinin-corp/internal/connectors/coingecko"
	"github.com/timzinin/zinin-corp/internal/connectors/forex"
	"github.com/timzinin/zinin-corp/internal/connectors/tonapi"
	"github.com/timzinin/zinin-corp/internal/connectors/tribute"
	"github.com/timzinin/zinin-corp/internal/llm"
	"github.com/timzinin/zinin-corp/internal/llm/groq"
	"github.com/timzinin/zinin-corp/internal/llm/openrouter"
	"github.com/timzinin/zinin-corp/internal/metrics"
	"github.com/timzinin/zinin-corp/internal/ratemonitor"
	pgRepo "github.com/timzinin/zinin-corp/internal/repository/postgres"
	"github.com/timzinin/zinin-corp/internal/revenue"
	"github.com/timzinin/zinin-corp/internal/scheduler"
	"github.com/timzinin/zinin-corp/internal/storage"
	"github.com/timzinin/zinin-corp/internal/taskpool"
	"github.com/timzinin/zinin-corp/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.ValidateBot(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("bot exited with error", zap.Error(err))
	}
	logger.Info("bot stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	m := metrics.New()

	// Postgres опционален: без DATABASE_URL история живёт в файле.
	var chatRepo chat.Repository
	if cfg.Database.URL != "" {
		db, err := pgRepo.New(ctx, cfg.Database.URL)
		if err != nil {
			logger.Warn("база недоступна, работаем на файлах", zap.Error(err))
		} else {
			defer db.Close()
			repo := pgRepo.NewChatRepo(db)
			if err := repo.Init(ctx); err != nil {
				logger.Warn("не удалось подготовить таблицу истории", zap.Error(err))
			} else {
				chatRepo = repo
			}
		}
	}

	chatStore, err := storage.NewStore(filepath.Join(cfg.DataDir, "chat_history.json"))
	if err != nil {
		return err
	}
	history := chat.NewHistory(ctx, chatStore, chatRepo, logger)

	queue, err := taskpool.NewQueue(cfg.DataDir, logger)
	if err != nil {
		return err
	}
	pool, err := taskpool.NewPool(cfg.DataDir, logger)
	if err != nil {
		return err
	}
	tracker, err := activity.NewTracker(cfg.DataDir, logger)
	if err != nil {
		return err
	}
	rates, err := ratemonitor.NewMonitor(cfg.DataDir, logger)
	if err != nil {
		return err
	}
	rev, err := revenue.NewTracker(cfg.DataDir, cfg.Revenue.TargetMRR, cfg.Revenue.Deadline, logger)
	if err != nil {
		return err
	}
	bankStore, err := bank.NewStore(cfg.DataDir, logger)
	if err != nil {
		return err
	}

	router := buildRouter(cfg, logger)
	broadcaster, err := agent.NewBroadcaster(router, history, queue, tracker, m, logger)
	if err != nil {
		return err
	}

	rec := rates.Recorder()
	coins := coingecko.New(coingecko.Config{
		APIKey:  cfg.Connectors.CoinGeckoAPIKey,
		Timeout: cfg.Timeouts.Connector,
	}, rec, logger)
	fx := forex.New(forex.Config{Timeout: cfg.Timeouts.Connector}, rec, logger)
	ton := tonapi.New(tonapi.Config{
		APIKey:  cfg.Connectors.TonAPIKey,
		Timeout: cfg.Timeouts.Connector,
	}, rec, logger)

	// Без ключа Tribute работаем без блока продуктов в отчёте.
	var tributeClient *tribute.Client
	if cfg.Tribute.DefaultKey != "" {
		tributeClient = tribute.NewClient(tribute.Config{
			APIKey:  cfg.Tribute.DefaultKey,
			Timeout: cfg.Timeouts.Connector,
		}, rec, logger)
	}

	bot, err := telegram.New(ctx, telegram.BotConfig{
		Token:             cfg.Telegram.Token,
		OwnerChatID:       cfg.Telegram.OwnerChatID,
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
	}, telegram.Deps{
		Broadcaster: broadcaster,
		Bank:        bankStore,
		Revenue:     rev,
		Pool:        pool,
		Queue:       queue,
		Rates:       rates,
		Portfolio: &telegram.Portfolio{
			Coins:   coins,
			Forex:   fx,
			TON:     ton,
			Wallets: cfg.Connectors.TonWallets,
			Logger:  logger,
		},
		Tribute: tributeClient,
		Metrics: m,
	}, logger)
	if err != nil {
		return err
	}

	sched := scheduler.New(scheduler.Config{
		OwnerChatID: cfg.Telegram.OwnerChatID,
	}, rev, pool, bot, logger)
	go sched.Run(ctx)

	return bot.Run(ctx)
}

// buildRouter собирает LLM-клиентов: CEO и команда на основном провайдере,
// быстрые ответы на Groq, если задан ключ.
func buildRouter(cfg *config.Config, logger *zap.Logger) *llm.Router {
	var ceo, team, fast llm.Client

	if cfg.LLM.Provider == "groq" {
		client := groq.New(groq.Config{
			APIKey:  cfg.LLM.Groq.APIKey,
			Model:   cfg.LLM.Groq.Model,
			BaseURL: cfg.LLM.Groq.BaseURL,
			Timeout: cfg.Timeouts.LLM,
		}, logger)
		return llm.NewRouter(client, client, client, logger)
	}

	ceo = openrouter.New(openrouter.Config{
		APIKey:  cfg.LLM.OpenRouter.APIKey,
		Model:   cfg.LLM.CEOModel,
		BaseURL: cfg.LLM.OpenRouter.BaseURL,
		Timeout: cfg.Timeouts.LLM,
	}, logger)
	team = openrouter.New(openrouter.Config{
		APIKey:  cfg.LLM.OpenRouter.APIKey,
		Model:   cfg.LLM.TeamModel,
		BaseURL: cfg.LLM.OpenRouter.BaseURL,
		Timeout: cfg.Timeouts.LLM,
	}, logger)

	fast = team
	if cfg.LLM.Groq.APIKey != "" {
		fast = groq.New(groq.Config{
			APIKey:  cfg.LLM.Groq.APIKey,
			Model:   cfg.LLM.Groq.Model,
			BaseURL: cfg.LLM.Groq.BaseURL,
			Timeout: cfg.Timeouts.LLM,
		}, logger)
	}

	return llm.NewRouter(ceo, team, fast, logger)
}
