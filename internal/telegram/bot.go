// Package telegram - личный бот Тима: единственный вход в корпорацию.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/timzinin/zinin-corp/internal/agent"
	"github.com/timzinin/zinin-corp/internal/bank"
	"github.com/timzinin/zinin-corp/internal/connectors/tribute"
	"github.com/timzinin/zinin-corp/internal/metrics"
	"github.com/timzinin/zinin-corp/internal/ratelimit"
	"github.com/timzinin/zinin-corp/internal/ratemonitor"
	"github.com/timzinin/zinin-corp/internal/revenue"
	"github.com/timzinin/zinin-corp/internal/taskpool"
)

// Выписки Т-Банка за год помещаются в пару мегабайт.
const maxDocumentSize = 10 << 20

type BotConfig struct {
	Token             string
	Debug             bool
	OwnerChatID       int64 // 0 = отвечаем всем (режим отладки)
	RequestsPerMinute int
}

// Deps - сервисы корпорации, доступные из чата.
type Deps struct {
	Broadcaster *agent.Broadcaster
	Bank        *bank.Store
	Revenue     *revenue.Tracker
	Pool        *taskpool.Pool
	Queue       *taskpool.Queue
	Rates       *ratemonitor.Monitor
	Portfolio   *Portfolio
	Tribute     *tribute.Client // nil = продукты Tribute в отчёт не попадают
	Metrics     *metrics.Metrics
}

type Bot struct {
	api         *tgbotapi.BotAPI
	deps        Deps
	ownerChatID int64
	logger      *zap.Logger
	handler     *Handler
	rateLimiter *ratelimit.Limiter
	wg          sync.WaitGroup
}

// New авторизует бота и готовит обработчик. Лимитер живёт до отмены ctx.
func New(ctx context.Context, cfg BotConfig, deps Deps, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	api.Debug = cfg.Debug

	bot := &Bot{
		api:         api,
		deps:        deps,
		ownerChatID: cfg.OwnerChatID,
		logger:      logger,
		rateLimiter: ratelimit.New(ctx, ratelimit.Config{
			RequestsPerMinute: cfg.RequestsPerMinute,
		}),
	}
	bot.handler = NewHandler(bot)

	logger.Info("telegram bot authorized",
		zap.String("username", api.Self.UserName),
	)

	return bot, nil
}

func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("bot started, waiting for updates")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("bot stopping, waiting for handlers to finish")
			b.api.StopReceivingUpdates()
			b.wg.Wait()
			b.logger.Info("all handlers finished")
			return ctx.Err()
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			b.wg.Add(1)
			go func(upd tgbotapi.Update) {
				defer b.wg.Done()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	reqType := "chat"
	if update.Message.IsCommand() {
		reqType = "command"
	} else if update.Message.Document != nil {
		reqType = "document"
	}

	defer func() {
		if r := recover(); r != nil {
			chatID := int64(0)
			if update.Message.Chat != nil {
				chatID = update.Message.Chat.ID
			}
			b.logger.Error("panic in update handler",
				zap.Any("panic", r),
				zap.Int64("chat_id", chatID),
			)
			if b.deps.Metrics != nil {
				b.deps.Metrics.RecordTelegramRequest(reqType, "panic")
			}
		}
	}()

	b.handler.HandleMessage(ctx, update.Message)

	if b.deps.Metrics != nil {
		b.deps.Metrics.RecordTelegramRequest(reqType, "processed")
	}
}

func (b *Bot) Send(chatID int64, text string) error {
	if b.api == nil {
		return nil
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "HTML"
	msg.DisableWebPagePreview = true
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) SendTyping(chatID int64) {
	if b.api == nil {
		return
	}
	action := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	b.api.Send(action)
}

func (b *Bot) RecordRateLimitHit(userID int64) {
	if b.deps.Metrics != nil {
		b.deps.Metrics.RecordRateLimitHit(strconv.FormatInt(userID, 10))
	}
}

// downloadDocument скачивает присланный файл через Telegram File API.
func (b *Bot) downloadDocument(ctx context.Context, fileID string) ([]byte, error) {
	if b.api == nil {
		return nil, errors.New("telegram api is not configured")
	}

	fileURL, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
}
