package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/timzinin/zinin-corp/internal/bank"
	"github.com/timzinin/zinin-corp/internal/connectors/tribute"
	"github.com/timzinin/zinin-corp/internal/domain"
	"github.com/timzinin/zinin-corp/internal/taskpool"
)

const startText = `Привет, Тим! Это штаб твоей корпорации.

В команде четверо:
👑 Алексей - CEO, стратегия и распределение задач
🏦 Маттиас - CFO, деньги и отчёты
⚙️ Мартин - CTO, инфраструктура и автоматизация
📱 Юки - Head of SMM, контент и соцсети

Пиши обычным текстом - сообщение уйдёт тому, кто за это отвечает.
Обратись по имени или напиши "всем", чтобы собрать планёрку.
Список команд: /help`

const helpText = `<b>Команды:</b>
/report - финансовый отчёт от Маттиаса
/portfolio - крипта, TON-кошельки и курсы валют
/balances - балансы: фиат и крипта
/tinkoff - сводка по загруженным выпискам Т-Банка
/tasks - пул задач корпорации
/revenue - трекер MRR и путь к цели
/limits - расход лимитов внешних API
/help - эта справка

Выписку Т-Банка присылай CSV-файлом - она разберётся и
добавится к истории операций.`

type Handler struct {
	bot *Bot
}

func NewHandler(bot *Bot) *Handler {
	return &Handler{bot: bot}
}

func (h *Handler) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg == nil {
		return
	}

	// Бот личный: чужие чаты игнорируем молча.
	if h.bot.ownerChatID != 0 && msg.Chat.ID != h.bot.ownerChatID {
		h.bot.logger.Warn("сообщение не от владельца",
			zap.Int64("chat_id", msg.Chat.ID),
		)
		return
	}

	if msg.Document != nil {
		h.handleDocument(ctx, msg)
		return
	}

	if msg.IsCommand() {
		h.handleCommand(ctx, msg)
		return
	}

	h.handleChat(ctx, msg)
}

func (h *Handler) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		h.bot.Send(msg.Chat.ID, startText)
	case "help":
		h.bot.Send(msg.Chat.ID, helpText)
	case "report":
		h.handleReport(ctx, msg)
	case "portfolio":
		h.handlePortfolio(ctx, msg)
	case "balances":
		h.handleBalances(ctx, msg)
	case "tinkoff":
		h.handleTinkoff(msg)
	case "tasks":
		h.handleTasks(msg)
	case "revenue":
		h.bot.Send(msg.Chat.ID, h.bot.deps.Revenue.FormatSummary())
	case "limits":
		h.handleLimits(msg)
	default:
		h.bot.Send(msg.Chat.ID, "Неизвестная команда. Список: /help")
	}
}

// handleChat - обычное сообщение: рассылаем команде и возвращаем ответы.
func (h *Handler) handleChat(ctx context.Context, msg *tgbotapi.Message) {
	if !h.allow(msg) {
		return
	}

	h.bot.SendTyping(msg.Chat.ID)

	replies, err := h.bot.deps.Broadcaster.Broadcast(ctx, msg.Text)
	if err != nil {
		h.bot.logger.Error("broadcast failed",
			zap.Error(err),
			zap.Int64("chat_id", msg.Chat.ID),
		)
		h.bot.Send(msg.Chat.ID, mapErrorToMessage(err))
		return
	}

	for _, part := range SplitMessage(FormatReplies(replies), 4096) {
		if err := h.bot.Send(msg.Chat.ID, part); err != nil {
			h.bot.logger.Error("failed to send message", zap.Error(err))
		}
	}
}

// handleReport просит CFO собрать отчёт по живым данным трекеров.
func (h *Handler) handleReport(ctx context.Context, msg *tgbotapi.Message) {
	if !h.allow(msg) {
		return
	}

	cfo, ok := h.bot.deps.Broadcaster.Team(domain.AgentAccountant)
	if !ok {
		h.bot.Send(msg.Chat.ID, "CFO недоступен. Попробуйте позже.")
		return
	}

	h.bot.SendTyping(msg.Chat.ID)

	var data strings.Builder
	data.WriteString(h.bot.deps.Revenue.FormatSummary())
	if sum, hasBank, err := h.bot.deps.Bank.Summarize(); err == nil && hasBank {
		data.WriteString("\n\n")
		data.WriteString(FormatLedger(sum))
	}
	if h.bot.deps.Tribute != nil {
		products, err := h.bot.deps.Tribute.Products(ctx)
		if err != nil {
			h.bot.logger.Warn("tribute products unavailable", zap.Error(err))
		} else {
			data.WriteString("\n\n")
			data.WriteString(tribute.FormatProducts(products))
		}
	}

	prompt := "Подготовь короткий финансовый отчёт для Тима по этим данным:\n\n" + data.String()
	report, err := cfo.Reply(ctx, prompt)
	if err != nil {
		h.bot.Send(msg.Chat.ID, mapErrorToMessage(err))
		return
	}

	text := fmt.Sprintf("%s <b>%s</b> (%s):\n%s",
		cfo.Emoji(), cfo.Name(), domain.AgentRole(cfo.Key()), escape(report))
	for _, part := range SplitMessage(text, 4096) {
		h.bot.Send(msg.Chat.ID, part)
	}
}

func (h *Handler) handlePortfolio(ctx context.Context, msg *tgbotapi.Message) {
	if h.bot.deps.Portfolio == nil {
		h.bot.Send(msg.Chat.ID, "Коннекторы портфеля не настроены.")
		return
	}

	h.bot.SendTyping(msg.Chat.ID)

	text, err := h.bot.deps.Portfolio.Report(ctx)
	if err != nil {
		h.bot.logger.Error("portfolio report failed", zap.Error(err))
		h.bot.Send(msg.Chat.ID, "Источники данных недоступны. Попробуйте позже.")
		return
	}
	for _, part := range SplitMessage(escape(text), 4096) {
		h.bot.Send(msg.Chat.ID, part)
	}
}

func (h *Handler) handleBalances(ctx context.Context, msg *tgbotapi.Message) {
	if h.bot.deps.Portfolio == nil {
		h.bot.Send(msg.Chat.ID, "Коннекторы балансов не настроены.")
		return
	}

	h.bot.SendTyping(msg.Chat.ID)

	text, err := h.bot.deps.Portfolio.Balances(ctx)
	if err != nil {
		h.bot.logger.Error("balances failed", zap.Error(err))
		h.bot.Send(msg.Chat.ID, "Источники данных недоступны. Попробуйте позже.")
		return
	}
	h.bot.Send(msg.Chat.ID, escape(text))
}

func (h *Handler) handleTinkoff(msg *tgbotapi.Message) {
	sum, ok, err := h.bot.deps.Bank.Summarize()
	if err != nil {
		h.bot.logger.Error("bank summarize failed", zap.Error(err))
		h.bot.Send(msg.Chat.ID, "Произошла ошибка. Попробуйте позже.")
		return
	}
	if !ok {
		h.bot.Send(msg.Chat.ID, "Выписок пока нет. Пришлите CSV-файл из Т-Банка.")
		return
	}
	h.bot.Send(msg.Chat.ID, FormatLedger(sum))
}

func (h *Handler) handleTasks(msg *tgbotapi.Message) {
	sum, err := h.bot.deps.Pool.Summarize()
	if err != nil {
		h.bot.logger.Error("pool summarize failed", zap.Error(err))
		h.bot.Send(msg.Chat.ID, "Произошла ошибка. Попробуйте позже.")
		return
	}
	text := taskpool.FormatSummary(sum)

	if ready, err := h.bot.deps.Pool.Ready(); err == nil && len(ready) > 0 {
		text += "\n\n" + taskpool.FormatReady(ready)
	}
	if pending, err := h.bot.deps.Queue.Pending(); err == nil && len(pending) > 0 {
		text += "\n\n" + taskpool.FormatQueue(pending)
	}

	for _, part := range SplitMessage(text, 4096) {
		h.bot.Send(msg.Chat.ID, part)
	}
}

func (h *Handler) handleLimits(msg *tgbotapi.Message) {
	if h.bot.deps.Rates == nil {
		h.bot.Send(msg.Chat.ID, "Монитор лимитов не настроен.")
		return
	}
	h.bot.Send(msg.Chat.ID, escape(h.bot.deps.Rates.FormatSummary()))
}

// handleDocument принимает CSV-выписку Т-Банка и вливает её в историю.
func (h *Handler) handleDocument(ctx context.Context, msg *tgbotapi.Message) {
	name := strings.ToLower(msg.Document.FileName)
	if !strings.HasSuffix(name, ".csv") {
		h.bot.Send(msg.Chat.ID, "Принимаю только CSV-выписки Т-Банка.")
		return
	}

	data, err := h.bot.downloadDocument(ctx, msg.Document.FileID)
	if err != nil {
		h.bot.logger.Error("document download failed",
			zap.Error(err),
			zap.String("file", msg.Document.FileName),
		)
		h.bot.Send(msg.Chat.ID, "Не удалось скачать файл. Попробуйте ещё раз.")
		return
	}

	st, err := bank.ParseStatement(string(data))
	if err != nil {
		h.bot.Send(msg.Chat.ID, mapErrorToMessage(err))
		return
	}

	added, err := h.bot.deps.Bank.Merge(st)
	if err != nil {
		h.bot.logger.Error("statement merge failed", zap.Error(err))
		h.bot.Send(msg.Chat.ID, "Произошла ошибка. Попробуйте позже.")
		return
	}

	h.bot.logger.Info("выписка принята",
		zap.String("file", msg.Document.FileName),
		zap.Int("parsed", len(st.Transactions)),
		zap.Int("new", added),
	)

	text := escape(bank.FormatStatement(st)) +
		fmt.Sprintf("\n\nНовых операций в истории: %d", added)
	for _, part := range SplitMessage(text, 4096) {
		h.bot.Send(msg.Chat.ID, part)
	}
}

// allow проверяет лимит запросов и сам отвечает при отказе.
func (h *Handler) allow(msg *tgbotapi.Message) bool {
	if msg.From == nil {
		return true
	}
	if h.bot.rateLimiter.Allow(msg.From.ID) {
		return true
	}
	resetTime := h.bot.rateLimiter.ResetTime(msg.From.ID)
	h.bot.logger.Warn("rate limit exceeded",
		zap.Int64("user_id", msg.From.ID),
		zap.Time("reset_at", resetTime),
	)
	h.bot.RecordRateLimitHit(msg.From.ID)
	h.bot.Send(msg.Chat.ID, "Слишком много запросов. Пожалуйста, подождите минуту.")
	return false
}

func mapErrorToMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyPrompt):
		return "Пустое сообщение. Напишите, что нужно сделать."
	case errors.Is(err, domain.ErrPromptTooLong):
		return "Сообщение слишком длинное. Сократите его."
	case errors.Is(err, domain.ErrNoAgentReplies):
		return "Команда не ответила. Попробуйте позже."
	case errors.Is(err, domain.ErrLLMFailed):
		return "Не удалось получить ответ модели. Попробуйте позже."
	case errors.Is(err, domain.ErrUnknownAgent):
		return "Такого сотрудника в корпорации нет."
	case errors.Is(err, domain.ErrNotTinkoffCSV):
		return "Файл не похож на выписку Т-Банка."
	default:
		return "Произошла ошибка. Попробуйте позже."
	}
}
