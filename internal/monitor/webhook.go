package monitor

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/timzinin/zinin-corp/internal/connectors/tribute"
	"github.com/timzinin/zinin-corp/internal/domain"
)

const maxWebhookBody = 1 << 20

// handleTributeWebhook принимает платёжные события Tribute.
// Подпись trbt-signature - HMAC-SHA256 тела ключом проекта. Без параметра
// project подпись проверяется всеми известными ключами.
func (s *Server) handleTributeWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		s.webhookRejected(c, http.StatusBadRequest, "cannot read body", "read_error")
		return
	}

	signature := c.GetHeader("trbt-signature")
	if signature == "" {
		s.webhookRejected(c, http.StatusBadRequest, "missing trbt-signature header", "missing_signature")
		return
	}

	project := c.Query("project")
	if project != "" {
		key := s.deps.Keys.ForProject(project)
		if key == "" {
			s.webhookRejected(c, http.StatusBadRequest, "no api key configured for project", "no_key")
			return
		}
		if !tribute.VerifySignature(body, signature, key) {
			s.webhookRejected(c, http.StatusUnauthorized, "invalid signature", "bad_signature")
			return
		}
	} else {
		matched, ok := s.deps.Keys.Match(body, signature)
		if !ok {
			s.webhookRejected(c, http.StatusUnauthorized, "invalid signature", "bad_signature")
			return
		}
		project = matched
	}

	event, err := s.deps.Tribute.Add(body, project)
	switch {
	case errors.Is(err, domain.ErrDuplicateEvent):
		// повтор доставки: Tribute ретраит, отвечаем как на успех
		s.logger.Info("повторное событие Tribute",
			zap.String("event_id", event.ID),
			zap.String("event", event.Event),
		)
		s.recordWebhook(event.Event, "duplicate")
		c.JSON(http.StatusOK, gin.H{"ok": true, "event": event.Event, "duplicate": true})
		return
	case err != nil:
		s.webhookRejected(c, http.StatusUnprocessableEntity, "invalid payload", "bad_payload")
		return
	}

	s.logger.Info("событие Tribute принято",
		zap.String("event_id", event.ID),
		zap.String("event", event.Event),
		zap.String("channel", event.Channel),
	)

	if event.IsSubscription() && event.Channel != "" {
		s.recalcRevenue(event.Channel)
	}
	s.notifySubscription(event)

	s.recordWebhook(event.Event, "ok")
	c.JSON(http.StatusOK, gin.H{"ok": true, "event": event.Event})
}

// Подписочные события, о которых владельцу сообщаем сразу.
var notifyLabels = map[string]string{
	domain.TributeNewSubscription:       "🟢 Новая подписка",
	domain.TributeCancelledSubscription: "🔴 Отмена подписки",
}

// notifySubscription шлёт владельцу уведомление о новой или отменённой
// подписке. Отправка не блокирует ответ вебхука.
func (s *Server) notifySubscription(event domain.TributeEvent) {
	if s.deps.Notifier == nil {
		return
	}
	if _, ok := notifyLabels[event.Event]; !ok {
		return
	}

	text := s.subscriptionNote(event)
	go func() {
		ctx, cancel := context.WithTimeout(s.ctx, defaultNotifyTimeout)
		defer cancel()
		if err := s.deps.Notifier.Notify(ctx, text); err != nil {
			s.logger.Warn("уведомление о подписке не отправлено",
				zap.Error(err),
				zap.String("event", event.Event),
			)
		}
	}()
}

// subscriptionNote собирает текст уведомления: событие, канал, плательщик,
// сумма и текущий суммарный MRR.
func (s *Server) subscriptionNote(event domain.TributeEvent) string {
	var b strings.Builder
	b.WriteString(notifyLabels[event.Event])
	b.WriteString("\n<b>" + html.EscapeString(event.Channel) + "</b>")
	if event.UserID != "" {
		b.WriteString("\nUser: <code>" + html.EscapeString(event.UserID) + "</code>")
	}
	if event.Amount > 0 {
		fmt.Fprintf(&b, "\nAmount: %g %s", event.Amount, event.Currency)
	}
	if s.deps.Revenue != nil {
		fmt.Fprintf(&b, "\nMRR: <code>$%.0f</code>", s.deps.Revenue.Summary().TotalMRR)
	}
	return b.String()
}

func (s *Server) recalcRevenue(channel string) {
	if s.deps.Revenue == nil {
		return
	}
	events, err := s.deps.Tribute.Events(channel)
	if err != nil {
		s.logger.Error("tribute events unavailable",
			zap.Error(err),
			zap.String("channel", channel),
		)
		return
	}
	res := s.deps.Revenue.RecalculateChannel(channel, events)
	s.logger.Info("MRR канала пересчитан",
		zap.String("channel", channel),
		zap.Float64("mrr", res.MRR),
		zap.Int("members", res.Members),
	)
}

func (s *Server) webhookRejected(c *gin.Context, status int, msg, reason string) {
	s.logger.Warn("вебхук Tribute отклонён",
		zap.Int("status", status),
		zap.String("reason", reason),
	)
	s.recordWebhook("unknown", reason)
	c.JSON(status, gin.H{"error": msg})
}

func (s *Server) recordWebhook(event, status string) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordWebhookEvent(event, status)
	}
}
