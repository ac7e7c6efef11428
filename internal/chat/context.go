// Package chat хранит историю корпоративного чата и собирает из неё
// контекст для промптов агентов.
package chat

import (
	"strings"

	"github.com/timzinin/zinin-corp/internal/domain"
)

const (
	// DefaultContextMessages - сколько последних сообщений попадает в контекст.
	DefaultContextMessages = 20
	// maxReplyRunes - ответы агентов в контексте обрезаются до этой длины.
	maxReplyRunes = 800

	contextHeader = "Контекст предыдущей переписки в корпоративном чате:"
)

// FormatContext собирает текстовый контекст из всей истории, включая
// последнее сообщение: при последовательной рассылке именно оно - ответ
// предыдущего агента, и следующий должен его видеть. Сообщения владельца
// не обрезаются, ответы агентов ограничены maxReplyRunes.
func FormatContext(messages []domain.Message, maxMessages int) string {
	if len(messages) == 0 {
		return ""
	}
	if maxMessages <= 0 {
		maxMessages = DefaultContextMessages
	}

	history := messages
	if len(history) > maxMessages {
		history = history[len(history)-maxMessages:]
	}

	lines := make([]string, 0, len(history)+1)
	lines = append(lines, contextHeader)
	for _, msg := range history {
		if msg.Role == domain.RoleUser {
			lines = append(lines, "Тим: "+msg.Content)
			continue
		}
		name := msg.AgentName
		if name == "" {
			name = domain.AgentName(domain.AgentManager)
		}
		lines = append(lines, name+": "+truncateRunes(msg.Content, maxReplyRunes))
	}
	return strings.Join(lines, "\n")
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
