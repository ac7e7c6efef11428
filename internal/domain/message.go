package domain

import "time"

// Роли сообщений в корпоративном чате.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message - одно сообщение истории чата. Для ответов агентов заполняются
// AgentKey и AgentName, для сообщений владельца они пустые.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	AgentKey  string    `json:"agent_key,omitempty"`
	AgentName string    `json:"agent_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserMessage создаёт сообщение владельца.
func NewUserMessage(content string) Message {
	return Message{
		Role:      RoleUser,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// NewAgentMessage создаёт ответ агента.
func NewAgentMessage(agentKey, content string) Message {
	return Message{
		Role:      RoleAssistant,
		Content:   content,
		AgentKey:  agentKey,
		AgentName: AgentName(agentKey),
		CreatedAt: time.Now(),
	}
}
