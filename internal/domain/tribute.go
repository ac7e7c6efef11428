package domain

import "time"

// События подписок Tribute, влияющие на MRR.
const (
	TributeNewSubscription       = "newSubscription"
	TributeRenewedSubscription   = "renewedSubscription"
	TributeCancelledSubscription = "cancelledSubscription"
)

// TributeEvent - событие вебхука Tribute. Amount хранится как пришёл:
// Tribute шлёт то основные единицы, то центы, пересчёт в доллары
// делает revenue-трекер.
type TributeEvent struct {
	ID         string    `json:"id"`
	Event      string    `json:"event"`
	Channel    string    `json:"channel"`
	UserID     string    `json:"user_id"`
	Amount     float64   `json:"amount"`
	Currency   string    `json:"currency"`
	ReceivedAt time.Time `json:"received_at"`
}

// IsSubscription сообщает, что событие относится к жизненному циклу подписки.
func (e *TributeEvent) IsSubscription() bool {
	switch e.Event {
	case TributeNewSubscription, TributeRenewedSubscription, TributeCancelledSubscription:
		return true
	}
	return false
}
