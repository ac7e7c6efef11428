package revenue

import (
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/timzinin/zinin-corp/internal/domain"
)

// rubPerUSD - грубый курс для приведения рублёвых подписок к долларам.
const rubPerUSD = 90.0

// RecalcResult - итог пересчёта канала по событиям Tribute.
type RecalcResult struct {
	MRR           float64
	Members       int
	EventsCounted int
}

// RecalculateChannel пересчитывает MRR канала по истории событий Tribute.
// События проигрываются по времени: подписка и продление фиксируют цену
// для пользователя, отмена убирает его из активных.
func (t *Tracker) RecalculateChannel(channel string, events []domain.TributeEvent) RecalcResult {
	var channelEvents []domain.TributeEvent
	for _, e := range events {
		if e.Channel == channel && e.IsSubscription() {
			channelEvents = append(channelEvents, e)
		}
	}
	if len(channelEvents) == 0 {
		return RecalcResult{}
	}

	sort.SliceStable(channelEvents, func(i, j int) bool {
		return channelEvents[i].ReceivedAt.Before(channelEvents[j].ReceivedAt)
	})

	active := make(map[string]float64)
	for _, e := range channelEvents {
		switch e.Event {
		case domain.TributeNewSubscription, domain.TributeRenewedSubscription:
			active[e.UserID] = normalizeUSD(e.Amount, e.Currency)
		case domain.TributeCancelledSubscription:
			delete(active, e.UserID)
		}
	}

	var mrr float64
	for _, price := range active {
		mrr += price
	}
	mrr = math.Round(mrr*100) / 100

	members := len(active)
	t.UpdateChannel(channel, ChannelUpdate{MRR: &mrr, Members: &members})
	t.logger.Info("канал пересчитан по событиям Tribute",
		zap.String("channel", channel),
		zap.Float64("mrr", mrr),
		zap.Int("members", members),
		zap.Int("events", len(channelEvents)))

	return RecalcResult{MRR: mrr, Members: members, EventsCounted: len(channelEvents)}
}

// normalizeUSD приводит сумму к долларам. Tribute присылает то центы,
// то основные единицы: крупная сумма в рублях считается основными
// единицами, иначе всё больше 100 трактуем как центы.
func normalizeUSD(raw float64, currency string) float64 {
	currency = strings.ToUpper(currency)
	amount := raw
	switch {
	case amount > 1000 && (currency == "RUB" || currency == "KZT"):
		// уже основные единицы
	case amount > 100:
		amount = amount / 100
	}
	if currency == "RUB" {
		amount = amount / rubPerUSD
	}
	return amount
}
