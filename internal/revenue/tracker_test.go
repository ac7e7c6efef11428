package revenue

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/timzinin/zinin-corp/internal/domain"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	tr, err := NewTracker(t.TempDir(), 2500, "2026-03-02", zap.NewNop())
	if err != nil {
		t.Fatalf("NewTracker() error = %v", err)
	}
	return tr
}

func TestSummaryDefaults(t *testing.T) {
	tr := newTestTracker(t)
	s := tr.Summary()

	if s.TargetMRR != 2500 {
		t.Errorf("TargetMRR = %v, want 2500", s.TargetMRR)
	}
	// стартовые каналы: 350 + 165
	if s.TotalMRR != 515 {
		t.Errorf("TotalMRR = %v, want 515", s.TotalMRR)
	}
	if s.Gap != 1985 {
		t.Errorf("Gap = %v, want 1985", s.Gap)
	}
	if len(s.Channels) != 5 {
		t.Errorf("каналов %d, want 5", len(s.Channels))
	}
}

func TestUpdateChannel(t *testing.T) {
	tr := newTestTracker(t)
	mrr := 800.0
	members := 40
	ch := tr.UpdateChannel("sborka", ChannelUpdate{MRR: &mrr, Members: &members})

	if ch.MRR != 800 || ch.Members != 40 {
		t.Errorf("UpdateChannel() = %+v", ch)
	}
	if ch.Name != "СБОРКА" {
		t.Errorf("имя канала потерялось: %q", ch.Name)
	}

	s := tr.Summary()
	if s.TotalMRR != 1315 {
		t.Errorf("TotalMRR после обновления = %v, want 1315", s.TotalMRR)
	}
}

func TestUpdateChannelCreatesUnknown(t *testing.T) {
	tr := newTestTracker(t)
	mrr := 120.0
	ch := tr.UpdateChannel("consulting", ChannelUpdate{MRR: &mrr})
	if ch.Name != "consulting" || ch.MRR != 120 {
		t.Errorf("новый канал = %+v", ch)
	}
}

func TestDailySnapshotDedupByDate(t *testing.T) {
	tr := newTestTracker(t)
	tr.DailySnapshot()

	mrr := 1000.0
	tr.UpdateChannel("krmktl", ChannelUpdate{MRR: &mrr})
	snap := tr.DailySnapshot()

	history := tr.History(7)
	if len(history) != 1 {
		t.Fatalf("в истории %d срезов за сегодня, want 1", len(history))
	}
	if history[0].TotalMRR != snap.TotalMRR {
		t.Errorf("срез не перезаписан: %v", history[0])
	}
	if snap.Date != time.Now().Format("2006-01-02") {
		t.Errorf("Date = %q", snap.Date)
	}
}

func TestRecalculateChannelReplaysEvents(t *testing.T) {
	tr := newTestTracker(t)
	base := time.Now().Add(-time.Hour)
	events := []domain.TributeEvent{
		{Event: domain.TributeNewSubscription, Channel: "krmktl", UserID: "u1", Amount: 500, Currency: "USD", ReceivedAt: base},
		{Event: domain.TributeNewSubscription, Channel: "krmktl", UserID: "u2", Amount: 10, Currency: "USD", ReceivedAt: base.Add(time.Minute)},
		{Event: domain.TributeCancelledSubscription, Channel: "krmktl", UserID: "u1", ReceivedAt: base.Add(2 * time.Minute)},
		// другой канал не считается
		{Event: domain.TributeNewSubscription, Channel: "sborka", UserID: "u3", Amount: 20, Currency: "USD", ReceivedAt: base},
	}

	res := tr.RecalculateChannel("krmktl", events)
	if res.Members != 1 {
		t.Errorf("Members = %d, want 1", res.Members)
	}
	// 500 трактуется как центы: $5
	if res.MRR != 5 {
		t.Errorf("MRR = %v, want 5", res.MRR)
	}
	if res.EventsCounted != 3 {
		t.Errorf("EventsCounted = %d, want 3", res.EventsCounted)
	}

	s := tr.Summary()
	if s.Channels["krmktl"].MRR != 5 {
		t.Errorf("канал не обновлён: %+v", s.Channels["krmktl"])
	}
}

func TestNormalizeUSD(t *testing.T) {
	cases := []struct {
		amount   float64
		currency string
		want     float64
	}{
		{10, "USD", 10},
		{500, "USD", 5},   // центы
		{900, "RUB", 0.1}, // копейки -> рубли -> доллары
		{4500, "RUB", 50}, // крупная сумма в рублях уже в основных единицах
		{99, "EUR", 99},
	}
	for _, tc := range cases {
		got := normalizeUSD(tc.amount, tc.currency)
		if diff := got - tc.want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("normalizeUSD(%v, %s) = %v, want %v", tc.amount, tc.currency, got, tc.want)
		}
	}
}

func TestFormatSummaryProgressBar(t *testing.T) {
	tr := newTestTracker(t)
	got := tr.FormatSummary()

	// 515 из 2500 = 20%
	if !strings.Contains(got, "[██░░░░░░░░] 20%") {
		t.Errorf("прогресс-бар неверный:\n%s", got)
	}
	if !strings.Contains(got, "Крипто Маркетологи") {
		t.Errorf("нет канала в отчёте:\n%s", got)
	}
	if !strings.Contains(got, "MRR: $515 / $2500") {
		t.Errorf("итоговая строка неверна:\n%s", got)
	}
}
