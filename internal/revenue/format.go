package revenue

import (
	"fmt"
	"strings"
)

// FormatSummary собирает отчёт по доходу для Telegram: прогресс-бар,
// разрыв до цели и построчно каналы.
func (t *Tracker) FormatSummary() string {
	s := t.Summary()

	pct := 0
	if s.TargetMRR > 0 {
		pct = int(s.TotalMRR / s.TargetMRR * 100)
		if pct > 100 {
			pct = 100
		}
	}
	filled := pct / 10
	bar := strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)

	lines := []string{
		"💰 <b>Revenue Tracker</b>",
		"",
		fmt.Sprintf("MRR: $%.0f / $%.0f", s.TotalMRR, s.TargetMRR),
		fmt.Sprintf("[%s] %d%%", bar, pct),
		fmt.Sprintf("Gap: $%.0f | %d дней", s.Gap, s.DaysLeft),
		"",
	}

	for _, key := range ChannelOrder {
		ch, ok := s.Channels[key]
		if !ok {
			continue
		}
		chPct := 0
		if ch.Target > 0 {
			chPct = int(ch.MRR / ch.Target * 100)
		}
		icon := "🔴"
		switch {
		case chPct >= 80:
			icon = "✅"
		case chPct >= 30:
			icon = "🟡"
		}
		lines = append(lines, fmt.Sprintf("%s %s: $%.0f/$%.0f (%d%%), %d чел.",
			icon, ch.Name, ch.MRR, ch.Target, chPct, ch.Members))
	}
	// каналы, добавленные на лету
	for key, ch := range s.Channels {
		if isDefaultChannel(key) {
			continue
		}
		lines = append(lines, fmt.Sprintf("⚪ %s: $%.0f, %d чел.", ch.Name, ch.MRR, ch.Members))
	}

	return strings.Join(lines, "\n")
}

func isDefaultChannel(key string) bool {
	for _, k := range ChannelOrder {
		if k == key {
			return true
		}
	}
	return false
}
