package telegram

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/timzinin/zinin-corp/internal/agent"
	"github.com/timzinin/zinin-corp/internal/bank"
	"github.com/timzinin/zinin-corp/internal/domain"
)

func escape(s string) string {
	return html.EscapeString(s)
}

// FormatReplies собирает ответы команды в одно сообщение для Тима.
func FormatReplies(replies []agent.Reply) string {
	var sb strings.Builder

	for i, r := range replies {
		if i > 0 {
			sb.WriteString("\n\n")
		}

		header := fmt.Sprintf("%s <b>%s</b> (%s)", r.Emoji, escape(r.AgentName), domain.AgentRole(r.AgentKey))
		if r.Delegated {
			header += " - по поручению"
		}
		sb.WriteString(header + ":\n")

		if r.Err != nil {
			sb.WriteString("<i>не смог ответить, попробуйте позже</i>")
			continue
		}
		sb.WriteString(escape(r.Content))
	}

	return sb.String()
}

// FormatLedger - сводка по всем накопленным операциям Т-Банка.
func FormatLedger(sum bank.LedgerSummary) string {
	var sb strings.Builder

	sb.WriteString("<b>Т-Банк: история операций</b>\n\n")
	fmt.Fprintf(&sb, "Период: %s - %s\n", shortDate(sum.Period.Start), shortDate(sum.Period.End))
	fmt.Fprintf(&sb, "Операций: %d\n", sum.TotalTransactions)
	if len(sum.Cards) > 0 {
		fmt.Fprintf(&sb, "Карты: %s\n", escape(strings.Join(sum.Cards, ", ")))
	}

	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Доходы: %.2f ₽\n", sum.Income)
	fmt.Fprintf(&sb, "Расходы: %.2f ₽\n", sum.Expenses)
	fmt.Fprintf(&sb, "Между своими: %.2f ₽\n", sum.InternalTransfers)
	fmt.Fprintf(&sb, "Итог: %+.2f ₽\n", sum.Net)

	if len(sum.Monthly) > 0 {
		months := make([]string, 0, len(sum.Monthly))
		for m := range sum.Monthly {
			months = append(months, m)
		}
		sort.Sort(sort.Reverse(sort.StringSlice(months)))

		sb.WriteString("\nПо месяцам:\n")
		for _, m := range months {
			mt := sum.Monthly[m]
			fmt.Fprintf(&sb, "  %s: +%.0f / -%.0f\n", m, mt.Income, mt.Expenses)
		}
	}

	if len(sum.TopCategories) > 0 {
		sb.WriteString("\nТоп трат:\n")
		for i, c := range sum.TopCategories {
			if i >= 5 {
				break
			}
			fmt.Fprintf(&sb, "  %d. %s: %.0f ₽\n", i+1, escape(c.Category), c.Amount)
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

func shortDate(iso string) string {
	if len(iso) >= 10 {
		return iso[:10]
	}
	return iso
}

// SplitMessage режет текст по лимиту телеграма, не разрывая HTML-теги.
func SplitMessage(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	var messages []string
	for len(text) > 0 {
		if len(text) <= maxLen {
			messages = append(messages, text)
			break
		}

		splitPoint := findSafeSplitPoint(text, maxLen)
		if splitPoint <= 0 || splitPoint > len(text) {
			splitPoint = maxLen
		}

		messages = append(messages, text[:splitPoint])
		text = text[splitPoint:]
	}

	return messages
}

func findSafeSplitPoint(text string, maxLen int) int {
	// ищем пробел или перевод строки, не ломая HTML-теги
	for i := maxLen - 1; i > maxLen/2; i-- {
		if i >= len(text) {
			continue
		}
		if isInsideHTMLTag(text, i) {
			continue
		}

		if text[i] == '\n' || text[i] == ' ' {
			return i + 1
		}
	}

	// внутри тега - ищем его конец
	if maxLen < len(text) && isInsideHTMLTag(text, maxLen) {
		for i := maxLen; i < len(text); i++ {
			if text[i] == '>' {
				for j := i + 1; j < len(text) && j < i+50; j++ {
					if text[j] == '\n' || text[j] == ' ' {
						return j + 1
					}
				}
				return i + 1
			}
		}
	}

	for i := maxLen - 1; i > 0; i-- {
		if text[i] == ' ' || text[i] == '\n' {
			return i + 1
		}
	}

	return maxLen
}

func isInsideHTMLTag(text string, pos int) bool {
	if pos >= len(text) || pos < 0 {
		return false
	}

	for i := pos; i >= 0; i-- {
		switch text[i] {
		case '>':
			return false
		case '<':
			return true
		}
	}
	return false
}
