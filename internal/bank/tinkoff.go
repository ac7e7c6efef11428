// Package bank разбирает CSV-выписки Т-Банка и хранит операции.
// Тим присылает выписку файлом в Telegram, CFO получает сводку.
package bank

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/timzinin/zinin-corp/internal/domain"
)

// Типы операций.
const (
	OpCredit           = "credit"
	OpDebit            = "debit"
	OpTransfer         = "transfer"
	OpInternalTransfer = "internal_transfer"
)

// Transaction - одна операция из выписки.
type Transaction struct {
	Date            string  `json:"date"` // ISO или исходная строка, если дата не разобралась
	PaymentDate     string  `json:"payment_date"`
	Card            string  `json:"card"`
	Status          string  `json:"status"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
	PaymentAmount   float64 `json:"payment_amount"`
	PaymentCurrency string  `json:"payment_currency"`
	Category        string  `json:"category"`
	MCC             string  `json:"mcc"`
	Description     string  `json:"description"`
	Cashback        float64 `json:"cashback"`
	Bonuses         float64 `json:"bonuses"`
	OpType          string  `json:"op_type"`
}

// Summary - агрегаты по выписке.
type Summary struct {
	Income            float64         `json:"income"`
	Expenses          float64         `json:"expenses"`
	InternalTransfers float64         `json:"internal_transfers"`
	Net               float64         `json:"net"`
	TopCategories     []CategoryTotal `json:"top_categories"`
	TotalTransactions int             `json:"total_transactions"`
}

// CategoryTotal - расходы по одной категории.
type CategoryTotal struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// Period - границы дат выписки.
type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Statement - результат разбора CSV.
type Statement struct {
	Transactions []Transaction `json:"transactions"`
	Summary      Summary       `json:"summary"`
	Cards        []string      `json:"cards"`
	Period       Period        `json:"period"`
	Errors       []string      `json:"errors"`
	ParsedAt     time.Time     `json:"parsed_at"`
}

const maxTopCategories = 15

// IsTinkoffCSV проверяет по заголовку, что текст похож на выписку Т-Банка.
func IsTinkoffCSV(text string) bool {
	firstLine, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	return strings.Contains(firstLine, "Дата операции") &&
		strings.Contains(firstLine, "Сумма операции")
}

// ParseStatement разбирает CSV-выписку. Битые строки не роняют разбор,
// они копятся в Errors.
func ParseStatement(content string) (Statement, error) {
	if !IsTinkoffCSV(content) {
		return Statement{}, domain.ErrNotTinkoffCSV
	}

	reader := csv.NewReader(strings.NewReader(content))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return Statement{}, fmt.Errorf("read csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF"))] = i
	}

	st := Statement{ParsedAt: time.Now()}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			st.Errors = append(st.Errors, fmt.Sprintf("строка %d: %v", line, err))
			continue
		}
		tx, ok := parseRow(record, cols)
		if ok {
			st.Transactions = append(st.Transactions, tx)
		}
	}

	// Свежие операции первыми
	sort.Slice(st.Transactions, func(i, j int) bool {
		return st.Transactions[i].Date > st.Transactions[j].Date
	})

	st.Summary = buildSummary(st.Transactions)

	cardSet := make(map[string]bool)
	for _, tx := range st.Transactions {
		if tx.Card != "" {
			cardSet[tx.Card] = true
		}
	}
	for card := range cardSet {
		st.Cards = append(st.Cards, card)
	}
	sort.Strings(st.Cards)

	for _, tx := range st.Transactions {
		if tx.Date == "" {
			continue
		}
		if st.Period.Start == "" || tx.Date < st.Period.Start {
			st.Period.Start = tx.Date
		}
		if tx.Date > st.Period.End {
			st.Period.End = tx.Date
		}
	}
	return st, nil
}

func field(record []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func parseRow(record []string, cols map[string]int) (Transaction, bool) {
	status := field(record, cols, "Статус")
	if status == "FAILED" {
		return Transaction{}, false
	}

	tx := Transaction{
		PaymentDate:     field(record, cols, "Дата платежа"),
		Card:            field(record, cols, "Номер карты"),
		Status:          status,
		Amount:          parseAmount(field(record, cols, "Сумма операции")),
		Currency:        defaultStr(field(record, cols, "Валюта операции"), "RUB"),
		PaymentAmount:   parseAmount(field(record, cols, "Сумма платежа")),
		PaymentCurrency: defaultStr(field(record, cols, "Валюта платежа"), "RUB"),
		Category:        field(record, cols, "Категория"),
		MCC:             field(record, cols, "MCC"),
		Description:     field(record, cols, "Описание"),
		Cashback:        parseAmount(field(record, cols, "Кэшбэк")),
		Bonuses:         parseAmount(field(record, cols, "Бонусы (включая кэшбэк)")),
	}

	if raw := field(record, cols, "Дата операции"); raw != "" {
		if dt, err := time.Parse("02.01.2006 15:04:05", raw); err == nil {
			tx.Date = dt.Format("2006-01-02T15:04:05")
		} else {
			tx.Date = raw
		}
	}

	switch {
	case tx.Amount > 0:
		tx.OpType = OpCredit
	case tx.Category == "Переводы" && strings.Contains(tx.Description, "Между своими"):
		tx.OpType = OpInternalTransfer
	case tx.Category == "Переводы":
		tx.OpType = OpTransfer
	default:
		tx.OpType = OpDebit
	}
	return tx, true
}

// parseAmount разбирает суммы вида "−1 500,00": минус бывает U+2212,
// разделитель тысяч - неразрывный пробел, десятичный - запятая.
func parseAmount(value string) float64 {
	if value == "" {
		return 0
	}
	cleaned := strings.NewReplacer(
		"−", "-",
		"–", "-",
		" ", "",
		" ", "",
		",", ".",
	).Replace(strings.TrimSpace(value))
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return f
}

func defaultStr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func buildSummary(txs []Transaction) Summary {
	s := Summary{TotalTransactions: len(txs)}
	categories := make(map[string]float64)

	for _, tx := range txs {
		switch tx.OpType {
		case OpCredit:
			s.Income += tx.Amount
		case OpInternalTransfer:
			s.InternalTransfers += abs(tx.Amount)
		case OpDebit, OpTransfer:
			s.Expenses += abs(tx.Amount)
			cat := tx.Category
			if cat == "" {
				cat = "Другое"
			}
			categories[cat] += abs(tx.Amount)
		}
	}
	s.Income = round2(s.Income)
	s.Expenses = round2(s.Expenses)
	s.InternalTransfers = round2(s.InternalTransfers)
	s.Net = round2(s.Income - s.Expenses)

	for cat, amt := range categories {
		s.TopCategories = append(s.TopCategories, CategoryTotal{Category: cat, Amount: round2(amt)})
	}
	sort.Slice(s.TopCategories, func(i, j int) bool {
		if s.TopCategories[i].Amount != s.TopCategories[j].Amount {
			return s.TopCategories[i].Amount > s.TopCategories[j].Amount
		}
		return s.TopCategories[i].Category < s.TopCategories[j].Category
	})
	if len(s.TopCategories) > maxTopCategories {
		s.TopCategories = s.TopCategories[:maxTopCategories]
	}
	return s
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func round2(f float64) float64 {
	return float64(int64(f*100+sign(f)*0.5)) / 100
}

func sign(f float64) float64 {
	if f < 0 {
		return -1
	}
	return 1
}

// FormatStatement собирает текстовую сводку выписки для чата.
func FormatStatement(st Statement) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Выписка Т-Банк: %s - %s\n",
		datePrefix(st.Period.Start), datePrefix(st.Period.End)))
	b.WriteString(fmt.Sprintf("Операций: %d (карты: %s)\n\n",
		len(st.Transactions), strings.Join(st.Cards, ", ")))
	b.WriteString(fmt.Sprintf("Доходы: +%.2f RUB\n", st.Summary.Income))
	b.WriteString(fmt.Sprintf("Расходы: -%.2f RUB\n", st.Summary.Expenses))
	b.WriteString(fmt.Sprintf("Нетто: %.2f RUB\n", st.Summary.Net))
	if st.Summary.InternalTransfers > 0 {
		b.WriteString(fmt.Sprintf("Переводы между счетами: %.2f RUB\n", st.Summary.InternalTransfers))
	}
	if len(st.Summary.TopCategories) > 0 {
		b.WriteString("\nТоп расходов по категориям:\n")
		for _, c := range st.Summary.TopCategories {
			b.WriteString(fmt.Sprintf("  %s: %.2f RUB\n", c.Category, c.Amount))
		}
	}
	if len(st.Errors) > 0 {
		b.WriteString(fmt.Sprintf("\n(Ошибки парсинга: %d)\n", len(st.Errors)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func datePrefix(iso string) string {
	if len(iso) >= 10 {
		return iso[:10]
	}
	if iso == "" {
		return "?"
	}
	return iso
}
