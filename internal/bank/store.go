package bank

import (
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/timzinin/zinin-corp/internal/storage"
)

// ledger - сохранённое состояние: все операции из присланных выписок.
type ledger struct {
	Transactions []Transaction `json:"transactions"`
	Cards        []string      `json:"cards"`
	Period       Period        `json:"period"`
	TotalCount   int           `json:"total_count"`
	LastUpdated  time.Time     `json:"last_updated"`
}

// Store накапливает операции из выписок с дедупликацией.
type Store struct {
	mu     sync.Mutex
	store  *storage.Store
	logger *zap.Logger
}

// NewStore открывает хранилище операций в dataDir.
func NewStore(dataDir string, logger *zap.Logger) (*Store, error) {
	st, err := storage.NewStore(filepath.Join(dataDir, "tinkoff_transactions.json"))
	if err != nil {
		return nil, err
	}
	return &Store{store: st, logger: logger}, nil
}

// Merge добавляет операции выписки к уже сохранённым.
// Возвращает число новых операций.
func (s *Store) Merge(st Statement) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var data ledger
	if err := s.store.Load(&data); err != nil {
		return 0, err
	}

	seen := make(map[string]bool, len(data.Transactions))
	for _, tx := range data.Transactions {
		seen[txKey(tx)] = true
	}

	added := 0
	for _, tx := range st.Transactions {
		key := txKey(tx)
		if seen[key] {
			continue
		}
		seen[key] = true
		data.Transactions = append(data.Transactions, tx)
		added++
	}

	sort.Slice(data.Transactions, func(i, j int) bool {
		return data.Transactions[i].Date > data.Transactions[j].Date
	})

	cardSet := make(map[string]bool)
	data.Period = Period{}
	for _, tx := range data.Transactions {
		if tx.Card != "" {
			cardSet[tx.Card] = true
		}
		if tx.Date == "" {
			continue
		}
		if data.Period.Start == "" || tx.Date < data.Period.Start {
			data.Period.Start = tx.Date
		}
		if tx.Date > data.Period.End {
			data.Period.End = tx.Date
		}
	}
	data.Cards = data.Cards[:0]
	for card := range cardSet {
		data.Cards = append(data.Cards, card)
	}
	sort.Strings(data.Cards)

	data.TotalCount = len(data.Transactions)
	data.LastUpdated = time.Now()

	if err := s.store.Save(data); err != nil {
		return 0, err
	}
	s.logger.Info("выписка сохранена",
		zap.Int("new", added), zap.Int("total", data.TotalCount))
	return added, nil
}

// Filter задаёт выборку операций. Нулевые поля не фильтруют.
type Filter struct {
	Limit    int
	Card     string
	Category string
	Query    string // подстрока описания без учёта регистра
	DateFrom string
	DateTo   string
}

// Transactions возвращает операции по фильтру, свежие первыми.
func (s *Store) Transactions(f Filter) ([]Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var data ledger
	if err := s.store.Load(&data); err != nil {
		return nil, err
	}

	out := make([]Transaction, 0, len(data.Transactions))
	for _, tx := range data.Transactions {
		if f.Card != "" && !strings.Contains(tx.Card, f.Card) {
			continue
		}
		if f.Category != "" && !strings.Contains(strings.ToLower(tx.Category), strings.ToLower(f.Category)) {
			continue
		}
		if f.Query != "" && !strings.Contains(strings.ToLower(tx.Description), strings.ToLower(f.Query)) {
			continue
		}
		if f.DateFrom != "" && tx.Date < f.DateFrom {
			continue
		}
		if f.DateTo != "" && tx.Date > f.DateTo {
			continue
		}
		out = append(out, tx)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}

// MonthTotal - доходы и расходы одного месяца.
type MonthTotal struct {
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
}

// LedgerSummary - сводка по всем накопленным операциям.
type LedgerSummary struct {
	Summary
	Cards       []string              `json:"cards"`
	Period      Period                `json:"period"`
	Monthly     map[string]MonthTotal `json:"monthly"` // ключ YYYY-MM
	LastUpdated time.Time             `json:"last_updated"`
}

// Summarize агрегирует все сохранённые операции. Пустое хранилище
// возвращает ok=false.
func (s *Store) Summarize() (LedgerSummary, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var data ledger
	if err := s.store.Load(&data); err != nil {
		return LedgerSummary{}, false, err
	}
	if len(data.Transactions) == 0 {
		return LedgerSummary{}, false, nil
	}

	sum := LedgerSummary{
		Summary:     buildSummary(data.Transactions),
		Cards:       data.Cards,
		Period:      data.Period,
		Monthly:     make(map[string]MonthTotal),
		LastUpdated: data.LastUpdated,
	}
	for _, tx := range data.Transactions {
		if len(tx.Date) < 7 {
			continue
		}
		month := tx.Date[:7]
		mt := sum.Monthly[month]
		switch tx.OpType {
		case OpCredit:
			mt.Income += tx.Amount
		case OpDebit, OpTransfer:
			mt.Expenses += abs(tx.Amount)
		}
		sum.Monthly[month] = mt
	}
	return sum, true, nil
}

func txKey(tx Transaction) string {
	return tx.Date + "|" + strconv.FormatFloat(tx.Amount, 'f', 2, 64) +
		"|" + tx.Description + "|" + tx.Card
}
