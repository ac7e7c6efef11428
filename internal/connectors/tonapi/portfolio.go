package tonapi

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

const maxJettonLines = 15

// TONPricer отдаёт цену тона в долларах. Реализуется клиентом coingecko.
type TONPricer interface {
	USDPrice(ctx context.Context, coinID string) (float64, error)
}

// WalletPortfolio - позиции одного кошелька.
type WalletPortfolio struct {
	Address  string
	Status   string
	TON      float64
	TONUSD   float64
	Jettons  []JettonBalance
	TotalUSD float64
	Err      error
}

// Portfolio собирает позиции по всем адресам. Ошибка по одному кошельку
// не роняет остальные, она попадает в WalletPortfolio.Err.
func (c *Client) Portfolio(ctx context.Context, addresses []string, pricer TONPricer) []WalletPortfolio {
	tonPrice := 0.0
	if pricer != nil {
		if p, err := pricer.USDPrice(ctx, "the-open-network"); err == nil {
			tonPrice = p
		} else if c.logger != nil {
			c.logger.Warn("цена TON недоступна", zap.Error(err))
		}
	}

	out := make([]WalletPortfolio, 0, len(addresses))
	for _, addr := range addresses {
		w := WalletPortfolio{Address: addr}

		acc, err := c.Account(ctx, addr)
		if err != nil {
			w.Err = err
			out = append(out, w)
			continue
		}
		w.Status = acc.Status
		w.TON = acc.TON()
		w.TONUSD = w.TON * tonPrice
		w.TotalUSD = w.TONUSD

		jettons, err := c.Jettons(ctx, addr)
		if err != nil {
			w.Err = err
			out = append(out, w)
			continue
		}
		for _, j := range jettons {
			if j.Amount() <= 0 {
				continue
			}
			w.Jettons = append(w.Jettons, j)
			w.TotalUSD += j.USDValue()
		}
		sort.Slice(w.Jettons, func(i, k int) bool {
			return w.Jettons[i].USDValue() > w.Jettons[k].USDValue()
		})
		out = append(out, w)
	}
	return out
}

// FormatPortfolio собирает текстовую сводку портфеля для чата.
func FormatPortfolio(wallets []WalletPortfolio) string {
	total := 0.0
	for _, w := range wallets {
		total += w.TotalUSD
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("TON PORTFOLIO ($%.2f USD total):\n", total))
	for _, w := range wallets {
		b.WriteString(fmt.Sprintf("  Wallet %s:\n", ShortAddress(w.Address)))
		if w.Err != nil {
			b.WriteString(fmt.Sprintf("    Error: %v\n", w.Err))
			continue
		}
		b.WriteString(fmt.Sprintf("    TON: %.4f ($%.2f)\n", w.TON, w.TONUSD))
		b.WriteString(fmt.Sprintf("    Status: %s\n", w.Status))
		for i, j := range w.Jettons {
			if i >= maxJettonLines {
				b.WriteString(fmt.Sprintf("    ... +%d more jettons\n", len(w.Jettons)-maxJettonLines))
				break
			}
			line := fmt.Sprintf("    %s: %.4f", j.Jetton.Symbol, j.Amount())
			if usd := j.USDValue(); usd > 0 {
				line += fmt.Sprintf(" ($%.2f)", usd)
			}
			b.WriteString(line + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatEvents собирает человекочитаемую историю транзакций.
func FormatEvents(address string, events []Event) string {
	if len(events) == 0 {
		return fmt.Sprintf("Нет транзакций для %s", ShortAddress(address))
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("TON TRANSACTIONS (%s):\n", ShortAddress(address)))
	for _, ev := range events {
		date := "N/A"
		if ev.Timestamp > 0 {
			date = time.Unix(ev.Timestamp, 0).UTC().Format("2006-01-02 15:04")
		}
		for _, a := range ev.Actions {
			details := describeAction(a, address)
			statusSuffix := ""
			if a.Status != "" && a.Status != "ok" {
				statusSuffix = " [FAILED]"
			}
			b.WriteString(fmt.Sprintf("  %s | %s%s | %s\n", date, a.Type, statusSuffix, details))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func describeAction(a Action, address string) string {
	switch {
	case a.Type == "TonTransfer" && a.TonTransfer != nil:
		t := a.TonTransfer
		direction := "OUT"
		if t.Recipient.Address == address {
			direction = "IN"
		}
		details := fmt.Sprintf("%s %.4f TON", direction, float64(t.Amount)/nanotonsPerTON)
		if t.Comment != "" {
			details += fmt.Sprintf(" %q", truncate(t.Comment, 40))
		}
		return details
	case a.Type == "JettonTransfer" && a.JettonTransfer != nil:
		t := a.JettonTransfer
		direction := "OUT"
		if t.Recipient.Address == address {
			direction = "IN"
		}
		jb := JettonBalance{Balance: t.Amount}
		jb.Jetton.Symbol = t.Jetton.Symbol
		jb.Jetton.Decimals = t.Jetton.Decimals
		return fmt.Sprintf("%s %.4f %s", direction, jb.Amount(), t.Jetton.Symbol)
	case a.Type == "JettonSwap":
		return "SWAP"
	case a.SimplePreview.Description != "":
		return truncate(a.SimplePreview.Description, 60)
	default:
		return a.Type
	}
}

// ShortAddress сокращает адрес кошелька до вида UQDk...x8Pn.
func ShortAddress(addr string) string {
	if len(addr) <= 8 {
		return addr
	}
	return addr[:4] + "..." + addr[len(addr)-4:]
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
