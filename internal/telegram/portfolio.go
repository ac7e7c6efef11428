package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/timzinin/zinin-corp/internal/connectors/coingecko"
	"github.com/timzinin/zinin-corp/internal/connectors/forex"
	"github.com/timzinin/zinin-corp/internal/connectors/tonapi"
)

// Portfolio опрашивает внешние источники параллельно и склеивает
// один текстовый отчёт. Отказ одного источника не валит остальные.
type Portfolio struct {
	Coins   *coingecko.Client
	Forex   *forex.Client
	TON     *tonapi.Client
	Wallets []string
	Logger  *zap.Logger
}

// Report - полный срез: крипта, курсы валют, TON-кошельки.
func (p *Portfolio) Report(ctx context.Context) (string, error) {
	var (
		pricesText  string
		ratesText   string
		walletsText string
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		prices, err := p.Coins.SimplePrice(gctx, "top", "usd")
		if err != nil {
			p.Logger.Warn("coingecko unavailable", zap.Error(err))
			pricesText = "Цены криптовалют недоступны."
			return nil
		}
		pricesText = coingecko.FormatPrices(prices)
		return nil
	})

	g.Go(func() error {
		rates, err := p.Forex.Rates(gctx, "USD")
		if err != nil {
			p.Logger.Warn("forex unavailable", zap.Error(err))
			ratesText = "Курсы валют недоступны."
			return nil
		}
		ratesText = forex.FormatRates(rates)
		return nil
	})

	g.Go(func() error {
		if p.TON == nil || len(p.Wallets) == 0 {
			walletsText = "TON-кошельки не настроены."
			return nil
		}
		wallets := p.TON.Portfolio(gctx, p.Wallets, p.Coins)
		walletsText = tonapi.FormatPortfolio(wallets)
		return nil
	})

	if err := g.Wait(); err != nil {
		return "", err
	}

	sections := []string{pricesText, ratesText, walletsText}
	if allUnavailable(sections) {
		return "", errors.New("все источники портфеля недоступны")
	}
	return strings.Join(sections, "\n\n"), nil
}

// Balances - короткий срез: курсы фиата и остатки TON по кошелькам.
func (p *Portfolio) Balances(ctx context.Context) (string, error) {
	wallets := p.Wallets
	if p.TON == nil {
		wallets = nil
	}

	var (
		ratesText string
		tonLines  = make([]string, len(wallets))
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rates, err := p.Forex.Rates(gctx, "USD")
		if err != nil {
			p.Logger.Warn("forex unavailable", zap.Error(err))
			ratesText = "Курсы валют недоступны."
			return nil
		}
		ratesText = forex.FormatRates(rates)
		return nil
	})

	for i, addr := range wallets {
		g.Go(func() error {
			acc, err := p.TON.Account(gctx, addr)
			if err != nil {
				p.Logger.Warn("tonapi unavailable",
					zap.Error(err),
					zap.String("wallet", tonapi.ShortAddress(addr)),
				)
				tonLines[i] = fmt.Sprintf("%s: недоступен", tonapi.ShortAddress(addr))
				return nil
			}
			tonLines[i] = fmt.Sprintf("%s: %.4f TON", tonapi.ShortAddress(addr), acc.TON())
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("БАЛАНСЫ\n\n")
	sb.WriteString(ratesText)
	if len(tonLines) > 0 {
		sb.WriteString("\n\nTON-кошельки:\n")
		for _, line := range tonLines {
			sb.WriteString("  " + line + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func allUnavailable(sections []string) bool {
	for _, s := range sections {
		if !strings.Contains(s, "недоступны") && !strings.Contains(s, "не настроены") {
			return false
		}
	}
	return true
}
