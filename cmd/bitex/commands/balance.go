package commands

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/bitex/backend/internal/order"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "계좌 잔고 조회/설정",
}

var balanceShowCmd = &cobra.Command{
	Use:   "show",
	Short: "계좌 잔고 표시",
	RunE:  runBalanceShow,
}

var balanceSetCmd = &cobra.Command{
	Use:   "set [currency] [amount]",
	Short: "계좌 잔고 설정 (운영/테스트용)",
	Long: `Example:
  go run ./cmd/bitex balance set BRL 1000000 --account 2
  go run ./cmd/bitex balance set BTC 1.5 --account 1`,
	Args: cobra.ExactArgs(2),
	RunE: runBalanceSet,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.AddCommand(balanceShowCmd, balanceSetCmd)
}

func runBalanceShow(cmd *cobra.Command, args []string) error {
	if err := requireAccount(); err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	balances, err := a.balances.ListBalances(ctx, accountID)
	if err != nil {
		return err
	}

	currencies := make([]string, 0, len(balances))
	for c := range balances {
		currencies = append(currencies, string(c))
	}
	sort.Strings(currencies)

	PrintDoubleSeparator()
	fmt.Printf("  Account %d\n", accountID)
	PrintSeparator()
	if len(currencies) == 0 {
		fmt.Println("  (no balances)")
	}
	for _, c := range currencies {
		fmt.Printf("  %-4s %20s\n", c, order.FormatFixed(balances[order.Currency(c)]))
	}
	PrintDoubleSeparator()
	return nil
}

func runBalanceSet(cmd *cobra.Command, args []string) error {
	if err := requireAccount(); err != nil {
		return err
	}

	currency, err := order.ParseCurrency(args[0])
	if err != nil {
		return err
	}
	amount, err := order.ParseFixed(args[1])
	if err != nil {
		return err
	}
	if amount < 0 {
		return fmt.Errorf("amount must not be negative")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.balances.SetBalance(ctx, accountID, currency, amount); err != nil {
		return fmt.Errorf("❌ %w", err)
	}
	if err := a.cache.Invalidate(ctx, accountID, currency); err != nil {
		a.log.WithError(err).Warn("Failed to invalidate balance cache")
	}

	fmt.Printf("✅ Account %d %s balance set to %s\n", accountID, currency, args[1])
	return nil
}
