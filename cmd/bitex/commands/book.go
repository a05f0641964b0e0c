package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/bitex/backend/internal/order"
)

var (
	bookDepth int
	bookSince time.Duration
)

var bookCmd = &cobra.Command{
	Use:   "book",
	Short: "호가창 조회",
}

var bookShowCmd = &cobra.Command{
	Use:   "show [symbol]",
	Short: "호가창 및 체결 통계 표시",
	Long: `저장된 미체결 주문으로 호가창을 재구성해 가격대별로 표시합니다.

Example:
  go run ./cmd/bitex book show BTCBRL
  go run ./cmd/bitex book show BTC/BRL --depth 5 --since 1h`,
	Args: cobra.ExactArgs(1),
	RunE: runBookShow,
}

func init() {
	rootCmd.AddCommand(bookCmd)
	bookCmd.AddCommand(bookShowCmd)

	bookShowCmd.Flags().IntVar(&bookDepth, "depth", 10, "price levels per side (0 = all)")
	bookShowCmd.Flags().DurationVar(&bookSince, "since", 24*time.Hour, "execution statistics window")
}

func runBookShow(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	engine, err := a.loadEngine(ctx)
	if err != nil {
		return err
	}

	pair, err := order.ParseSymbol(args[0])
	if err != nil {
		return err
	}
	symbol := pair.Symbol()

	bids, asks, err := engine.Depth(symbol, bookDepth)
	if err != nil {
		return fmt.Errorf("❌ %w", err)
	}

	summary, err := a.orders.GetExecutionSummary(ctx, symbol, time.Now().Add(-bookSince))
	if err != nil {
		return err
	}

	PrintDoubleSeparator()
	fmt.Printf("  %s order book\n", symbol)
	PrintSeparator()
	PrintLevels("Asks", asks)
	PrintLevels("Bids", bids)
	PrintSeparator()
	fmt.Printf("  Last %v: %d trades, volume %s\n", bookSince, summary.Trades, order.FormatFixed(summary.Volume))
	if summary.Trades > 0 {
		fmt.Printf("  Low %s / High %s / VWAP %s\n",
			order.FormatFixed(summary.Low), order.FormatFixed(summary.High), order.FormatFixed(summary.VWAP()))
	}
	PrintDoubleSeparator()
	return nil
}
