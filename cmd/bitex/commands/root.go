package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	accountID int64
	verbose   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bitex",
	Short: "bitex - 주문 매칭 코어",
	Long: `bitex Unified CLI

가격-시간 우선순위 주문 매칭, 잔고 기반 수량 제한, 체결 영속화.
PostgreSQL이 주문/체결/잔고의 원장이며 Redis는 선택 사항입니다.

Usage:
  go run ./cmd/bitex [command]

Examples:
  go run ./cmd/bitex migrate
  go run ./cmd/bitex order place --account 1 --symbol BTCBRL --side buy --price 250000 --qty 0.5
  go run ./cmd/bitex book show BTCBRL
  go run ./cmd/bitex worker`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Int64Var(&accountID, "account", 0, "account id acting on the exchange")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
