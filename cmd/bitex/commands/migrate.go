package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/wonny/bitex/backend/pkg/config"
	"github.com/wonny/bitex/backend/pkg/database"
)

var migratePrint bool

// migrateCmd applies the embedded schema
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "스키마 생성 (exchange.orders, executions, balances)",
	Long: `내장된 schema.sql을 적용합니다. 여러 번 실행해도 안전합니다.

Example:
  go run ./cmd/bitex migrate
  go run ./cmd/bitex migrate --print`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().BoolVar(&migratePrint, "print", false, "print the schema instead of applying it")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if migratePrint {
		fmt.Print(database.Schema())
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("❌ Failed to load config: %w", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("❌ Failed to connect to database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("❌ Migration failed: %w", err)
	}

	fmt.Println("✅ Schema applied")
	return nil
}
