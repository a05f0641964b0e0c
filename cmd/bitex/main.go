package main

import (
	"os"

	"github.com/wonny/bitex/backend/cmd/bitex/commands"
)

// main is the entry point for the bitex CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/bitex [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
