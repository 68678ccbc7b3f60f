package main

import (
	"os"

	"github.com/wonny/loadsynth/cmd/loadsynth/commands"
)

// main is the entry point for the loadsynth CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/loadsynth [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
