package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fbecker/blockplan/internal/engine"
	"github.com/fbecker/blockplan/internal/reminder"
	"github.com/fbecker/blockplan/internal/storage"
	"github.com/fbecker/blockplan/internal/update"
)

func main() {
	cfg := update.RuntimeConfigFromEnv(update.DefaultRuntimeConfig())

	store, err := storage.OpenSQLite(cfg.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "blockplan: open store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	eng := engine.New(store, store)

	alerts := reminder.NewEngine(cfg.AlertBuffer)
	alerts.Start()
	defer alerts.Stop()

	var notifier update.DesktopNotifier = update.NoopDesktopNotifier{}
	if cfg.DesktopNotifications {
		notifier = update.ExecDesktopNotifier{}
	}

	model := update.NewModelWithConfig(eng, alerts, notifier, cfg)
	program := tea.NewProgram(model)
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "blockplan failed: %v\n", err)
		os.Exit(1)
	}
}
