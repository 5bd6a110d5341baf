package main

import (
	"fmt"
	"os"

	"lunch-menu/internal/app"
	"lunch-menu/internal/config"
	"lunch-menu/internal/storage"
	"lunch-menu/internal/tui"
)

func main() {
	cfg, err := config.NewFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// No logger here: the viewer owns the terminal.
	store, err := storage.NewMenuStore(cfg.MenuPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open menu store: %v\n", err)
		os.Exit(1)
	}

	if err := tui.Run(app.NewComments(store)); err != nil {
		fmt.Fprintf(os.Stderr, "Viewer failed: %v\n", err)
		os.Exit(1)
	}
}
