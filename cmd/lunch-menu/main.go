package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"lunch-menu/internal/app"
	"lunch-menu/internal/config"
	"lunch-menu/internal/database"
	"lunch-menu/internal/extractor"
	"lunch-menu/internal/ghost"
	"lunch-menu/internal/llm"
	"lunch-menu/internal/locator"
	"lunch-menu/internal/logger"
	"lunch-menu/internal/metrics"
	"lunch-menu/internal/storage"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.NewFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	command := "run"
	args := os.Args[1:]
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case "run":
		err = runPipeline(ctx, cfg)
	case "publish":
		err = publish(ctx, cfg)
	case "metrics":
		err = showMetrics(cfg, args)
	case "metrics-cleanup":
		err = cleanupMetrics(cfg, args)
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		log.Error("command failed", zap.String("command", command), zap.Error(err))
		os.Exit(1)
	}
}

func runPipeline(ctx context.Context, cfg *config.Config) error {
	if err := cfg.RequireGemini(); err != nil {
		fmt.Println("GEMINI_API_KEY is not set.")
		return err
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	metricsStore := metrics.NewStore(db.SQL)

	visionClient, err := llm.NewVisionClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer visionClient.Close()

	store, err := storage.NewMenuStore(cfg.MenuPath)
	if err != nil {
		return err
	}

	application := app.NewApp(
		locator.New(cfg),
		extractor.NewExtractor(visionClient),
		store,
		metricsStore,
		nil,
		cfg,
	)

	_, err = application.RefreshMenu(ctx)
	return err
}

func publish(ctx context.Context, cfg *config.Config) error {
	if err := cfg.RequireGhost(); err != nil {
		return err
	}

	store, err := storage.NewMenuStore(cfg.MenuPath)
	if err != nil {
		return err
	}

	application := app.NewApp(nil, nil, store, nil, ghost.NewClient(cfg), cfg)
	_, err = application.PublishMenu(ctx)
	return err
}

func showMetrics(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("metrics", flag.ExitOnError)
	days := fs.Int("days", 7, "Report the last N days")
	runs := fs.Int("runs", 5, "Number of recent pipeline runs to list")
	fs.Parse(args)

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	metricsStore := metrics.NewStore(db.SQL)

	usage, err := metricsStore.GetDailyUsage(*days)
	if err != nil {
		return err
	}
	fmt.Printf("Token usage (last %d days):\n", *days)
	if len(usage) == 0 {
		fmt.Println("  no model calls recorded")
	}
	for _, u := range usage {
		fmt.Printf("  %s: %d prompt + %d completion tokens (%d execs)\n",
			u.Date, u.TotalPrompt, u.TotalCompletion, u.TotalExecution)
	}

	recent, err := metricsStore.RecentRuns(*runs)
	if err != nil {
		return err
	}
	fmt.Println("\nRecent runs:")
	if len(recent) == 0 {
		fmt.Println("  no pipeline runs recorded")
	}
	for _, r := range recent {
		line := fmt.Sprintf("  %s %s in %s", r.StartedAt.Local().Format("2006-01-02 15:04"), r.Status, r.Duration.Round(time.Millisecond))
		if r.Status == metrics.RunSucceeded {
			line += fmt.Sprintf(", %d days", r.DayCount)
		} else if r.Error != "" {
			line += ": " + r.Error
		}
		fmt.Println(line)
	}

	health := metrics.GetSysHealth(filepath.Dir(cfg.DatabasePath), cfg.MenuPath)
	fmt.Printf("\nData dir: %s\n", health.DataDiskSize)
	if health.MenuPresent {
		fmt.Printf("Menu file: %s, modified %s\n", health.MenuSize, health.MenuModified.Local().Format("2006-01-02 15:04"))
	} else {
		fmt.Println("Menu file: missing")
	}
	return nil
}

func cleanupMetrics(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
	days := fs.Int("days", 30, "Keep records for the last N days")
	fs.Parse(args)

	if *days < 1 {
		return errors.New("-days must be at least 1")
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	affected, err := metrics.NewStore(db.SQL).Cleanup(*days)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}
	fmt.Printf("Successfully removed %d old metric records.\n", affected)
	return nil
}

func printUsage() {
	fmt.Println("Usage: lunch-menu [command] [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  run                Locate, extract and store this week's menu (default)")
	fmt.Println("  publish            Create a Ghost draft post from the stored menu")
	fmt.Println("  metrics            Show token usage and recent pipeline runs")
	fmt.Println("  metrics-cleanup    Remove old metric records")
}
