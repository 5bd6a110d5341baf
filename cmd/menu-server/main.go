package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lunch-menu/internal/app"
	"lunch-menu/internal/config"
	"lunch-menu/internal/database"
	"lunch-menu/internal/logger"
	"lunch-menu/internal/metrics"
	"lunch-menu/internal/storage"
	"lunch-menu/internal/telegram"
	"lunch-menu/internal/web"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.NewFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := storage.NewMenuStore(cfg.MenuPath)
	if err != nil {
		log.Fatal("failed to initialize menu store", zap.Error(err))
	}
	comments := app.NewComments(store)

	// The Telegram bot is optional; the web viewer runs without it.
	var telegramHook http.Handler
	if cfg.TelegramBotToken != "" {
		if err := cfg.RequireTelegram(); err != nil {
			log.Fatal("invalid telegram configuration", zap.Error(err))
		}

		db, err := database.NewDB(cfg.DatabasePath)
		if err != nil {
			log.Fatal("failed to initialize database", zap.Error(err))
		}
		defer db.Close()

		bot, err := telegram.NewBot(cfg, comments, metrics.NewStore(db.SQL))
		if err != nil {
			log.Fatal("failed to initialize telegram bot", zap.Error(err))
		}
		telegramHook = bot.WebhookHandler()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           web.NewRouter(web.NewHandler(comments, cfg), telegramHook),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("menu server listening", zap.String("port", cfg.Port), zap.String("menu", cfg.MenuPath))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}

	log.Info("server exiting")
}
