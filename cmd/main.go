package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"rice-guard/config"
	"rice-guard/internal/api/httpapi"
	"rice-guard/internal/api/telegram"
	"rice-guard/internal/container"
	"rice-guard/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatalw("server stopped", "error", err)
	}
}

func run(cfg *config.Config, logger *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Собираем сервисы приложения
	appContainer, err := container.FromConfig(cfg, logger)
	if err != nil {
		return err
	}

	// Telegram-бот - необязательная вторая точка входа
	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramToken, appContainer.SessionService, appContainer.AnalysisService, logger.Named("telegram"))
		if err != nil {
			return err
		}
		go func() {
			if err := bot.Run(ctx); err != nil {
				logger.Errorw("telegram bot stopped", "error", err)
			}
		}()
	}

	handler := httpapi.NewHandler(appContainer.AnalysisService, cfg.MaxUploadSize, logger.Named("http"))
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.RoboflowTimeout + 30*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("server starting",
			"addr", cfg.HTTPAddr,
			"model", cfg.RoboflowModelID,
			"px_to_mm", cfg.PxToMM,
			"median_stats", cfg.UseMedianStats,
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
