package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	"redenvelope/internal/config"
	"redenvelope/internal/handlers"
	"redenvelope/internal/services"
	"redenvelope/internal/storage"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	defer logger.Init("red-envelope", cfg.Verbose, false, os.Stderr).Close()

	// 2. Open the result log
	resultLog, err := openResultLog(cfg)
	if err != nil {
		logger.Fatalf("Failed to open result log: %v", err)
	}
	defer resultLog.Close()
	logger.Infof("Result log ready (driver: %s, path: %s)", cfg.ResultLogDriver, cfg.ResultLogPath)

	// 3. Initialize the Game Service
	recorder := services.NewResultRecorder(resultLog)
	gameService := services.NewGameService(recorder,
		services.WithDefaultSettings(cfg.DefaultSettings()),
		services.WithReportLanguage(cfg.Language()),
		services.WithMaxEnvelopeCount(cfg.MaxEnvelopeCount),
	)

	// 4. Initialize the HTTP Handler
	httpHandler := handlers.NewHTTPHandler(gameService)

	// 5. Set up the Gin router
	gin.SetMode(cfg.GinMode)
	r := gin.Default()

	// 6. Register public routes (before middleware)
	httpHandler.RegisterPublicRoutes(r)

	// 7. Group routes that require tenant identification and apply middleware
	tenantRoutes := r.Group("/")
	tenantRoutes.Use(httpHandler.TenantMiddleware())
	httpHandler.RegisterTenantRoutes(tenantRoutes)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 8. Start the background janitor to clean up inactive sessions
	go func() {
		ticker := time.NewTicker(cfg.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				gameService.CleanUpInactiveSessions(cfg.SessionTTL)
				logger.Infof("Performed cleanup of inactive sessions.")
			}
		}
	}()

	// 9. Run the server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infof("Server starting on http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to run server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}

	// Let in-flight result log writes finish before the log is closed.
	gameService.Wait()
}

func openResultLog(cfg *config.Config) (storage.ResultLog, error) {
	if cfg.ResultLogDriver == config.DriverSQLite {
		l, err := storage.OpenSQLiteLog(cfg.ResultLogPath)
		if err != nil {
			return nil, err
		}
		return l, nil
	}
	l, err := storage.OpenFileLog(cfg.ResultLogPath)
	if err != nil {
		return nil, err
	}
	return l, nil
}
