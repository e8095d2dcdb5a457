package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pevans/announcements"
	"github.com/pevans/announcements/config"
	"github.com/pevans/announcements/logging"
	"go.uber.org/zap"
)

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configPath := flag.String("config", getEnv("ANNOUNCEMENTS_CONFIG", ""), "Path to config file (ANNOUNCEMENTS_CONFIG)")
	addr := flag.String("addr", getEnv("ANNOUNCEMENTS_API_ADDR", ""), "Listen address (ANNOUNCEMENTS_API_ADDR)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg.Site.BaseURL = getEnv("ANNOUNCEMENTS_BASE_URL", cfg.Site.BaseURL)
	cfg.Log.Level = getEnv("ANNOUNCEMENTS_LOG_LEVEL", cfg.Log.Level)
	if *addr != "" {
		cfg.API.Addr = *addr
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	service, err := announcements.NewService(cfg, logger)
	if err != nil {
		logger.Fatal("failed to create service", zap.Error(err))
	}

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := announcements.NewAPIServer(service).SetupRouter()

	server := &http.Server{
		Addr:              cfg.API.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	errChan := make(chan error, 1)
	go func() {
		logger.Info("starting announcements API", zap.String("addr", "http://"+cfg.API.Addr+"/api/v1/announcements"))
		errChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		logger.Info("shutting down gracefully", zap.String("signal", sig.String()))

		// A crawl in flight may take several page timeouts
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("shutdown timeout exceeded", zap.Error(err))
			return
		}
		logger.Info("server stopped")
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}
}
