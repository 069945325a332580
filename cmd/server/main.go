package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iconidentify/skyfurl/internal/api"
	"github.com/iconidentify/skyfurl/internal/api/handler"
	"github.com/iconidentify/skyfurl/internal/bluesky"
	"github.com/iconidentify/skyfurl/internal/config"
	"github.com/iconidentify/skyfurl/internal/coordinator"
	"github.com/iconidentify/skyfurl/internal/slack"
	"github.com/iconidentify/skyfurl/internal/store"
	"github.com/iconidentify/skyfurl/internal/transcode"
	"github.com/iconidentify/skyfurl/internal/unfurl"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("skyfurl %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting skyfurl",
		"version", Version,
		"build_time", BuildTime,
	)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize storage
	assets, err := store.NewAssetStore(cfg.Storage.VideoPath)
	if err != nil {
		logger.Error("failed to initialize asset store", "error", err)
		os.Exit(1)
	}

	installations, err := store.NewInstallationStore(cfg.Storage.InstallationPath)
	if err != nil {
		logger.Error("failed to open installation store", "error", err)
		os.Exit(1)
	}
	defer installations.Close()

	validatedInstallations := store.NewValidatedInstallationStore(
		installations,
		store.NewAllowList(cfg.Slack.ApprovedWorkspaces),
	)

	// Initialize pipeline and collaborators
	pipeline, err := transcode.NewPipeline(cfg.Transcode, assets, logger)
	if err != nil {
		logger.Error("failed to initialize transcode pipeline", "error", err)
		os.Exit(1)
	}

	resolver := bluesky.NewClient(cfg.Bluesky)
	builder := unfurl.NewBuilder(cfg.Server.PublicBaseURL)
	slackClient := slack.NewClient("", cfg.Slack.BotToken, cfg.Slack.AppToken)

	coord := coordinator.New(resolver, builder, pipeline, slackClient, logger)

	// Initialize handlers and router
	videoHandler := handler.NewVideoHandler(assets, cfg.Server.PublicBaseURL, logger)
	healthHandler := handler.NewHealthHandler()

	var oauthHandler *handler.OAuthHandler
	if cfg.Slack.ClientID != "" && cfg.Slack.ClientSecret != "" {
		oauthHandler = handler.NewOAuthHandler(
			slackClient,
			validatedInstallations,
			cfg.Slack.ClientID,
			cfg.Slack.ClientSecret,
			logger,
		)
	}

	router := api.NewRouter(videoHandler, healthHandler, oauthHandler)

	// Start Socket Mode listener
	listenCtx, stopListener := context.WithCancel(context.Background())
	listener := slack.NewSocketModeListener(slackClient, coord, logger)
	go func() {
		if err := listener.Start(listenCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("socket mode listener stopped", "error", err)
		}
	}()

	// Setup HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	// Stop receiving events
	stopListener()

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	// Allow in-flight transcode jobs to push their final update
	if err := coord.Wait(25 * time.Second); err != nil {
		logger.Error("coordinator shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
