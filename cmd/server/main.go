package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/junes231/funnel-editor/internal/app"
	"github.com/junes231/funnel-editor/internal/config"
	"github.com/junes231/funnel-editor/internal/logging"
	"github.com/junes231/funnel-editor/internal/quiz"
	"github.com/junes231/funnel-editor/internal/service"
	"github.com/junes231/funnel-editor/internal/templates"
	"github.com/junes231/funnel-editor/internal/transport/rest"
	"github.com/junes231/funnel-editor/internal/transport/ws"
)

// @title Funnel Editor API
// @version 1.0
// @description Quiz funnel authoring, playback and lead capture
// @host localhost:8080
// @BasePath /v1
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	stores, err := app.Connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer stores.Close(context.Background())

	loader, err := templates.NewLoader()
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	// Initialize WebSocket hub
	wsHub := ws.NewHub(logger)
	defer wsHub.Stop()

	// Initialize services
	authSvc := service.NewAuthService(cfg.Auth)
	funnelSvc := service.NewFunnelService(stores.FunnelRepo, stores.LeadRepo, stores.FunnelCache, stores.OutcomeStats, loader, logger)
	trackingSvc := service.NewTrackingService(stores.FunnelRepo, logger)
	webhookSvc := service.NewWebhookService(cfg.Webhook.Timeout, logger)
	engine := quiz.NewEngine(quiz.ZapSink{Logger: logger})
	playbackSvc := service.NewPlaybackService(
		funnelSvc,
		stores.SessionCache,
		stores.LeadRepo,
		stores.OutcomeStats,
		engine,
		trackingSvc,
		webhookSvc,
		logger,
	)

	// Inject broadcaster (wsHub implements service.Broadcaster)
	funnelSvc.SetBroadcaster(wsHub)
	trackingSvc.SetBroadcaster(wsHub)
	playbackSvc.SetBroadcaster(wsHub)

	router := rest.NewRouter(&rest.Container{
		AuthService:     authSvc,
		FunnelService:   funnelSvc,
		PlaybackService: playbackSvc,
		TrackingService: trackingSvc,
		WSHub:           wsHub,
		CORS:            cfg.CORS,
		Logger:          logger,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("editor", cfg.Auth.Username),
			zap.Int("templates", len(loader.List())),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	}
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}
