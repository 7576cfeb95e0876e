package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/budget-sync/internal/api/handlers"
	"github.com/dvloznov/budget-sync/internal/api/middleware"
	"github.com/dvloznov/budget-sync/internal/config"
	"github.com/dvloznov/budget-sync/internal/extract"
	"github.com/dvloznov/budget-sync/internal/ledger"
	"github.com/dvloznov/budget-sync/internal/logger"
	"github.com/dvloznov/budget-sync/internal/notify"
	"github.com/dvloznov/budget-sync/internal/scheduler"
	"github.com/dvloznov/budget-sync/internal/store"
	"github.com/dvloznov/budget-sync/internal/syncer"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, cancel := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancel()

	// Each collaborator gets its own client so the hard per-call timeout is
	// enforced everywhere; a hung collaborator cannot stall future cycles.
	outboundClient := &http.Client{Timeout: cfg.RequestTimeout}
	notifyClient := &http.Client{Timeout: cfg.NotifyTimeout}

	messageStore := store.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey, outboundClient)
	ledgerClient := ledger.NewActualClient(cfg.ActualBridgeURL, outboundClient)
	notifier := notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID, notifyClient)

	extractor, err := extract.NewGeminiExtractor(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, outboundClient)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create extractor")
	}

	svc := syncer.New(messageStore, ledgerClient, extractor, notifier)

	sched := scheduler.New(svc.RunCycle, cfg.SyncInterval)
	sched.Start(ctx)

	// HTTP surface: liveness probe and on-demand trigger.
	syncHandler := handlers.NewSyncHandler(sched, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			handlers.Health(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})
	mux.HandleFunc("/sync", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			syncHandler.TriggerSync(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(mux),
		),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Dur("interval", cfg.SyncInterval).Msg("Starting sync service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Let an in-flight cycle finish before exiting.
	if err := sched.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping scheduler")
	}

	cancel()
	log.Info().Msg("Sync service exited")
}
