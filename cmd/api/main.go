package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/avelldigital/chat-relay/internal/api/router"
	appconfig "github.com/avelldigital/chat-relay/internal/config"
	"github.com/avelldigital/chat-relay/internal/flowengine"
	"github.com/avelldigital/chat-relay/internal/ledger"
	"github.com/avelldigital/chat-relay/internal/notify"
	"github.com/avelldigital/chat-relay/internal/observability/metrics"
	"github.com/avelldigital/chat-relay/internal/relay"
	"github.com/avelldigital/chat-relay/internal/session"
	"github.com/avelldigital/chat-relay/internal/whatsapp"
	"github.com/avelldigital/chat-relay/pkg/logging"
)

func main() {
	// Load .env when present; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting chat-relay API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := ledger.NewStore(pool)
	sessions := session.NewEngine(store)
	relayMetrics := metrics.NewRelayMetrics(nil)

	flowClient := flowengine.NewClient(cfg.TwilioFlowURL, cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.HTTPTimeout, logger)
	sender := whatsapp.NewSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.WhatsAppNumber, cfg.HTTPTimeout, logger)
	notifier := notify.NewClient(cfg.NotifyBaseURL, cfg.HTTPTimeout, logger)

	ingress := relay.NewIngress(store, sessions, flowClient, cfg.WhatsAppNumber, logger)
	dispatcher := relay.NewDispatcher(store, sender, notifier, cfg.WhatsAppNumber, relayMetrics, logger)
	relayHandler := relay.NewHandler(ingress, dispatcher, store, relayMetrics, logger)

	r := router.New(&router.Config{
		Logger:         logger,
		RelayHandler:   relayHandler,
		MetricsHandler: promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
