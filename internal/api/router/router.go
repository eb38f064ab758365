package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/avelldigital/chat-relay/internal/http/middleware"
	"github.com/avelldigital/chat-relay/internal/relay"
	"github.com/avelldigital/chat-relay/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	RelayHandler   *relay.Handler
	MetricsHandler http.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", cfg.RelayHandler.HealthCheck)
	r.Post("/whatsapp-webhook", cfg.RelayHandler.WhatsAppWebhook)
	r.Post("/mobile-chat", cfg.RelayHandler.MobileChat)
	r.Post("/send-whatsapp-message", cfg.RelayHandler.SendMessage)
	r.Get("/get-chats/{id}", cfg.RelayHandler.GetChats)

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}
