package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/avelldigital/chat-relay/internal/ledger"
	"github.com/avelldigital/chat-relay/internal/observability/metrics"
	"github.com/avelldigital/chat-relay/pkg/logging"
)

// InboundRouter handles one inbound message delivery.
type InboundRouter interface {
	HandleInbound(ctx context.Context, text, rawFrom, source string) error
}

// ReplyDispatcher routes one outbound reply.
type ReplyDispatcher interface {
	DispatchReply(ctx context.Context, rawTo, text string, step int, isFinal bool) error
}

// HistoryReader lists a recipient's message history.
type HistoryReader interface {
	ListMessagesTo(ctx context.Context, number string) ([]ledger.ChatEntry, error)
}

// Handler exposes the relay over HTTP. Every internal failure maps to a bare
// 500; details stay in the logs.
type Handler struct {
	ingress  InboundRouter
	dispatch ReplyDispatcher
	history  HistoryReader
	metrics  *metrics.RelayMetrics
	logger   *logging.Logger
}

func NewHandler(ingress InboundRouter, dispatch ReplyDispatcher, history HistoryReader, m *metrics.RelayMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		ingress:  ingress,
		dispatch: dispatch,
		history:  history,
		metrics:  m,
		logger:   logger,
	}
}

// WhatsAppWebhook handles POST /whatsapp-webhook deliveries from the
// messaging platform (form fields Body and From).
func (h *Handler) WhatsAppWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if err := r.ParseForm(); err != nil {
		h.fail(w, "parse whatsapp webhook", err, ledger.SourceWhatsApp)
		return
	}
	body := r.FormValue("Body")
	from := r.FormValue("From")

	if err := h.ingress.HandleInbound(r.Context(), body, from, ledger.SourceWhatsApp); err != nil {
		h.fail(w, "handle whatsapp inbound", err, ledger.SourceWhatsApp)
		return
	}
	h.metrics.ObserveInbound(ledger.SourceWhatsApp, "ok")
	h.metrics.ObserveIngressLatency(ledger.SourceWhatsApp, time.Since(start).Seconds())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Message received from whatsapp"))
}

type mobileChatRequest struct {
	Message     string `json:"message"`
	PhoneNumber string `json:"phoneNumber"`
}

// MobileChat handles POST /mobile-chat deliveries from the mobile app
// channel.
func (h *Handler) MobileChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req mobileChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, "decode mobile chat", err, ledger.SourceMobile)
		return
	}

	if err := h.ingress.HandleInbound(r.Context(), req.Message, req.PhoneNumber, ledger.SourceMobile); err != nil {
		h.fail(w, "handle mobile inbound", err, ledger.SourceMobile)
		return
	}
	h.metrics.ObserveInbound(ledger.SourceMobile, "ok")
	h.metrics.ObserveIngressLatency(ledger.SourceMobile, time.Since(start).Seconds())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Message received from mobile"))
}

type sendMessageRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
	Step    int    `json:"step"`
	IsFinal bool   `json:"isFinal"`
}

// SendMessage handles POST /send-whatsapp-message reply-send requests.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, "decode send request", err, "")
		return
	}

	if err := h.dispatch.DispatchReply(r.Context(), req.To, req.Message, req.Step, req.IsFinal); err != nil {
		h.fail(w, "dispatch reply", err, "")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Message sent"))
}

// GetChats handles GET /get-chats/{id}, returning the message history for a
// phone number, most recent first.
func (h *Handler) GetChats(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "id")
	entries, err := h.history.ListMessagesTo(r.Context(), number)
	if err != nil {
		h.fail(w, "list chats", err, "")
		return
	}
	if entries == nil {
		entries = []ledger.ChatEntry{}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(entries)
}

// HealthCheck returns a simple health check response.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error, channel string) {
	h.logger.Error("relay request failed", "op", op, "error", err)
	if channel != "" {
		h.metrics.ObserveInbound(channel, "error")
	}
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
