// Package whatsapp sends messages through the Twilio WhatsApp channel.
package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/avelldigital/chat-relay/pkg/logging"
)

var tracer = otel.Tracer("chatrelay.internal.whatsapp")

// Address prefixes a canonical phone number with the channel scheme Twilio
// expects for WhatsApp traffic.
func Address(number string) string {
	return "whatsapp:" + strings.TrimSpace(number)
}

// Sender posts WhatsApp messages using Twilio's REST API.
type Sender struct {
	accountSID string
	authToken  string
	from       string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewSender builds a sender with sane defaults. from is the service's own
// WhatsApp number in canonical form.
func NewSender(accountSID, authToken, from string, timeout time.Duration, logger *logging.Logger) *Sender {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Sender{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Send dispatches a single message and returns the delivery SID assigned by
// the platform. A failed send surfaces immediately so the dispatch caller can
// report it; delivery retries belong to the platform, not this layer.
func (s *Sender) Send(ctx context.Context, to, body string) (string, error) {
	if s.accountSID == "" || s.authToken == "" {
		return "", errors.New("whatsapp: twilio credentials missing")
	}
	if strings.TrimSpace(to) == "" {
		return "", errors.New("whatsapp: to required")
	}
	if strings.TrimSpace(body) == "" {
		return "", errors.New("whatsapp: body required")
	}

	ctx, span := tracer.Start(ctx, "whatsapp.send")
	defer span.End()
	span.SetAttributes(attribute.String("chatrelay.to", to))

	payload := url.Values{}
	payload.Set("To", Address(to))
	payload.Set("From", Address(s.from))
	payload.Set("Body", body)

	endpoint := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", s.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(payload.Encode()))
	if err != nil {
		return "", fmt.Errorf("whatsapp: build request: %w", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("whatsapp: send: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("whatsapp: send failed: %s", formatAPIError(resp.StatusCode, respBody))
		span.RecordError(err)
		return "", err
	}

	var parsed struct {
		SID string `json:"sid"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("whatsapp: decode response: %w", err)
	}
	s.logger.Info("whatsapp message sent", "to", to, "sid", parsed.SID)
	return parsed.SID, nil
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func formatAPIError(status int, body []byte) string {
	body = []byte(strings.TrimSpace(string(body)))
	if len(body) == 0 {
		return fmt.Sprintf("status %d", status)
	}
	var parsed apiError
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		if parsed.Code != 0 {
			return fmt.Sprintf("status %d code %d: %s", status, parsed.Code, parsed.Message)
		}
		return fmt.Sprintf("status %d: %s", status, parsed.Message)
	}
	return fmt.Sprintf("status %d: %s", status, string(body))
}
