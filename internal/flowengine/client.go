// Package flowengine invokes the external conversational-flow engine that
// produces reply content from session parameters.
package flowengine

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

var tracer = otel.Tracer("chatrelay.internal.flowengine")

// Parameters is the session payload handed to the flow engine.
type Parameters struct {
	Message string `json:"message"`
	Initial bool   `json:"initial"`
	Step    int    `json:"step"`
}

// Invocation triggers one flow execution for a recipient.
type Invocation struct {
	To         string
	From       string
	Parameters Parameters
}

// Client posts flow executions to a configured endpoint using a basic-auth
// credential pair.
type Client struct {
	endpoint   string
	accountSID string
	authToken  string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewClient builds a client with sane defaults.
func NewClient(endpoint, accountSID, authToken string, timeout time.Duration, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint:   strings.TrimSpace(endpoint),
		accountSID: accountSID,
		authToken:  authToken,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Invoke performs a single form-encoded POST. Failures surface to the caller;
// retrying is the flow engine's client contract, not ours.
func (c *Client) Invoke(ctx context.Context, inv Invocation) error {
	if c.endpoint == "" {
		return errors.New("flowengine: endpoint not configured")
	}
	if c.accountSID == "" || c.authToken == "" {
		return errors.New("flowengine: credentials missing")
	}

	ctx, span := tracer.Start(ctx, "flowengine.invoke")
	defer span.End()
	span.SetAttributes(
		attribute.String("chatrelay.from", inv.From),
		attribute.Int("chatrelay.step", inv.Parameters.Step),
		attribute.Bool("chatrelay.initial", inv.Parameters.Initial),
	)

	params, err := json.Marshal(inv.Parameters)
	if err != nil {
		return fmt.Errorf("flowengine: marshal parameters: %w", err)
	}
	form := url.Values{}
	form.Set("To", inv.To)
	form.Set("From", inv.From)
	form.Set("Parameters", string(params))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("flowengine: build request: %w", err)
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("flowengine: invoke flow: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("flowengine: invoke flow: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		span.RecordError(err)
		return err
	}

	c.logger.Info("flow invoked", "from", inv.From, "step", inv.Parameters.Step, "initial", inv.Parameters.Initial)
	return nil
}
