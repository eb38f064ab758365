// Package relay moves messages between channel endpoints, the ledger, and the
// flow engine, deciding session continuity inbound and channel routing
// outbound.
package relay

import (
	"context"
	"fmt"
	"strings"

	"github.com/avelldigital/chat-relay/internal/flowengine"
	"github.com/avelldigital/chat-relay/internal/ledger"
	"github.com/avelldigital/chat-relay/internal/session"
	"github.com/avelldigital/chat-relay/pkg/logging"
)

// Ledger is the slice of the message store the relay needs.
type Ledger interface {
	Insert(ctx context.Context, q ledger.Querier, msg ledger.Message) (int64, error)
	LatestMessageFrom(ctx context.Context, number string) (*ledger.Message, error)
}

// SessionDeriver computes the flow position for a recipient.
type SessionDeriver interface {
	DeriveFor(ctx context.Context, number string) (session.State, error)
}

// FlowInvoker hands session parameters to the external flow engine.
type FlowInvoker interface {
	Invoke(ctx context.Context, inv flowengine.Invocation) error
}

// Ingress records inbound messages and forwards their session parameters to
// the flow engine.
type Ingress struct {
	ledger    Ledger
	sessions  SessionDeriver
	flow      FlowInvoker
	ownNumber string
	logger    *logging.Logger
}

func NewIngress(store Ledger, sessions SessionDeriver, flow FlowInvoker, ownNumber string, logger *logging.Logger) *Ingress {
	if logger == nil {
		logger = logging.Default()
	}
	return &Ingress{
		ledger:    store,
		sessions:  sessions,
		flow:      flow,
		ownNumber: ownNumber,
		logger:    logger,
	}
}

// HandleInbound runs the inbound pipeline as an ordered sequence of fallible
// steps: derive session state, record the message, invoke the flow. The
// sequence is not transactional; a recorded message whose flow invocation
// fails is an accepted gap, reported to the caller rather than compensated.
func (i *Ingress) HandleInbound(ctx context.Context, text, rawFrom, source string) error {
	from := NormalizeNumber(rawFrom)

	state, err := i.sessions.DeriveFor(ctx, from)
	if err != nil {
		return fmt.Errorf("relay: derive session: %w", err)
	}

	// Commands are case-insensitive; free-form content stays verbatim.
	if state.IsCommand {
		text = strings.ToLower(text)
	}

	// Step, command, and finality describe the flow's next turn, not this
	// inbound record; they stay at their zero values here.
	if _, err := i.ledger.Insert(ctx, nil, ledger.Message{
		From:   from,
		To:     i.ownNumber,
		Body:   text,
		Source: source,
	}); err != nil {
		return err
	}

	i.logger.Info("inbound message recorded",
		"from", from,
		"source", source,
		"initial", state.Initial,
		"step", state.Step,
	)

	return i.flow.Invoke(ctx, flowengine.Invocation{
		To:   i.ownNumber,
		From: from,
		Parameters: flowengine.Parameters{
			Message: text,
			Initial: state.Initial,
			Step:    state.Step,
		},
	})
}
