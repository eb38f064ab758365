// Package session decides whether an inbound message starts a new
// conversational flow or continues one already in progress.
package session

import (
	"context"
	"time"

	"github.com/avelldigital/chat-relay/internal/ledger"
)

// Window is the inactivity threshold after which a stepped flow is no longer
// considered live.
const Window = 30 * time.Minute

// State describes where a recipient stands in the stepped flow.
type State struct {
	Initial   bool
	Step      int
	IsCommand bool
}

// Derive computes the session state from the recipient's most recent
// stepped-flow message. A nil message means the recipient has never been in a
// flow. A flow continues only when the prior turn was not final and arrived
// within the window; a final turn forces a fresh start no matter how recent.
func Derive(last *ledger.Message, now time.Time) State {
	if last == nil {
		return State{Initial: true}
	}
	initial := true
	if !last.IsFinal && now.Sub(last.CreatedAt) <= Window {
		initial = false
	}
	return State{
		Initial:   initial,
		Step:      last.Step,
		IsCommand: last.IsCommand,
	}
}

// FlowReader looks up the latest stepped-flow message for a recipient.
type FlowReader interface {
	LatestFlowMessageTo(ctx context.Context, number string) (*ledger.Message, error)
}

// Engine derives session state from the ledger.
type Engine struct {
	ledger FlowReader
	now    func() time.Time
}

func NewEngine(reader FlowReader) *Engine {
	return &Engine{
		ledger: reader,
		now:    time.Now,
	}
}

// DeriveFor returns the session state for the recipient. Ledger errors
// propagate untouched; the caller decides what a failed lookup means.
func (e *Engine) DeriveFor(ctx context.Context, number string) (State, error) {
	last, err := e.ledger.LatestFlowMessageTo(ctx, number)
	if err != nil {
		return State{}, err
	}
	return Derive(last, e.now()), nil
}
