package relay

import (
	"context"

	"github.com/avelldigital/chat-relay/internal/flowengine"
	"github.com/avelldigital/chat-relay/internal/ledger"
	"github.com/avelldigital/chat-relay/internal/notify"
	"github.com/avelldigital/chat-relay/internal/session"
)

// fakeLedger records inserts and serves canned lookups.
type fakeLedger struct {
	inserted    []ledger.Message
	insertErr   error
	lastFrom    *ledger.Message
	lastFromErr error
	nextID      int64
}

func (f *fakeLedger) Insert(_ context.Context, _ ledger.Querier, msg ledger.Message) (int64, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.nextID++
	f.inserted = append(f.inserted, msg)
	return f.nextID, nil
}

func (f *fakeLedger) LatestMessageFrom(context.Context, string) (*ledger.Message, error) {
	return f.lastFrom, f.lastFromErr
}

type fakeSessions struct {
	state session.State
	err   error
}

func (f *fakeSessions) DeriveFor(context.Context, string) (session.State, error) {
	return f.state, f.err
}

type fakeFlow struct {
	invocations []flowengine.Invocation
	err         error
}

func (f *fakeFlow) Invoke(_ context.Context, inv flowengine.Invocation) error {
	if f.err != nil {
		return f.err
	}
	f.invocations = append(f.invocations, inv)
	return nil
}

type fakeSender struct {
	to    string
	body  string
	sid   string
	err   error
	calls int
}

func (f *fakeSender) Send(_ context.Context, to, body string) (string, error) {
	f.calls++
	f.to = to
	f.body = body
	return f.sid, f.err
}

type fakeNotifier struct {
	sent []notify.Notification
	err  error
}

func (f *fakeNotifier) Send(_ context.Context, n notify.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, n)
	return nil
}
