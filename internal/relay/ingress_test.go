package relay

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelldigital/chat-relay/internal/ledger"
	"github.com/avelldigital/chat-relay/internal/session"
)

const ownNumber = "+15550001111"

func TestHandleInboundRecordsAndInvokesFlow(t *testing.T) {
	store := &fakeLedger{}
	flow := &fakeFlow{}
	ingress := NewIngress(store, &fakeSessions{state: session.State{Initial: true}}, flow, ownNumber, nil)

	err := ingress.HandleInbound(context.Background(), "Hello there", "whatsapp:+14155552671", ledger.SourceWhatsApp)
	require.NoError(t, err)

	require.Len(t, store.inserted, 1)
	msg := store.inserted[0]
	assert.Equal(t, "+14155552671", msg.From)
	assert.Equal(t, ownNumber, msg.To)
	assert.Equal(t, "Hello there", msg.Body)
	assert.Equal(t, ledger.SourceWhatsApp, msg.Source)
	assert.Zero(t, msg.Step)
	assert.False(t, msg.IsCommand)
	assert.False(t, msg.IsFinal)

	require.Len(t, flow.invocations, 1)
	inv := flow.invocations[0]
	assert.Equal(t, ownNumber, inv.To)
	assert.Equal(t, "+14155552671", inv.From)
	assert.Equal(t, "Hello there", inv.Parameters.Message)
	assert.True(t, inv.Parameters.Initial)
	assert.Zero(t, inv.Parameters.Step)
}

func TestHandleInboundLowercasesCommands(t *testing.T) {
	store := &fakeLedger{}
	flow := &fakeFlow{}
	sessions := &fakeSessions{state: session.State{Initial: false, Step: 2, IsCommand: true}}
	ingress := NewIngress(store, sessions, flow, ownNumber, nil)

	err := ingress.HandleInbound(context.Background(), "RESTART", "+14155552671", ledger.SourceMobile)
	require.NoError(t, err)

	require.Len(t, store.inserted, 1)
	assert.Equal(t, "restart", store.inserted[0].Body)
	require.Len(t, flow.invocations, 1)
	assert.Equal(t, "restart", flow.invocations[0].Parameters.Message)
	assert.Equal(t, 2, flow.invocations[0].Parameters.Step)
	assert.False(t, flow.invocations[0].Parameters.Initial)
}

func TestHandleInboundPreservesFreeFormCase(t *testing.T) {
	store := &fakeLedger{}
	ingress := NewIngress(store, &fakeSessions{state: session.State{Initial: false, Step: 1}}, &fakeFlow{}, ownNumber, nil)

	require.NoError(t, ingress.HandleInbound(context.Background(), "My Name Is Ada", "+14155552671", ledger.SourceWhatsApp))
	assert.Equal(t, "My Name Is Ada", store.inserted[0].Body)
}

func TestHandleInboundNoDigitsDegradesToEmptyNumber(t *testing.T) {
	store := &fakeLedger{}
	flow := &fakeFlow{}
	ingress := NewIngress(store, &fakeSessions{state: session.State{Initial: true}}, flow, ownNumber, nil)

	require.NoError(t, ingress.HandleInbound(context.Background(), "hi", "whatsapp:", ledger.SourceWhatsApp))
	assert.Equal(t, "", store.inserted[0].From)
	assert.Equal(t, "", flow.invocations[0].From)
}

func TestHandleInboundSessionErrorPropagates(t *testing.T) {
	lookupErr := errors.New("ledger down")
	store := &fakeLedger{}
	ingress := NewIngress(store, &fakeSessions{err: lookupErr}, &fakeFlow{}, ownNumber, nil)

	err := ingress.HandleInbound(context.Background(), "hi", "+14155552671", ledger.SourceWhatsApp)
	assert.ErrorIs(t, err, lookupErr)
	assert.Empty(t, store.inserted)
}

func TestHandleInboundInsertErrorPropagates(t *testing.T) {
	insertErr := errors.New("write failed")
	flow := &fakeFlow{}
	ingress := NewIngress(&fakeLedger{insertErr: insertErr}, &fakeSessions{state: session.State{Initial: true}}, flow, ownNumber, nil)

	err := ingress.HandleInbound(context.Background(), "hi", "+14155552671", ledger.SourceWhatsApp)
	assert.ErrorIs(t, err, insertErr)
	assert.Empty(t, flow.invocations, "flow must not be invoked when the write fails")
}

func TestHandleInboundFlowErrorPropagatesAfterWrite(t *testing.T) {
	flowErr := errors.New("flow unreachable")
	store := &fakeLedger{}
	ingress := NewIngress(store, &fakeSessions{state: session.State{Initial: true}}, &fakeFlow{err: flowErr}, ownNumber, nil)

	err := ingress.HandleInbound(context.Background(), "hi", "+14155552671", ledger.SourceWhatsApp)
	assert.ErrorIs(t, err, flowErr)
	assert.Len(t, store.inserted, 1, "message stays recorded even when the flow call fails")
}
