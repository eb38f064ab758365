package relay

import (
	"context"

	"github.com/avelldigital/chat-relay/internal/ledger"
	"github.com/avelldigital/chat-relay/internal/notify"
	"github.com/avelldigital/chat-relay/internal/observability/metrics"
	"github.com/avelldigital/chat-relay/pkg/logging"
)

const (
	routeWhatsApp = "whatsapp"
	routeNotify   = "notify"
)

// routeFor decides the outbound channel from the recipient's most recent
// inbound message. Replies go out on whichever channel the recipient was last
// seen using; no prior message, or a mobile-channel one, routes to the
// notification service.
func routeFor(last *ledger.Message) string {
	if last != nil && last.Source == ledger.SourceWhatsApp {
		return routeWhatsApp
	}
	return routeNotify
}

// PlatformSender transmits a message over the WhatsApp channel and returns
// the platform delivery identifier.
type PlatformSender interface {
	Send(ctx context.Context, to, body string) (string, error)
}

// Notifier forwards a reply to the generic notification service.
type Notifier interface {
	Send(ctx context.Context, n notify.Notification) error
}

// Dispatcher routes outbound replies to the channel the recipient last used.
type Dispatcher struct {
	ledger    Ledger
	whatsapp  PlatformSender
	notifier  Notifier
	ownNumber string
	metrics   *metrics.RelayMetrics
	logger    *logging.Logger
}

func NewDispatcher(store Ledger, whatsapp PlatformSender, notifier Notifier, ownNumber string, m *metrics.RelayMetrics, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		ledger:    store,
		whatsapp:  whatsapp,
		notifier:  notifier,
		ownNumber: ownNumber,
		metrics:   m,
		logger:    logger,
	}
}

// DispatchReply sends text to the recipient on the channel they last used.
// WhatsApp sends are recorded in the ledger with the platform's delivery SID;
// notification sends are not recorded, matching the ingress on their channel.
func (d *Dispatcher) DispatchReply(ctx context.Context, rawTo, text string, step int, isFinal bool) error {
	to := NormalizeNumber(rawTo)

	last, err := d.ledger.LatestMessageFrom(ctx, to)
	if err != nil {
		return err
	}

	route := routeFor(last)
	if route == routeNotify {
		if err := d.notifier.Send(ctx, notify.Notification{Message: text, PhoneNumber: to}); err != nil {
			d.metrics.ObserveOutbound(routeNotify, "error")
			return err
		}
		d.metrics.ObserveOutbound(routeNotify, "ok")
		d.logger.Info("reply dispatched", "to", to, "route", routeNotify)
		return nil
	}

	sid, err := d.whatsapp.Send(ctx, to, text)
	if err != nil {
		d.metrics.ObserveOutbound(routeWhatsApp, "error")
		return err
	}
	if _, err := d.ledger.Insert(ctx, nil, ledger.Message{
		From:       d.ownNumber,
		To:         to,
		Body:       text,
		Source:     last.Source,
		Step:       step,
		IsFinal:    isFinal,
		MessageSID: sid,
	}); err != nil {
		d.metrics.ObserveOutbound(routeWhatsApp, "error")
		return err
	}
	d.metrics.ObserveOutbound(routeWhatsApp, "ok")
	d.logger.Info("reply dispatched", "to", to, "route", routeWhatsApp, "sid", sid)
	return nil
}
