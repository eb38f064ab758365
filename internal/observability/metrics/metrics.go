package metrics

import "github.com/prometheus/client_golang/prometheus"

// RelayMetrics exposes counters/histograms for the relay pipeline.
type RelayMetrics struct {
	inboundTotal   *prometheus.CounterVec
	outboundTotal  *prometheus.CounterVec
	ingressLatency *prometheus.HistogramVec
}

func NewRelayMetrics(reg prometheus.Registerer) *RelayMetrics {
	m := &RelayMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatrelay",
			Subsystem: "relay",
			Name:      "inbound_total",
			Help:      "Total inbound messages by channel",
		}, []string{"channel", "status"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatrelay",
			Subsystem: "relay",
			Name:      "outbound_total",
			Help:      "Total outbound dispatches by route",
		}, []string{"route", "status"}),
		ingressLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "chatrelay",
			Subsystem: "relay",
			Name:      "ingress_latency_seconds",
			Help:      "Latency of inbound message processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"channel"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.outboundTotal, m.ingressLatency)
	return m
}

func (m *RelayMetrics) ObserveInbound(channel, status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(channel, status).Inc()
}

func (m *RelayMetrics) ObserveOutbound(route, status string) {
	if m == nil {
		return
	}
	m.outboundTotal.WithLabelValues(route, status).Inc()
}

func (m *RelayMetrics) ObserveIngressLatency(channel string, seconds float64) {
	if m == nil {
		return
	}
	m.ingressLatency.WithLabelValues(channel).Observe(seconds)
}
