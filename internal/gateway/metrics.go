package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tagscout",
		Subsystem: "gateway",
		Name:      "connections",
		Help:      "Open WebSocket connections",
	})

	// gatewayMessagesTotal counts inbound chat messages.
	// Labels: outcome (answered, silent, failed)
	gatewayMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tagscout",
		Subsystem: "gateway",
		Name:      "messages_total",
		Help:      "Chat messages received over WebSocket by outcome",
	}, []string{"outcome"})
)
