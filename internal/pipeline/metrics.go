package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// messagesTotal counts processed messages.
	// Labels: outcome (answered, duplicate, ignored, canceled)
	messagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tagscout",
		Subsystem: "pipeline",
		Name:      "messages_total",
		Help:      "Chat messages processed by outcome",
	}, []string{"outcome"})

	// tagsTotal counts tags by medium and outcome.
	// Labels: medium, outcome (found, not_found, duplicate, dropped)
	tagsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tagscout",
		Subsystem: "pipeline",
		Name:      "tags_total",
		Help:      "Extracted tags by medium and outcome",
	}, []string{"medium", "outcome"})

	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tagscout",
		Subsystem: "pipeline",
		Name:      "commands_total",
		Help:      "Inline commands answered",
	}, []string{"command"})

	recordFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tagscout",
		Subsystem: "pipeline",
		Name:      "record_failures_total",
		Help:      "Statistics events that could not be stored",
	})
)
