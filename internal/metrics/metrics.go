package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gomercant_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	ConversationsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gomercant_dm_conversations_created_total",
			Help: "Total DM conversations created",
		},
	)

	MessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gomercant_dm_messages_sent_total",
			Help: "Total DM messages sent",
		},
	)

	MessagesMarkedRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gomercant_dm_messages_marked_read_total",
			Help: "Total DM messages flipped to read",
		},
	)

	MessagePolls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gomercant_dm_message_polls_total",
			Help: "Total message list requests, by whether new messages were returned",
		},
		[]string{"fresh"},
	)
)
