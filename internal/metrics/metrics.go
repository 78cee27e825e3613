package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "teamchat"

var (
	Events = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "socket_events_total",
			Help:      "Inbound socket events by type and outcome.",
		},
		[]string{"type", "outcome"},
	)

	Connections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "socket_connections",
			Help:      "Open websocket connections.",
		},
	)

	AIReplies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_replies_total",
			Help:      "Assistant replies by the backend that produced them.",
		},
		[]string{"source"},
	)

	Uploads = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Files stored through the upload endpoint.",
		},
	)

	UploadBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_bytes_total",
			Help:      "Bytes stored through the upload endpoint.",
		},
	)
)

const (
	OutcomeOK          = "ok"
	OutcomeError       = "error"
	OutcomeRateLimited = "rate_limited"

	SourceRAG      = "rag"
	SourceOpenAI   = "openai"
	SourceFallback = "fallback"
)

func init() {
	prometheus.MustRegister(Events, Connections, AIReplies, Uploads, UploadBytes)
}
