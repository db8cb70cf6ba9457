package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	outboundSendsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "messaging",
			Name:      "outbound_sends_total",
			Help:      "Total outbound SMS send attempts.",
		},
		[]string{"provider", "outcome"}, // outcome: "sent", "failed", "error"
	)

	outboundSendDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "messaging",
			Name:      "outbound_send_duration_seconds",
			Help:      "Duration of carrier send calls.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	inboundRecordedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "messaging",
			Name:      "inbound_recorded_total",
			Help:      "Total inbound SMS recording attempts.",
		},
		[]string{"provider", "outcome"}, // outcome: "stored", "unknown_sender", "error"
	)
)
