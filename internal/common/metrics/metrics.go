package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TicketsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolver_tickets_processed_total",
			Help: "Total number of tickets processed, by final outcome",
		},
		[]string{"outcome"},
	)

	TicketsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolver_tickets_resolved_total",
			Help: "Total number of tickets resolved, by category",
		},
		[]string{"category"},
	)

	ReasoningTurns = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "resolver_reasoning_turns",
			Help:    "Conversation turns consumed per ticket",
			Buckets: []float64{1, 2, 3, 4, 5, 6},
		},
		[]string{"outcome"},
	)

	EmailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolver_emails_sent_total",
			Help: "Total outbound notification emails, by recipient kind and result",
		},
		[]string{"recipient", "result"},
	)

	DocumentsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolver_documents_generated_total",
			Help: "Total generated ticket attachments, by document type and result",
		},
		[]string{"document_type", "result"},
	)
)
