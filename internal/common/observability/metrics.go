package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

type Observability struct {
	meterProvider  *metric.MeterProvider
	meter          otelmetric.Meter
	ticketCounter  otelmetric.Int64Counter
	ticketDuration otelmetric.Float64Histogram
}

func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	ticketCounter, _ := meter.Int64Counter(
		"tickets.processed",
		otelmetric.WithDescription("Number of tickets processed"),
	)

	ticketDuration, _ := meter.Float64Histogram(
		"tickets.duration",
		otelmetric.WithDescription("Per-ticket resolution duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider:  provider,
		meter:          meter,
		ticketCounter:  ticketCounter,
		ticketDuration: ticketDuration,
	}
}

func (o *Observability) RecordTicketProcessed(ctx context.Context, outcome string) {
	if o.ticketCounter != nil {
		o.ticketCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("outcome", outcome),
		))
	}
}

func (o *Observability) RecordTicketDuration(ctx context.Context, duration time.Duration, outcome string) {
	if o.ticketDuration != nil {
		o.ticketDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("outcome", outcome),
		))
	}
}

func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = o.meterProvider.Shutdown(ctx)
	}
}
