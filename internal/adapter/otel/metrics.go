package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "lawgpt-core"

// Metrics holds the query pipeline metric instruments.
type Metrics struct {
	QueriesStarted   metric.Int64Counter
	QueriesCompleted metric.Int64Counter
	QueriesFailed    metric.Int64Counter
	AgentCalls       metric.Int64Counter
	AgentFailures    metric.Int64Counter
	QueryDuration    metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.QueriesStarted, err = meter.Int64Counter("lawgpt.queries.started",
		metric.WithDescription("Number of queries started"))
	if err != nil {
		return nil, err
	}

	m.QueriesCompleted, err = meter.Int64Counter("lawgpt.queries.completed",
		metric.WithDescription("Number of queries answered"))
	if err != nil {
		return nil, err
	}

	m.QueriesFailed, err = meter.Int64Counter("lawgpt.queries.failed",
		metric.WithDescription("Number of queries ending in a terminal error"))
	if err != nil {
		return nil, err
	}

	m.AgentCalls, err = meter.Int64Counter("lawgpt.agent.calls",
		metric.WithDescription("Number of specialist agent invocations"))
	if err != nil {
		return nil, err
	}

	m.AgentFailures, err = meter.Int64Counter("lawgpt.agent.failures",
		metric.WithDescription("Number of specialist agent failures"))
	if err != nil {
		return nil, err
	}

	m.QueryDuration, err = meter.Float64Histogram("lawgpt.query.duration_seconds",
		metric.WithDescription("End-to-end query duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
