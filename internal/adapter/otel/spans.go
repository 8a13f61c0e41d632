package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "lawgpt-core"

// StartQuerySpan starts a span covering one full query lifecycle.
func StartQuerySpan(ctx context.Context, conversationID string, hasImage bool) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "query",
		trace.WithAttributes(
			attribute.String("conversation.id", conversationID),
			attribute.Bool("query.has_image", hasImage),
		),
	)
}

// StartClassifySpan starts a span for the classification step.
func StartClassifySpan(ctx context.Context) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "classify")
}

// StartAgentSpan starts a span for one specialist agent invocation.
func StartAgentSpan(ctx context.Context, agent string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "agent",
		trace.WithAttributes(
			attribute.String("agent.kind", agent),
		),
	)
}

// StartSynthesizeSpan starts a span for the answer synthesis step.
func StartSynthesizeSpan(ctx context.Context, agentCount int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "synthesize",
		trace.WithAttributes(
			attribute.Int("agents.count", agentCount),
		),
	)
}
