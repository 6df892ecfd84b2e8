// Package telemetry wires the engine's OpenTelemetry tracer and exposes
// StartXxx helpers, one per pipeline stage, matching the span-per-stage
// shape used throughout the engine's build and query paths.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/genexlabs/genex"

func tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartBuild opens the root span for a full Index.Build call.
func StartBuild(ctx context.Context, distanceName string, threshold float64) (context.Context, trace.Span) {
	return tracer().Start(ctx, "genex.build",
		trace.WithAttributes(
			attribute.String("genex.distance", distanceName),
			attribute.Float64("genex.threshold", threshold),
		),
	)
}

// StartLengthSpaceBuild opens a child span for one length's Build call.
func StartLengthSpaceBuild(ctx context.Context, length int) (context.Context, trace.Span) {
	return tracer().Start(ctx, "genex.build.length_space",
		trace.WithAttributes(attribute.Int("genex.length", length)),
	)
}

// StartQuery opens the root span for a BestMatch call.
func StartQuery(ctx context.Context, queryLength int) (context.Context, trace.Span) {
	return tracer().Start(ctx, "genex.query.best_match",
		trace.WithAttributes(attribute.Int("genex.query_length", queryLength)),
	)
}

// StartKBestQuery opens the root span for a KBest call.
func StartKBestQuery(ctx context.Context, queryLength, k int) (context.Context, trace.Span) {
	return tracer().Start(ctx, "genex.query.k_best",
		trace.WithAttributes(
			attribute.Int("genex.query_length", queryLength),
			attribute.Int("genex.k", k),
		),
	)
}
