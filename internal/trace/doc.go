// Package trace records span events for the generation pipeline.
//
// A Tracer is attached to the command context and every stage opens a span
// under the one found in the context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.Start(ctx, trace.ScopeStage, "analyze")
//	defer span.End("")
//
// Levels decide which scopes are written: phase keeps command and stage
// spans, detail adds per-module spans and debug writes everything.
// StreamTracer writes events as they happen in text or NDJSON form;
// RingTracer keeps the most recent events in memory and writes them only
// when asked, which the CLI does for failed commands.
package trace
