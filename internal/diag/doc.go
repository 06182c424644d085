// Package diag defines the diagnostic model shared by the loader, the
// analysis pass and the CLI.
//
// Diagnostics are plain values: a Severity, a stable Code, a short message,
// a primary source.Span and optional notes. Producers emit them through a
// Reporter so that analysis code never depends on storage or rendering;
// BagReporter collects into a Bag and DedupReporter drops repeats. Rendering
// lives in internal/diagfmt.
//
// Any diagnostic with SevError stops generation for the whole build. A type
// declared by more than one module is not an error and is never reported.
package diag
