// Package otel exports authgate engine metrics through OpenTelemetry
// observable instruments. Collection is pull-based: a registered callback
// reads a metrics snapshot, so nothing is added to the engine's request
// path.
//
// # What this package must NOT do
//
//   - Push measurements on the engine hot path.
//   - Define metric names locally (they live in internaldefs).
package otel
