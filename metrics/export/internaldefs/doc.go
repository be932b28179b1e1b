// Package internaldefs exposes stable metric name definitions shared by
// exporter implementations, so every exporter reports identical metric
// names and bucket boundaries.
//
// # What this package must NOT do
//
//   - Hold exporter state.
//   - Perform I/O.
package internaldefs
