// Package store defines the persistence model and adapter interfaces for
// the authgate engine: the [SessionRecord] credential anchor, the read-only
// [User] view, and the [SessionStore]/[UserStore] adapters a host wires in.
//
// # Architecture boundaries
//
// This package owns the data model only. It performs no I/O and imports
// nothing beyond the standard library; concrete adapters (redisstore, host
// databases) depend on it, never the reverse.
//
// # What this package must NOT do
//
//   - Hold raw bearer tokens. Record IDs are one-way hashes; the token
//     itself only ever lives in transit.
//   - Encode strategy behavior. Rotation, staleness, and transport
//     decisions live in the engine.
package store
