// Package middleware exposes net/http adapters over the authgate engine.
//
// # Guards
//
//   - [Resolve] resolves the session and injects the result; never rejects.
//   - [RequireAuth] admits only fully authenticated sessions.
//   - [RequireIdentity] also admits sessions awaiting their second factor.
//
// Each guard wraps the request/response pair in an HTTP carrier, calls
// ResolveSession, and injects the result into the request context for
// [AuthResultFromContext].
//
// # What this package must NOT do
//
// This package translates HTTP semantics into engine calls and nothing
// more. It never parses tokens, never touches the store, and makes no
// decision beyond admit/reject on the engine's resolved state.
package middleware
