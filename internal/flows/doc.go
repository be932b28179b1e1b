// Package flows orchestrates the session lifecycle for both credential
// strategies: issuance, the resolve hot path, halfway-point rotation, and
// invalidation. The root authgate package maps flow results onto its
// public API, metrics, and audit events; flows itself never imports the
// root package.
//
// # Error discipline
//
// A flow returns an error only for infrastructure failures (store
// unreachable, crypto failure). Absent, malformed, expired, and revoked
// credentials all resolve to StateUnauthenticated without an error, so a
// caller cannot accidentally leak which sub-case occurred.
package flows
