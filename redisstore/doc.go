// Package redisstore is the Redis-backed session store adapter. Records
// are stored as compact binary blobs keyed by token hash with a TTL
// matching their absolute expiry; a per-user set indexes record IDs for
// the bulk operations.
//
// Two properties matter to callers:
//
//   - Revoked records are kept, not deleted, until their natural expiry.
//     A rotated-out or logged-out credential presented again still hits a
//     record and is observably dead rather than silently absent.
//   - Creation and deletion run as Lua scripts, so a record and its
//     user-index entry never diverge. All single-record mutations run
//     under WATCH transactions, so concurrent touches and revocations
//     never lose updates; bulk operations are read-then-write and carry
//     a narrow documented race.
//
// # What this package must NOT do
//
// The adapter stores what it is given and never interprets it: no
// staleness math, no strategy checks, no credential verdicts. Those live
// in the engine. It also never stores raw tokens; record IDs arrive
// pre-hashed.
package redisstore
