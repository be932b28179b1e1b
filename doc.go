// Package authgate is a transport-aware session and token engine. It
// owns the credential lifecycle between "the user proved who they are"
// and "the user is gone": issuance, per-request validation, silent
// rotation, and invalidation.
//
// One engine runs one of two strategies, chosen at build time:
//
//   - StrategySession: opaque random tokens whose validity lives entirely
//     server-side. Every validation is a store lookup; revocation is
//     instant.
//   - StrategyJWT: signed access/refresh pairs. Access tokens verify
//     statelessly with zero store traffic; the refresh token anchors the
//     session record and pays the store cost only on refresh.
//
// Both strategies rotate credentials at the halfway point of their
// lifetime, so an active user's credential is replaced long before it
// expires and a stolen one has a bounded useful life.
//
// Credentials reach clients through a device-aware transport selector:
// browser clients get httpOnly cookies, mobile and tablet clients get
// token bodies to store themselves and present as bearer headers.
// Classification comes from the User-Agent header alone.
//
// # What this package must NOT do
//
// The engine does not authenticate. Password verification, OAuth
// exchanges, magic links, and TOTP checks belong to the host; the engine
// turns an already-verified identity into a credential and nothing else.
// It also never stores plaintext tokens (records are keyed by hash),
// never retries a failed store (backoff policy is the caller's), and
// never reports WHY a credential was rejected; every rejection shape
// collapses to an unauthenticated result.
//
// Construction goes through [Builder]:
//
//	engine, err := authgate.New().
//		WithConfig(cfg).
//		WithSessionStore(sessions).
//		WithUserStore(users).
//		Build()
//
// Store adapters implement [SessionStore] and [UserStore]; a Redis
// adapter ships in the redisstore package, and the middleware package
// wraps ResolveSession for net/http handlers.
package authgate
