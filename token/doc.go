// Package token is the credential codec for authgate: opaque bearer token
// generation and one-way hashing, plus signed access/refresh token minting
// and verification on golang-jwt/v5.
//
// # Design rule
//
// The raw opaque or signed token is the only thing that ever crosses the
// network or sits in a cookie/header. Persisted session records store only
// the [HashToken] derivation, so a storage compromise yields nothing that
// can be presented as a credential, and a signature compromise is bounded
// by each token's stated expiry.
//
// # What this package must NOT do
//
//   - Touch a session store or any other I/O besides crypto/rand.
//   - Silently accept a token that fails verification; every failure mode
//     is an explicit error the caller must branch on.
package token
