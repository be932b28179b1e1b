package authgate

import (
	"time"

	"github.com/feldspar-io/authgate/store"
)

// Strategy selects the credential mechanism. See [store.Strategy].
type Strategy = store.Strategy

const (
	// StrategySession is the opaque server-side session token strategy.
	StrategySession = store.StrategySession
	// StrategyJWT is the signed access/refresh token pair strategy.
	StrategyJWT = store.StrategyJWT
)

// User is the read-mostly account view consumed by the engine.
type User = store.User

// SessionRecord is the persisted anchor for one issued bearer credential.
type SessionRecord = store.SessionRecord

// SessionMetadata is the request-scoped bag captured at issuance and
// rotation: client address, user agent, and second-factor state.
type SessionMetadata = store.Metadata

// SessionStore is the persistence adapter the host wires into the engine.
type SessionStore = store.SessionStore

// UserStore is the read-mostly account lookup adapter.
type UserStore = store.UserStore

// AuthState tags the outcome of [Engine.ResolveSession].
type AuthState uint8

const (
	// StateUnauthenticated means no usable credential was presented. All
	// credential-shape failures (absent, malformed, expired, revoked)
	// collapse here; callers cannot and must not distinguish them.
	StateUnauthenticated AuthState = iota
	// StateAuthenticated means a live credential resolved to an identity.
	StateAuthenticated
	// StateNeedsTwoFactor means the credential is live but the session has
	// not passed its second-factor challenge.
	StateNeedsTwoFactor
)

// AuthResult is the tagged outcome of [Engine.ResolveSession].
//
// Session is nil on the stateless JWT access-token path, where the
// identity derives entirely from verified claims and no store lookup
// occurs. SessionID is always populated for authenticated results: the
// record ID under the opaque strategy, the logical sid claim under JWT.
type AuthResult struct {
	State     AuthState
	User      *User
	Session   *SessionRecord
	SessionID string

	// Rotated reports that the credential was replaced during this
	// resolve; Credentials then carries the fresh bundle.
	Rotated bool

	// Credentials holds tokens minted during this call (issuance result,
	// rotation, or a JWT access re-mint). Nil when nothing new was minted.
	Credentials *CredentialBundle
}

// Authenticated reports whether the result carries a usable identity.
func (r AuthResult) Authenticated() bool {
	return r.State == StateAuthenticated
}

// CredentialBundle is the transient token material handed to the client.
// It is never persisted as a whole; only hashes live on in the session
// record. For the opaque strategy Token/ExpiresAt are set; for JWT the
// access/refresh fields are.
type CredentialBundle struct {
	Token     string
	ExpiresAt time.Time

	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}
