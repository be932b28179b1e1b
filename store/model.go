package store

import "time"

// Strategy selects the credential mechanism a session record was created
// under. The value is fixed at creation; records issued under one strategy
// are never honored by the other strategy's validation path.
type Strategy uint8

const (
	// StrategySession is the opaque server-side session token strategy.
	// Validity is established solely by store lookup of the token hash.
	StrategySession Strategy = iota + 1
	// StrategyJWT is the signed access/refresh token pair strategy.
	StrategyJWT
)

// String returns the wire label for the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategySession:
		return "session"
	case StrategyJWT:
		return "jwt"
	default:
		return "unknown"
	}
}

// Valid reports whether the strategy is one of the recognized variants.
func (s Strategy) Valid() bool {
	return s == StrategySession || s == StrategyJWT
}

// User is the read-mostly account record consumed by the engine. It is
// owned by the identity subsystem; the engine never writes it.
type User struct {
	ID                    string
	Email                 string
	PasswordHash          string
	EmailVerifiedAt       *time.Time
	TwoFactorEnabledAt    *time.Time
	TwoFactorRegisteredAt *time.Time
}

// TwoFactorEnabled reports whether the account has a second factor enabled.
func (u *User) TwoFactorEnabled() bool {
	return u != nil && u.TwoFactorEnabledAt != nil
}

// SessionRecord is the persisted anchor for one issued bearer credential.
// ID is the one-way hash of the bearer token (opaque token under
// StrategySession, refresh token under StrategyJWT), never the raw token.
type SessionRecord struct {
	ID       string
	UserID   string
	Strategy Strategy

	CreatedAt      time.Time
	LastUpdatedAt  time.Time
	LastUsedAt     time.Time
	LastExtendedAt time.Time
	LastVerifiedAt time.Time
	ExpiresAt      time.Time

	TwoFactorVerifiedAt *time.Time
	RevokedAt           *time.Time

	IPAddress string
	UserAgent string
}

// Revoked reports whether the record has been revoked. RevokedAt is
// monotonic: once set it is never cleared.
func (r *SessionRecord) Revoked() bool {
	return r != nil && r.RevokedAt != nil
}

// Expired reports whether the record's absolute expiry has passed at now.
func (r *SessionRecord) Expired(now time.Time) bool {
	return r == nil || !now.Before(r.ExpiresAt)
}

// Alive reports whether the record is neither revoked nor expired at now.
func (r *SessionRecord) Alive(now time.Time) bool {
	return r != nil && !r.Revoked() && !r.Expired(now)
}

// Clone returns a deep copy of the record.
func (r *SessionRecord) Clone() *SessionRecord {
	if r == nil {
		return nil
	}
	out := *r
	out.TwoFactorVerifiedAt = cloneTime(r.TwoFactorVerifiedAt)
	out.RevokedAt = cloneTime(r.RevokedAt)
	return &out
}

// Metadata is the request-scoped bag captured onto a record at issuance
// and rotation. Anomaly comparison against previous values is a documented
// extension point, not performed here.
type Metadata struct {
	IPAddress           string
	UserAgent           string
	TwoFactorVerifiedAt *time.Time
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
