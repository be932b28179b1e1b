package flows

import (
	"context"
	"time"

	"github.com/feldspar-io/authgate/store"
	"github.com/feldspar-io/authgate/transport"
)

// State classifies the outcome of a resolve call. Credential-shape
// failures of every kind (absent, malformed, expired, revoked) collapse to
// StateUnauthenticated; callers are deliberately unable to tell them apart.
type State uint8

const (
	// StateUnauthenticated means no usable credential was presented.
	StateUnauthenticated State = iota
	// StateAuthenticated means a live credential resolved to an identity.
	StateAuthenticated
	// StateNeedsTwoFactor means the credential is live but the session has
	// not passed its second-factor challenge yet.
	StateNeedsTwoFactor
)

// Deps carries the collaborators shared by both strategy handlers.
// Everything is injected once at engine build time; handlers hold no other
// state.
type Deps struct {
	Sessions store.SessionStore
	Users    store.UserStore
	Selector *transport.Selector

	// Now is the engine clock. Injected so rotation timing is testable.
	Now func() time.Time

	// ClientIP extracts the caller IP attached to the request context.
	ClientIP func(ctx context.Context) string

	// Warn logs non-fatal internal failures (lazy-cleanup errors). Never
	// used for credential outcomes.
	Warn func(format string, args ...any)
}

// IssueResult is the credential bundle produced by Issue, together with
// the persisted record. Exactly one of SessionToken or the token pair is
// populated, depending on the handler strategy.
type IssueResult struct {
	Record *store.SessionRecord

	// SessionID is the logical session identifier: the record ID under the
	// opaque strategy, the sid claim under the JWT strategy.
	SessionID string

	SessionToken string

	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// ResolveResult is the outcome of a resolve call. Session is nil on the
// stateless JWT access-token path, where the identity derives entirely
// from verified claims. Fresh credentials minted during the call (rotation
// or access re-mint) are carried in the token fields.
type ResolveResult struct {
	State   State
	User    *store.User
	Session *store.SessionRecord

	// SessionID is the logical session identifier: the record ID under the
	// opaque strategy, the sid claim under the JWT strategy.
	SessionID string

	Rotated bool

	SessionToken     string
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Handler is one credential strategy, selected once at engine construction.
// Implementations: [SessionHandler] (opaque tokens), [JWTHandler]
// (signed access/refresh pairs).
type Handler interface {
	Strategy() store.Strategy
	Issue(ctx context.Context, user *store.User, meta store.Metadata, c transport.Carrier) (*IssueResult, error)
	Resolve(ctx context.Context, c transport.Carrier) (*ResolveResult, error)

	// Invalidate kills one session record: delete under the opaque
	// strategy, revoke under JWT. Idempotent.
	Invalidate(ctx context.Context, sessionID string) error
	// InvalidateAll kills every record for a user as one bulk store call.
	InvalidateAll(ctx context.Context, userID string) error

	// ClearTransport expires this strategy's cookies on browser carriers.
	ClearTransport(c transport.Carrier)

	// RecordID derives the store record ID from the credential the carrier
	// presents, without a store round trip. Used by logout.
	RecordID(c transport.Carrier) (string, bool)
}

func unauthenticated() *ResolveResult {
	return &ResolveResult{State: StateUnauthenticated}
}

func (d Deps) warnf(format string, args ...any) {
	if d.Warn != nil {
		d.Warn(format, args...)
	}
}

func newRecord(id, userID string, strategy store.Strategy, meta store.Metadata, now, expiresAt time.Time) *store.SessionRecord {
	rec := &store.SessionRecord{
		ID:                  id,
		UserID:              userID,
		Strategy:            strategy,
		CreatedAt:           now,
		LastUpdatedAt:       now,
		LastUsedAt:          now,
		ExpiresAt:           expiresAt,
		TwoFactorVerifiedAt: meta.TwoFactorVerifiedAt,
		IPAddress:           meta.IPAddress,
		UserAgent:           meta.UserAgent,
	}
	if meta.TwoFactorVerifiedAt != nil {
		rec.LastVerifiedAt = *meta.TwoFactorVerifiedAt
	}
	return rec
}

// refreshedMetadata builds the metadata bag captured onto a rotated record:
// current transport attributes, carried-forward second-factor state.
func (d Deps) refreshedMetadata(ctx context.Context, c transport.Carrier, old *store.SessionRecord) store.Metadata {
	meta := store.Metadata{
		UserAgent:           c.Header("User-Agent"),
		TwoFactorVerifiedAt: old.TwoFactorVerifiedAt,
	}
	if d.ClientIP != nil {
		meta.IPAddress = d.ClientIP(ctx)
	}
	if meta.IPAddress == "" {
		meta.IPAddress = old.IPAddress
	}
	if meta.UserAgent == "" {
		meta.UserAgent = old.UserAgent
	}
	return meta
}

// findWithUser resolves a record and its owner, falling back to the user
// store when the session adapter does not join users itself.
func (d Deps) findWithUser(ctx context.Context, id string) (*store.SessionRecord, *store.User, error) {
	rec, user, err := d.Sessions.FindSessionWithUser(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if rec == nil {
		return nil, nil, nil
	}
	if user == nil && d.Users != nil {
		user, err = d.Users.FindUserByID(ctx, rec.UserID)
		if err != nil {
			return nil, nil, err
		}
	}
	return rec, user, nil
}
