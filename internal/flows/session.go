package flows

import (
	"context"
	"errors"
	"time"

	"github.com/feldspar-io/authgate/store"
	"github.com/feldspar-io/authgate/token"
	"github.com/feldspar-io/authgate/transport"
)

// SessionHandler implements the opaque server-side session token strategy.
// Validity is established solely by store lookup of the token hash; logout
// deletes records outright.
type SessionHandler struct {
	deps Deps
	ttl  time.Duration
}

// NewSessionHandler builds the opaque-token strategy handler.
func NewSessionHandler(deps Deps, ttl time.Duration) *SessionHandler {
	return &SessionHandler{deps: deps, ttl: ttl}
}

// Strategy reports [store.StrategySession].
func (h *SessionHandler) Strategy() store.Strategy { return store.StrategySession }

// Issue creates a new session for an already-authenticated user: generate
// the opaque token, persist the record under its hash, and hand the token
// to the transport selector. A persistence failure propagates and leaves
// no credential with the client.
func (h *SessionHandler) Issue(ctx context.Context, user *store.User, meta store.Metadata, c transport.Carrier) (*IssueResult, error) {
	now := h.deps.Now()

	tok, err := token.NewOpaqueToken()
	if err != nil {
		return nil, err
	}

	rec := newRecord(token.HashToken(tok), user.ID, store.StrategySession, meta, now, now.Add(h.ttl))
	created, err := h.deps.Sessions.CreateSession(ctx, rec)
	if err != nil {
		return nil, err
	}

	h.deps.Selector.WriteSessionCookie(c, tok, created.ExpiresAt)

	return &IssueResult{Record: created, SessionID: created.ID, SessionToken: tok}, nil
}

// Resolve is the read path: header-first token extraction, hash lookup,
// lazy cleanup of dead records, halfway-point rotation. Only store
// failures return an error; every credential-shape problem resolves to
// StateUnauthenticated.
func (h *SessionHandler) Resolve(ctx context.Context, c transport.Carrier) (*ResolveResult, error) {
	tok, ok := h.deps.Selector.ReadSessionToken(c)
	if !ok {
		return unauthenticated(), nil
	}

	now := h.deps.Now()
	rec, user, err := h.deps.findWithUser(ctx, token.HashToken(tok))
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.Strategy != store.StrategySession {
		h.deps.Selector.ClearSessionCookie(c)
		return unauthenticated(), nil
	}
	if !rec.Alive(now) {
		// Found-but-dead: eager delete, the hygiene sweep need not wait.
		if err := h.deps.Sessions.DeleteSession(ctx, rec.ID); err != nil {
			h.deps.warnf("authgate: lazy session cleanup failed: %v", err)
		}
		h.deps.Selector.ClearSessionCookie(c)
		return unauthenticated(), nil
	}
	if user == nil {
		h.deps.Selector.ClearSessionCookie(c)
		return unauthenticated(), nil
	}

	if user.TwoFactorEnabled() && rec.TwoFactorVerifiedAt == nil {
		return &ResolveResult{
			State:     StateNeedsTwoFactor,
			User:      user,
			Session:   rec,
			SessionID: rec.ID,
		}, nil
	}

	if Stale(rec, now) {
		return h.rotate(ctx, rec, user, c)
	}

	touched, err := h.deps.Sessions.ExtendSessionExpiry(ctx, rec.ID, rec.ExpiresAt, now)
	if err != nil {
		return nil, err
	}
	if touched != nil {
		rec = touched
	}

	return &ResolveResult{
		State:     StateAuthenticated,
		User:      user,
		Session:   rec,
		SessionID: rec.ID,
	}, nil
}

// rotate performs the revoke-old/create-new swap. Revocation comes first:
// if the create step fails the user is logged out, never left with two
// live records for one logical credential.
func (h *SessionHandler) rotate(ctx context.Context, old *store.SessionRecord, user *store.User, c transport.Carrier) (*ResolveResult, error) {
	now := h.deps.Now()

	tok, err := token.NewOpaqueToken()
	if err != nil {
		return nil, err
	}

	if err := h.deps.Sessions.RevokeSession(ctx, old.ID, now); err != nil {
		return nil, err
	}

	meta := h.deps.refreshedMetadata(ctx, c, old)
	rec := newRecord(token.HashToken(tok), user.ID, store.StrategySession, meta, now, now.Add(h.ttl))
	created, err := h.deps.Sessions.CreateSession(ctx, rec)
	if errors.Is(err, store.ErrDuplicateSession) {
		// A concurrent request rotated first; its successor owns the
		// session. This request fails closed.
		h.deps.Selector.ClearSessionCookie(c)
		return unauthenticated(), nil
	}
	if err != nil {
		return nil, err
	}

	h.deps.Selector.WriteSessionCookie(c, tok, created.ExpiresAt)

	return &ResolveResult{
		State:        StateAuthenticated,
		User:         user,
		Session:      created,
		SessionID:    created.ID,
		Rotated:      true,
		SessionToken: tok,
	}, nil
}

// Invalidate deletes one session record outright. Idempotent.
func (h *SessionHandler) Invalidate(ctx context.Context, sessionID string) error {
	return h.deps.Sessions.DeleteSession(ctx, sessionID)
}

// InvalidateAll deletes every record for the user in one bulk store call.
func (h *SessionHandler) InvalidateAll(ctx context.Context, userID string) error {
	return h.deps.Sessions.DeleteAllSessionsForUser(ctx, userID)
}

// ClearTransport expires the session cookie on browser carriers.
func (h *SessionHandler) ClearTransport(c transport.Carrier) {
	h.deps.Selector.ClearSessionCookie(c)
}

// RecordID hashes the presented session token into its record ID.
func (h *SessionHandler) RecordID(c transport.Carrier) (string, bool) {
	tok, ok := h.deps.Selector.ReadSessionToken(c)
	if !ok {
		return "", false
	}
	return token.HashToken(tok), true
}
