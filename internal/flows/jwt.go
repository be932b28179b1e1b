package flows

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/feldspar-io/authgate/store"
	"github.com/feldspar-io/authgate/token"
	"github.com/feldspar-io/authgate/transport"
)

// JWTHandler implements the signed access/refresh pair strategy. The
// short-lived access token is never persisted; the session record anchors
// the refresh token by its hash. Logout revokes rather than deletes, so
// presentation of a rotated-out refresh token stays observable.
type JWTHandler struct {
	deps  Deps
	codec *token.Manager
}

// NewJWTHandler builds the JWT strategy handler around a token codec.
func NewJWTHandler(deps Deps, codec *token.Manager) *JWTHandler {
	return &JWTHandler{deps: deps, codec: codec}
}

// Strategy reports [store.StrategyJWT].
func (h *JWTHandler) Strategy() store.Strategy { return store.StrategyJWT }

// Issue mints a refresh token and a bound access token, persists the
// record under the refresh token's hash, and hands both to the transport
// selector. Tokens are minted before the store write so a failure can
// never leave a record referencing a token the client was not given.
func (h *JWTHandler) Issue(ctx context.Context, user *store.User, meta store.Metadata, c transport.Carrier) (*IssueResult, error) {
	now := h.deps.Now()
	sid := uuid.NewString()

	refresh, refreshExp, err := h.codec.CreateRefresh(user.ID, sid, now)
	if err != nil {
		return nil, err
	}
	access, accessExp, err := h.codec.CreateAccess(h.accessClaims(user, sid, meta.TwoFactorVerifiedAt != nil), now)
	if err != nil {
		return nil, err
	}

	rec := newRecord(token.HashToken(refresh), user.ID, store.StrategyJWT, meta, now, refreshExp)
	created, err := h.deps.Sessions.CreateSession(ctx, rec)
	if err != nil {
		return nil, err
	}

	h.deps.Selector.WriteTokenPair(c, access, accessExp, refresh, refreshExp)

	return &IssueResult{
		Record:           created,
		SessionID:        sid,
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Resolve prefers the access token: a structurally valid, unexpired,
// correctly signed access token is authoritative and costs zero store
// lookups. Only when it is absent or invalid does the refresh fallback
// run: one lookup, possibly a rotation. Mobile carriers never reach the
// fallback; they cannot refresh silently.
func (h *JWTHandler) Resolve(ctx context.Context, c transport.Carrier) (*ResolveResult, error) {
	if access, ok := h.deps.Selector.ReadAccessToken(c); ok {
		if claims, err := h.codec.ParseAccess(access); err == nil {
			return h.resolveFromClaims(claims), nil
		}
	}

	refresh, ok := h.deps.Selector.ReadRefreshToken(c)
	if !ok {
		return unauthenticated(), nil
	}
	return h.resolveFromRefresh(ctx, refresh, c)
}

func (h *JWTHandler) resolveFromClaims(claims *token.AccessClaims) *ResolveResult {
	user := &store.User{ID: claims.UserID, Email: claims.Email}
	state := StateAuthenticated
	if claims.TwoFactorEnabled && !claims.TwoFactorVerified {
		state = StateNeedsTwoFactor
	}
	return &ResolveResult{
		State:     state,
		User:      user,
		SessionID: claims.SessionID,
	}
}

func (h *JWTHandler) resolveFromRefresh(ctx context.Context, refresh string, c transport.Carrier) (*ResolveResult, error) {
	claims, err := h.codec.ParseRefresh(refresh)
	if err != nil {
		h.deps.Selector.ClearTokenPair(c)
		return unauthenticated(), nil
	}

	now := h.deps.Now()
	rec, user, lookupErr := h.deps.findWithUser(ctx, token.HashToken(refresh))
	if lookupErr != nil {
		return nil, lookupErr
	}
	if rec == nil || rec.Strategy != store.StrategyJWT || rec.UserID != claims.UserID {
		h.deps.Selector.ClearTokenPair(c)
		return unauthenticated(), nil
	}
	if !rec.Alive(now) {
		if !rec.Revoked() {
			if err := h.deps.Sessions.RevokeSession(ctx, rec.ID, now); err != nil {
				h.deps.warnf("authgate: lazy session revocation failed: %v", err)
			}
		}
		h.deps.Selector.ClearTokenPair(c)
		return unauthenticated(), nil
	}
	if user == nil {
		h.deps.Selector.ClearTokenPair(c)
		return unauthenticated(), nil
	}

	if user.TwoFactorEnabled() && rec.TwoFactorVerifiedAt == nil {
		return &ResolveResult{
			State:     StateNeedsTwoFactor,
			User:      user,
			Session:   rec,
			SessionID: claims.SessionID,
		}, nil
	}

	if Stale(rec, now) {
		return h.rotate(ctx, rec, user, claims.SessionID, c)
	}

	// Fresh session, expired access token: mint a replacement access token
	// bound to the same session; the refresh credential stays put.
	access, accessExp, err := h.codec.CreateAccess(h.accessClaims(user, claims.SessionID, rec.TwoFactorVerifiedAt != nil), now)
	if err != nil {
		return nil, err
	}

	touched, err := h.deps.Sessions.ExtendSessionExpiry(ctx, rec.ID, rec.ExpiresAt, now)
	if err != nil {
		return nil, err
	}
	if touched != nil {
		rec = touched
	}

	h.deps.Selector.WriteAccessCookie(c, access, accessExp)

	return &ResolveResult{
		State:           StateAuthenticated,
		User:            user,
		Session:         rec,
		SessionID:       claims.SessionID,
		AccessToken:     access,
		AccessExpiresAt: accessExp,
	}, nil
}

// rotate replaces the refresh credential: mint the new pair, revoke the
// old record, persist the new one. Revoke-before-create means a failed
// create logs the user out instead of leaving two live records.
func (h *JWTHandler) rotate(ctx context.Context, old *store.SessionRecord, user *store.User, sid string, c transport.Carrier) (*ResolveResult, error) {
	now := h.deps.Now()

	refresh, refreshExp, err := h.codec.CreateRefresh(user.ID, sid, now)
	if err != nil {
		return nil, err
	}
	access, accessExp, err := h.codec.CreateAccess(h.accessClaims(user, sid, old.TwoFactorVerifiedAt != nil), now)
	if err != nil {
		return nil, err
	}

	if err := h.deps.Sessions.RevokeSession(ctx, old.ID, now); err != nil {
		return nil, err
	}

	meta := h.deps.refreshedMetadata(ctx, c, old)
	rec := newRecord(token.HashToken(refresh), user.ID, store.StrategyJWT, meta, now, refreshExp)
	created, err := h.deps.Sessions.CreateSession(ctx, rec)
	if errors.Is(err, store.ErrDuplicateSession) {
		h.deps.Selector.ClearTokenPair(c)
		return unauthenticated(), nil
	}
	if err != nil {
		return nil, err
	}

	h.deps.Selector.WriteTokenPair(c, access, accessExp, refresh, refreshExp)

	return &ResolveResult{
		State:            StateAuthenticated,
		User:             user,
		Session:          created,
		SessionID:        sid,
		Rotated:          true,
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Invalidate revokes one session record. Idempotent; re-revoking keeps the
// original RevokedAt.
func (h *JWTHandler) Invalidate(ctx context.Context, sessionID string) error {
	return h.deps.Sessions.RevokeSession(ctx, sessionID, h.deps.Now())
}

// InvalidateAll revokes every non-revoked record for the user in one bulk
// store call.
func (h *JWTHandler) InvalidateAll(ctx context.Context, userID string) error {
	return h.deps.Sessions.RevokeAllSessionsForUser(ctx, userID, h.deps.Now())
}

// ClearTransport expires both JWT cookies on browser carriers.
func (h *JWTHandler) ClearTransport(c transport.Carrier) {
	h.deps.Selector.ClearTokenPair(c)
}

// RecordID derives the record ID from a presented refresh token: the
// cookie on browser carriers, a bearer refresh token on mobile ones.
// Access tokens cannot identify a record; they are never persisted.
func (h *JWTHandler) RecordID(c transport.Carrier) (string, bool) {
	if refresh, ok := h.deps.Selector.ReadRefreshToken(c); ok {
		return token.HashToken(refresh), true
	}
	if bearer, ok := transport.Bearer(c); ok {
		if _, err := h.codec.ParseRefresh(bearer); err == nil {
			return token.HashToken(bearer), true
		}
	}
	return "", false
}

func (h *JWTHandler) accessClaims(user *store.User, sid string, twoFactorVerified bool) token.AccessClaims {
	return token.AccessClaims{
		UserID:            user.ID,
		SessionID:         sid,
		Email:             user.Email,
		TwoFactorEnabled:  user.TwoFactorEnabled(),
		TwoFactorVerified: twoFactorVerified,
	}
}

var _ Handler = (*SessionHandler)(nil)
var _ Handler = (*JWTHandler)(nil)
