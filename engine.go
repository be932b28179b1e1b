package authgate

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/feldspar-io/authgate/internal/flows"
	"github.com/feldspar-io/authgate/transport"
)

// Engine is the session lifecycle core. One engine serves one credential
// strategy; every method is safe for concurrent use. Engines are built
// through [Builder] and hold their configuration immutably afterwards.
type Engine struct {
	handler  flows.Handler
	sessions SessionStore
	users    UserStore
	audit    *auditDispatcher
	metrics  *Metrics
	now      func() time.Time
}

// Strategy reports the credential strategy this engine was built with.
func (e *Engine) Strategy() Strategy {
	return e.handler.Strategy()
}

// IssueSession creates a session for an already-authenticated user and
// delivers the credential through the carrier. Authentication itself
// (password check, OAuth callback, magic link) happens before this call;
// the engine only turns a verified identity into a credential.
//
// The returned result carries the persisted record and the one-time
// plaintext credential bundle. The bundle is the only copy; the store
// keeps hashes.
func (e *Engine) IssueSession(ctx context.Context, user *User, meta SessionMetadata, c transport.Carrier) (AuthResult, error) {
	if e == nil || e.handler == nil {
		return AuthResult{}, ErrEngineNotReady
	}
	if user == nil || user.ID == "" {
		return AuthResult{}, ErrNilUser
	}

	if meta.IPAddress == "" {
		meta.IPAddress = clientIPFromContext(ctx)
	}
	if meta.UserAgent == "" && c != nil {
		meta.UserAgent = c.Header("User-Agent")
	}

	issued, err := e.handler.Issue(ctx, user, meta, c)
	if err != nil {
		e.metrics.Inc(MetricIssueFailure)
		e.emit(ctx, auditEventSessionIssued, false, user.ID, "", err)
		return AuthResult{}, err
	}

	e.metrics.Inc(MetricIssueSuccess)
	e.emit(ctx, auditEventSessionIssued, true, user.ID, issued.Record.ID, nil)

	state := StateAuthenticated
	if user.TwoFactorEnabled() && issued.Record.TwoFactorVerifiedAt == nil {
		state = StateNeedsTwoFactor
	}

	return AuthResult{
		State:       state,
		User:        user,
		Session:     issued.Record,
		SessionID:   issued.SessionID,
		Credentials: bundleFromIssue(issued),
	}, nil
}

// ResolveSession validates whatever credential the carrier presents and
// reports the caller's authentication state. Missing, malformed, expired,
// and revoked credentials all resolve to StateUnauthenticated with a nil
// error; an error return always means infrastructure failure, never a
// verdict about the credential.
//
// Rotation happens in here: when a live credential has crossed the
// halfway point of its lifetime, it is replaced and the fresh bundle is
// attached to the result.
func (e *Engine) ResolveSession(ctx context.Context, c transport.Carrier) (AuthResult, error) {
	if e == nil || e.handler == nil {
		return AuthResult{}, ErrEngineNotReady
	}

	start := time.Now()
	res, err := e.handler.Resolve(ctx, c)
	e.metrics.Observe(MetricResolveLatency, time.Since(start))

	if err != nil {
		e.metrics.Inc(MetricStoreError)
		e.emit(ctx, auditEventSessionResolved, false, "", "", err)
		return AuthResult{}, err
	}

	out := AuthResult{
		State:       AuthState(res.State),
		User:        res.User,
		Session:     res.Session,
		SessionID:   res.SessionID,
		Rotated:     res.Rotated,
		Credentials: bundleFromResolve(res),
	}

	switch out.State {
	case StateAuthenticated:
		e.metrics.Inc(MetricResolveAuthenticated)
	case StateNeedsTwoFactor:
		e.metrics.Inc(MetricResolveTwoFactorPending)
	default:
		e.metrics.Inc(MetricResolveUnauthenticated)
		e.emit(ctx, auditEventSessionRejected, false, "", "", nil)
	}

	if res.Rotated {
		e.metrics.Inc(MetricRotation)
		userID := ""
		if res.User != nil {
			userID = res.User.ID
		}
		e.emit(ctx, auditEventSessionRotated, true, userID, res.SessionID, nil)
	}

	return out, nil
}

// Logout terminates the session the carrier presents and clears its
// cookies. A carrier with no recognizable credential is not an error;
// the cookies are cleared regardless so the client converges to a clean
// logged-out state.
func (e *Engine) Logout(ctx context.Context, c transport.Carrier) error {
	if e == nil || e.handler == nil {
		return ErrEngineNotReady
	}

	id, ok := e.handler.RecordID(c)
	if ok {
		if err := e.handler.Invalidate(ctx, id); err != nil {
			e.metrics.Inc(MetricStoreError)
			e.emit(ctx, auditEventLogout, false, "", id, err)
			return err
		}
	}

	e.handler.ClearTransport(c)
	e.metrics.Inc(MetricLogout)
	e.emit(ctx, auditEventLogout, true, "", id, nil)

	return nil
}

// InvalidateSession kills one session by its record ID: delete under the
// opaque strategy, revoke under JWT. Idempotent; unknown IDs succeed.
// Typical callers are session-management UIs ("sign out that device").
func (e *Engine) InvalidateSession(ctx context.Context, sessionID string) error {
	if e == nil || e.handler == nil {
		return ErrEngineNotReady
	}

	if err := e.handler.Invalidate(ctx, sessionID); err != nil {
		e.metrics.Inc(MetricStoreError)
		e.emit(ctx, auditEventSessionRevoked, false, "", sessionID, err)
		return err
	}

	e.metrics.Inc(MetricSessionRevoked)
	e.emit(ctx, auditEventSessionRevoked, true, "", sessionID, nil)

	return nil
}

// InvalidateAllSessions kills every session for a user in one bulk store
// call. This is the password-change / compromise-response hammer.
//
// Under the JWT strategy outstanding access tokens stay cryptographically
// valid until they expire; only the refresh anchors die here. Hosts
// needing an instant cutoff choose the opaque strategy or short access
// lifetimes.
func (e *Engine) InvalidateAllSessions(ctx context.Context, userID string) error {
	if e == nil || e.handler == nil {
		return ErrEngineNotReady
	}

	if err := e.handler.InvalidateAll(ctx, userID); err != nil {
		e.metrics.Inc(MetricStoreError)
		e.emit(ctx, auditEventLogoutAll, false, userID, "", err)
		return err
	}

	e.metrics.Inc(MetricLogoutAll)
	e.emit(ctx, auditEventLogoutAll, true, userID, "", nil)

	return nil
}

// MarkTwoFactorVerified stamps a session as having passed its second
// factor challenge, promoting future resolves from StateNeedsTwoFactor to
// StateAuthenticated. The host calls it after verifying the TOTP or
// recovery code itself.
func (e *Engine) MarkTwoFactorVerified(ctx context.Context, sessionID string) (*SessionRecord, error) {
	if e == nil || e.handler == nil {
		return nil, ErrEngineNotReady
	}

	rec, err := e.sessions.MarkTwoFactorVerified(ctx, sessionID, e.now())
	if err != nil {
		e.metrics.Inc(MetricStoreError)
		e.emit(ctx, auditEventTwoFactorVerified, false, "", sessionID, err)
		return nil, err
	}

	userID := ""
	if rec != nil {
		userID = rec.UserID
	}
	e.emit(ctx, auditEventTwoFactorVerified, true, userID, sessionID, nil)

	return rec, nil
}

// ResetTwoFactor clears the second-factor verification flag on every
// session of a user, demoting them to StateNeedsTwoFactor on their next
// resolve. Used when 2FA settings change. Returns the number of sessions
// touched.
func (e *Engine) ResetTwoFactor(ctx context.Context, userID string) (int64, error) {
	if e == nil || e.handler == nil {
		return 0, ErrEngineNotReady
	}

	n, err := e.sessions.ClearTwoFactorForUser(ctx, userID)
	if err != nil {
		e.metrics.Inc(MetricStoreError)
		e.emit(ctx, auditEventTwoFactorReset, false, userID, "", err)
		return 0, err
	}

	e.emit(ctx, auditEventTwoFactorReset, true, userID, "", nil)

	return n, nil
}

// MetricsSnapshot returns a point-in-time copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{}
	}
	return e.metrics.Snapshot()
}

// Metrics exposes the live counter set, for exporter bridges.
func (e *Engine) Metrics() *Metrics {
	if e == nil {
		return nil
	}
	return e.metrics
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// Close drains and stops the audit dispatcher. The engine remains usable
// for credential operations afterwards; only audit delivery stops.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

func (e *Engine) emit(ctx context.Context, eventType string, success bool, userID, sessionID string, opErr error) {
	if e.audit == nil {
		return
	}

	event := AuditEvent{
		ID:        uuid.NewString(),
		Timestamp: e.now(),
		EventType: eventType,
		UserID:    userID,
		SessionID: sessionID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
	}
	if opErr != nil {
		event.Error = opErr.Error()
	}

	e.audit.Emit(ctx, event)
}

func bundleFromIssue(r *flows.IssueResult) *CredentialBundle {
	b := &CredentialBundle{
		AccessToken:           r.AccessToken,
		AccessTokenExpiresAt:  r.AccessExpiresAt,
		RefreshToken:          r.RefreshToken,
		RefreshTokenExpiresAt: r.RefreshExpiresAt,
	}
	if r.SessionToken != "" {
		b.Token = r.SessionToken
		b.ExpiresAt = r.Record.ExpiresAt
	}
	return b
}

func bundleFromResolve(r *flows.ResolveResult) *CredentialBundle {
	if r.SessionToken == "" && r.AccessToken == "" {
		return nil
	}

	b := &CredentialBundle{
		AccessToken:           r.AccessToken,
		AccessTokenExpiresAt:  r.AccessExpiresAt,
		RefreshToken:          r.RefreshToken,
		RefreshTokenExpiresAt: r.RefreshExpiresAt,
	}
	if r.SessionToken != "" {
		b.Token = r.SessionToken
		if r.Session != nil {
			b.ExpiresAt = r.Session.ExpiresAt
		}
	}
	return b
}
