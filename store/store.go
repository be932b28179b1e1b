package store

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateSession is returned by SessionStore.CreateSession when a live
// record with the same ID already exists. Because IDs derive from
// cryptographically random tokens this only fires under a concurrent
// rotation race, and callers treat it as "someone else already rotated".
var ErrDuplicateSession = errors.New("session id already exists")

// ErrUnavailable wraps infrastructure failures from a store adapter.
// Credential-shape outcomes (absent, expired, revoked) are never reported
// through it.
var ErrUnavailable = errors.New("session store unavailable")

// SessionStore is the persistence adapter consumed by the engine. All
// mutating calls are expected to be safe no-ops when the target record is
// absent or already in the requested state: Delete and Revoke in particular
// must be idempotent so that concurrent rotations and repeated logouts
// cannot fail each other.
//
// Implementations report infrastructure failures by wrapping
// [ErrUnavailable]; a missing record is (nil, nil), not an error.
type SessionStore interface {
	// CreateSession persists a new record. The record ID must be unique
	// among live records; a duplicate insert returns [ErrDuplicateSession].
	CreateSession(ctx context.Context, rec *SessionRecord) (*SessionRecord, error)

	// FindSessionWithUser resolves a record by ID together with its owning
	// user. Absent records yield (nil, nil, nil). Adapters that cannot join
	// the user may return (rec, nil, nil); the engine falls back to its
	// UserStore.
	FindSessionWithUser(ctx context.Context, id string) (*SessionRecord, *User, error)

	// ExtendSessionExpiry updates LastUsedAt and, when expiresAt is later
	// than the stored expiry, advances the expiry and stamps
	// LastExtendedAt. The expiry never moves backwards; passing the
	// current expiry is the "touch" form used on every validated request.
	// Returns nil when the record no longer exists.
	ExtendSessionExpiry(ctx context.Context, id string, expiresAt, usedAt time.Time) (*SessionRecord, error)

	// DeleteSession removes one record. Idempotent.
	DeleteSession(ctx context.Context, id string) error

	// DeleteAllSessionsForUser removes every record owned by the user in a
	// single bulk operation.
	DeleteAllSessionsForUser(ctx context.Context, userID string) error

	// RevokeSession marks one record revoked at the given instant.
	// Idempotent; an earlier RevokedAt is never overwritten.
	RevokeSession(ctx context.Context, id string, at time.Time) error

	// RevokeAllSessionsForUser revokes every non-revoked record owned by
	// the user in a single bulk operation.
	RevokeAllSessionsForUser(ctx context.Context, userID string, at time.Time) error

	// MarkTwoFactorVerified stamps TwoFactorVerifiedAt/LastVerifiedAt on
	// one record. Returns nil when the record no longer exists.
	MarkTwoFactorVerified(ctx context.Context, id string, at time.Time) (*SessionRecord, error)

	// ClearTwoFactorForUser clears TwoFactorVerifiedAt on every record
	// owned by the user and returns the number of records touched.
	ClearTwoFactorForUser(ctx context.Context, userID string) (int64, error)
}

// UserStore is the read-mostly account lookup adapter.
type UserStore interface {
	FindUserByID(ctx context.Context, id string) (*User, error)
	FindUserByEmail(ctx context.Context, email string) (*User, error)
}
