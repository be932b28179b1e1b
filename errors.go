package authgate

import (
	"errors"

	"github.com/feldspar-io/authgate/store"
)

var (
	// ErrStoreUnavailable wraps session-store infrastructure failures. The
	// engine never retries; retry and backoff policy belongs to the caller.
	ErrStoreUnavailable = store.ErrUnavailable
	// ErrDuplicateSession is surfaced by store adapters on a conflicting
	// record insert. The engine treats it as a lost rotation race.
	ErrDuplicateSession = store.ErrDuplicateSession

	// ErrInvalidStrategy is returned at build time for an unrecognized
	// credential strategy. Strategy misconfiguration is a programming
	// error and fails fast rather than silently defaulting.
	ErrInvalidStrategy = errors.New("invalid auth strategy")
	// ErrMissingSigningKey is returned at build time when the JWT strategy
	// is selected without signing material.
	ErrMissingSigningKey = errors.New("jwt strategy requires signing key material")
	// ErrSessionStoreRequired is returned at build time when no session
	// store adapter was wired.
	ErrSessionStoreRequired = errors.New("session store required")
	// ErrUserStoreRequired is returned at build time when no user store
	// adapter was wired.
	ErrUserStoreRequired = errors.New("user store required")
	// ErrEngineNotReady is returned when an Engine method is called on a
	// nil or unbuilt engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrNilUser is returned by IssueSession for a nil or ID-less user.
	ErrNilUser = errors.New("issuance requires a user with an id")
)
