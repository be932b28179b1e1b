package authgate

import (
	"log"
	"time"

	"github.com/feldspar-io/authgate/internal/flows"
	"github.com/feldspar-io/authgate/token"
	"github.com/feldspar-io/authgate/transport"
)

// Builder assembles an [Engine]. All dependencies are injected here and
// bound once; there is no package-level registry to mutate, so multiple
// isolated engines can coexist in one process.
type Builder struct {
	config    Config
	sessions  SessionStore
	users     UserStore
	auditSink AuditSink
	clock     func() time.Time

	built bool
}

// New returns a Builder seeded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithSessionStore wires the session persistence adapter. Required.
func (b *Builder) WithSessionStore(s SessionStore) *Builder {
	b.sessions = s
	return b
}

// WithUserStore wires the account lookup adapter. Required.
func (b *Builder) WithUserStore(u UserStore) *Builder {
	b.users = u
	return b
}

// WithAuditSink wires the audit event sink. Only consulted when
// Config.Audit.Enabled is set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock overrides the engine clock. Tests use it to drive rotation
// timing deterministically.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// WithMetricsEnabled toggles the in-process metrics counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and constructs the engine. Strategy
// dispatch happens here, once: an unrecognized strategy or missing JWT
// signing material is a build error, never a request-time fallback.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errInvalid("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.sessions == nil {
		return nil, ErrSessionStoreRequired
	}
	if b.users == nil {
		return nil, ErrUserStoreRequired
	}

	now := b.clock
	if now == nil {
		now = time.Now
	}

	selector := transport.NewSelector(cfg.Cookies)

	deps := flows.Deps{
		Sessions: b.sessions,
		Users:    b.users,
		Selector: selector,
		Now:      now,
		ClientIP: clientIPFromContext,
		Warn: func(format string, args ...any) {
			log.Printf(format, args...)
		},
	}

	var handler flows.Handler
	switch cfg.Strategy {
	case StrategySession:
		handler = flows.NewSessionHandler(deps, cfg.Session.TTL)
	case StrategyJWT:
		codec, err := token.NewManager(token.Config{
			AccessTTL:     cfg.JWT.AccessTTL,
			RefreshTTL:    cfg.JWT.RefreshTTL,
			SigningMethod: token.SigningMethod(cfg.JWT.SigningMethod),
			PrivateKey:    cloneBytes(cfg.JWT.PrivateKey),
			PublicKey:     cloneBytes(cfg.JWT.PublicKey),
			Issuer:        cfg.JWT.Issuer,
			Audience:      cfg.JWT.Audience,
			Leeway:        cfg.JWT.Leeway,
			TimeFunc:      now,
		})
		if err != nil {
			return nil, err
		}
		handler = flows.NewJWTHandler(deps, codec)
	default:
		return nil, ErrInvalidStrategy
	}

	engine := &Engine{
		handler:  handler,
		sessions: b.sessions,
		users:    b.users,
		audit:    newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:  NewMetrics(cfg.Metrics),
		now:      now,
	}

	b.built = true

	return engine, nil
}
