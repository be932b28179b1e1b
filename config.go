package authgate

import (
	"errors"
	"time"

	"github.com/feldspar-io/authgate/store"
	"github.com/feldspar-io/authgate/token"
	"github.com/feldspar-io/authgate/transport"
)

// Config defines the engine configuration. Instances are cloned on
// ingestion and treated as immutable after [Builder.Build].
type Config struct {
	// Strategy selects the credential mechanism for the whole engine. The
	// choice is bound to one concrete handler at build time; records carry
	// their strategy and are never honored across strategies.
	Strategy Strategy

	Session SessionConfig
	JWT     JWTConfig
	Cookies transport.CookieConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

// SessionConfig controls the opaque session token strategy.
type SessionConfig struct {
	// TTL is the absolute lifetime of an opaque session credential.
	TTL time.Duration
}

// JWTConfig controls the signed access/refresh pair strategy.
type JWTConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	SigningMethod string // "ed25519" (default) or "hs256"
	PrivateKey    []byte
	PublicKey     []byte

	Issuer   string
	Audience string
	Leeway   time.Duration
}

// AuditConfig controls the buffered audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process metrics counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

func defaultConfig() Config {
	return Config{
		Strategy: StrategySession,
		Session: SessionConfig{
			TTL: 30 * 24 * time.Hour,
		},
		JWT: JWTConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    30 * 24 * time.Hour,
			SigningMethod: "ed25519",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate checks the configuration for fatal misconfiguration. It runs at
// build time: a missing signing key under the JWT strategy or an unknown
// strategy value fails loudly here, never as a silent runtime degradation.
func (c *Config) Validate() error {
	if !store.Strategy(c.Strategy).Valid() {
		return ErrInvalidStrategy
	}

	if c.Strategy == StrategySession && c.Session.TTL <= 0 {
		return errInvalid("Session TTL must be > 0")
	}

	if c.Strategy == StrategyJWT {
		if c.JWT.AccessTTL <= 0 {
			return errInvalid("JWT AccessTTL must be > 0")
		}
		if c.JWT.RefreshTTL <= 0 {
			return errInvalid("JWT RefreshTTL must be > 0")
		}
		switch token.SigningMethod(c.JWT.SigningMethod) {
		case token.MethodEd25519:
			if len(c.JWT.PrivateKey) == 0 || len(c.JWT.PublicKey) == 0 {
				return ErrMissingSigningKey
			}
		case token.MethodHS256:
			if len(c.JWT.PrivateKey) == 0 {
				return ErrMissingSigningKey
			}
		default:
			return errInvalid("unsupported JWT signing method")
		}
		if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
			return errInvalid("JWT Leeway must be within [0, 2m]")
		}
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errInvalid("Audit BufferSize must be > 0 when enabled")
	}

	return nil
}

func errInvalid(msg string) error { return errors.New(msg) }
