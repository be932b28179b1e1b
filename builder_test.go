package authgate

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
	"time"
)

func TestBuildRequiresStores(t *testing.T) {
	cfg := defaultConfig()

	if _, err := New().WithConfig(cfg).WithUserStore(testUsers()).Build(); !errors.Is(err, ErrSessionStoreRequired) {
		t.Fatalf("err = %v, want ErrSessionStoreRequired", err)
	}
	if _, err := New().WithConfig(cfg).WithSessionStore(newMemoryStore()).Build(); !errors.Is(err, ErrUserStoreRequired) {
		t.Fatalf("err = %v, want ErrUserStoreRequired", err)
	}
}

func TestBuildRejectsInvalidStrategy(t *testing.T) {
	cfg := defaultConfig()
	cfg.Strategy = Strategy(9)

	_, err := New().WithConfig(cfg).WithSessionStore(newMemoryStore()).WithUserStore(testUsers()).Build()
	if !errors.Is(err, ErrInvalidStrategy) {
		t.Fatalf("err = %v, want ErrInvalidStrategy", err)
	}
}

func TestBuildRequiresJWTSigningKeys(t *testing.T) {
	cfg := defaultConfig()
	cfg.Strategy = StrategyJWT

	_, err := New().WithConfig(cfg).WithSessionStore(newMemoryStore()).WithUserStore(testUsers()).Build()
	if !errors.Is(err, ErrMissingSigningKey) {
		t.Fatalf("err = %v, want ErrMissingSigningKey", err)
	}
}

func TestBuildRejectsNonPositiveTTL(t *testing.T) {
	cfg := defaultConfig()
	cfg.Session.TTL = 0

	_, err := New().WithConfig(cfg).WithSessionStore(newMemoryStore()).WithUserStore(testUsers()).Build()
	if err == nil {
		t.Fatal("expected validation error for zero TTL")
	}
}

func TestBuildJWTIgnoresSessionTTL(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	// The opaque TTL belongs to the other strategy; a JWT-only config
	// built from scratch leaves it zero.
	cfg := Config{
		Strategy: StrategyJWT,
		JWT: JWTConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    720 * time.Hour,
			SigningMethod: "ed25519",
			PrivateKey:    priv,
			PublicKey:     pub,
		},
	}

	engine, err := New().WithConfig(cfg).WithSessionStore(newMemoryStore()).WithUserStore(testUsers()).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	engine.Close()
}

func TestBuilderSingleUse(t *testing.T) {
	b := New().WithSessionStore(newMemoryStore()).WithUserStore(testUsers())

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer engine.Close()

	if _, err := b.Build(); err == nil {
		t.Fatal("expected error reusing a builder")
	}
}

func TestAuditEventsEmitted(t *testing.T) {
	sink := NewChannelSink(16)

	cfg := defaultConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.DropIfFull = false

	clock := newFakeClock()
	engine, err := New().
		WithConfig(cfg).
		WithSessionStore(newMemoryStore()).
		WithUserStore(testUsers()).
		WithAuditSink(sink).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer engine.Close()

	ctx := WithClientIP(context.Background(), "203.0.113.7")
	issued, err := engine.IssueSession(ctx, &User{ID: "u-1"}, SessionMetadata{}, newTestCarrier(testDesktopUA))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := engine.InvalidateSession(ctx, issued.SessionID); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	expect := func(eventType string) AuditEvent {
		t.Helper()
		select {
		case event := <-sink.Events():
			if event.EventType != eventType {
				t.Fatalf("event type = %q, want %q", event.EventType, eventType)
			}
			return event
		case <-time.After(2 * time.Second):
			t.Fatalf("no %q event within deadline", eventType)
			return AuditEvent{}
		}
	}

	issue := expect(auditEventSessionIssued)
	if issue.UserID != "u-1" || !issue.Success {
		t.Fatalf("issue event = %+v", issue)
	}
	if issue.IP != "203.0.113.7" {
		t.Fatalf("issue event ip = %q", issue.IP)
	}
	if issue.ID == "" {
		t.Fatal("event id missing")
	}

	revoked := expect(auditEventSessionRevoked)
	if revoked.SessionID != issued.SessionID {
		t.Fatalf("revoke event session = %q", revoked.SessionID)
	}
}

func TestAuditDisabledIsSilent(t *testing.T) {
	engine := newSessionTestEngine(t, newMemoryStore(), testUsers(), newFakeClock())

	if _, err := engine.IssueSession(context.Background(), &User{ID: "u-1"}, SessionMetadata{}, newTestCarrier(testDesktopUA)); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if engine.AuditDropped() != 0 {
		t.Fatalf("dropped = %d", engine.AuditDropped())
	}
}
