package token

import (
	"strings"
	"testing"
)

func TestNewOpaqueTokenUniqueAndURLSafe(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok, err := NewOpaqueToken()
		if err != nil {
			t.Fatalf("new token: %v", err)
		}
		if tok == "" {
			t.Fatal("expected non-empty token")
		}
		if strings.ContainsAny(tok, "+/=") {
			t.Fatalf("token %q contains non-url-safe characters", tok)
		}
		if seen[tok] {
			t.Fatalf("duplicate token after %d iterations", i)
		}
		seen[tok] = true
	}
}

func TestHashTokenDeterministic(t *testing.T) {
	tok, err := NewOpaqueToken()
	if err != nil {
		t.Fatalf("new token: %v", err)
	}

	first := HashToken(tok)
	second := HashToken(tok)
	if first != second {
		t.Fatalf("hash not deterministic: %q vs %q", first, second)
	}
	if first == tok {
		t.Fatal("hash must not equal the token")
	}

	other, err := NewOpaqueToken()
	if err != nil {
		t.Fatalf("new token: %v", err)
	}
	if HashToken(other) == first {
		t.Fatal("distinct tokens produced identical hashes")
	}
}

func TestConstantTimeEqual(t *testing.T) {
	if !ConstantTimeEqual("abc", "abc") {
		t.Fatal("equal strings reported unequal")
	}
	if ConstantTimeEqual("abc", "abd") {
		t.Fatal("unequal strings reported equal")
	}
	if ConstantTimeEqual("abc", "abcd") {
		t.Fatal("different lengths reported equal")
	}
}
