package flows

import (
	"testing"
	"time"

	"github.com/feldspar-io/authgate/store"
)

func TestStaleHalfwayPoint(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	lifetime := 30 * 24 * time.Hour

	rec := &store.SessionRecord{
		CreatedAt: created,
		ExpiresAt: created.Add(lifetime),
	}

	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"just issued", created.Add(time.Minute), false},
		{"just before halfway", created.Add(lifetime/2 - time.Second), false},
		{"exactly halfway", created.Add(lifetime / 2), false},
		{"just after halfway", created.Add(lifetime/2 + time.Second), true},
		{"near expiry", created.Add(lifetime - time.Minute), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Stale(rec, tc.at); got != tc.want {
				t.Fatalf("Stale at %v = %v, want %v", tc.at, got, tc.want)
			}
		})
	}
}

func TestStaleCheckpointMovesWithRotation(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rotated := created.Add(20 * 24 * time.Hour)
	expires := rotated.Add(30 * 24 * time.Hour)

	rec := &store.SessionRecord{
		CreatedAt:      created,
		LastExtendedAt: rotated,
		ExpiresAt:      expires,
	}

	// Before the midpoint of the rotated window the record is fresh even
	// though it is long past the midpoint of the original window.
	if Stale(rec, rotated.Add(14*24*time.Hour)) {
		t.Fatal("record stale before midpoint of extended window")
	}
	if !Stale(rec, rotated.Add(16*24*time.Hour)) {
		t.Fatal("record fresh past midpoint of extended window")
	}
}

func TestStaleTouchDoesNotMoveCheckpoint(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	lifetime := 10 * 24 * time.Hour

	// LastUsedAt moves on every validated request; only LastExtendedAt
	// participates in the staleness checkpoint.
	rec := &store.SessionRecord{
		CreatedAt:  created,
		LastUsedAt: created.Add(6 * 24 * time.Hour),
		ExpiresAt:  created.Add(lifetime),
	}

	if !Stale(rec, created.Add(6*24*time.Hour)) {
		t.Fatal("recent use must not defer rotation")
	}
}
