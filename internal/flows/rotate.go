package flows

import (
	"time"

	"github.com/feldspar-io/authgate/store"
)

// Stale reports whether a still-valid credential has crossed the halfway
// point of its lifetime and must be replaced on this validation. The
// checkpoint is the last rotation instant (LastExtendedAt) or, for a
// never-rotated record, its creation time.
//
// Rotating at the halfway point amortizes record writes (roughly half of
// requests within a credential's life trigger one) while capping the
// usable lifetime of any single leaked token to about half its nominal
// TTL.
func Stale(rec *store.SessionRecord, now time.Time) bool {
	checkpoint := rec.LastExtendedAt
	if checkpoint.IsZero() {
		checkpoint = rec.CreatedAt
	}
	halfway := checkpoint.Add(rec.ExpiresAt.Sub(checkpoint) / 2)
	return now.After(halfway)
}
