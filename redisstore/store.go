package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/feldspar-io/authgate/store"
)

const (
	defaultPrefix = "ag"

	// Watch-based record updates retry this many times before giving up
	// under sustained contention on a single record.
	maxTxRetries = 5
)

// createRecordScript writes a record and its user-index entry in one
// atomic round trip. The record key and the index entry must never
// diverge: a record missing from the index would be skipped by the bulk
// delete and revoke operations. Returns 0 without touching anything when
// the ID is already taken.
const createRecordScript = `
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 0
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
redis.call("SADD", KEYS[2], ARGV[3])
return 1
`

var createRecordLua = redis.NewScript(createRecordScript)

// deleteRecordScript removes a record and its user-index entry in one
// round trip. The user ID travels as an argument so the script never has
// to parse the blob.
const deleteRecordScript = `
local existed = redis.call("EXISTS", KEYS[1])
redis.call("SREM", KEYS[2], ARGV[1])
if existed == 1 then
  redis.call("DEL", KEYS[1])
end
return existed
`

var deleteRecordLua = redis.NewScript(deleteRecordScript)

// Store is a Redis-backed [store.SessionStore]. Records live as compact
// binary blobs keyed by token hash with a TTL matching their absolute
// expiry; a per-user set indexes record IDs for the bulk operations.
// Revoked records keep their TTL instead of being deleted, so
// presentation of a rotated-out credential stays observable until
// natural expiry.
type Store struct {
	redis  redis.UniversalClient
	users  store.UserStore
	prefix string
	now    func() time.Time
}

// Option customizes a [Store].
type Option func(*Store)

// WithPrefix overrides the Redis key namespace (default "ag").
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithClock overrides the clock used for TTL arithmetic. Tests use it
// together with a fake engine clock.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates a session store backed by the given Redis client.
// users is consulted by FindSessionWithUser to join the owning account;
// pass nil to let the engine fall back to its own user store.
func NewStore(client redis.UniversalClient, users store.UserStore, opts ...Option) *Store {
	s := &Store{
		redis:  client,
		users:  users,
		prefix: defaultPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) recordKey(id string) string {
	return s.prefix + ":s:" + id
}

func (s *Store) userKey(userID string) string {
	return s.prefix + ":u:" + userID
}

func (s *Store) ttlUntil(expiresAt time.Time) time.Duration {
	ttl := expiresAt.Sub(s.now())
	if ttl < time.Second {
		ttl = time.Second
	}
	return ttl
}

func wrapErr(err error) error {
	return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
}

// CreateSession persists a new record under its hash key. The record and
// its user-index entry land in one script so neither can exist without
// the other; a losing concurrent insert surfaces as
// [store.ErrDuplicateSession].
func (s *Store) CreateSession(ctx context.Context, rec *store.SessionRecord) (*store.SessionRecord, error) {
	data, err := encodeRecord(rec)
	if err != nil {
		return nil, err
	}

	created, err := createRecordLua.Run(ctx, s.redis,
		[]string{s.recordKey(rec.ID), s.userKey(rec.UserID)},
		data, s.ttlUntil(rec.ExpiresAt).Milliseconds(), rec.ID).Int()
	if err != nil {
		return nil, wrapErr(err)
	}
	if created == 0 {
		return nil, store.ErrDuplicateSession
	}

	return rec.Clone(), nil
}

// FindSessionWithUser resolves a record and, when a user store was wired,
// its owning account. An absent record is (nil, nil, nil).
func (s *Store) FindSessionWithUser(ctx context.Context, id string) (*store.SessionRecord, *store.User, error) {
	data, err := s.redis.Get(ctx, s.recordKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil, nil
		}
		return nil, nil, wrapErr(err)
	}

	rec, err := decodeRecord(data)
	if err != nil {
		return nil, nil, err
	}

	var user *store.User
	if s.users != nil {
		if user, err = s.users.FindUserByID(ctx, rec.UserID); err != nil {
			return nil, nil, err
		}
	}

	return rec, user, nil
}

// ExtendSessionExpiry touches LastUsedAt and advances the expiry when the
// passed value is later than the stored one. The expiry never moves
// backwards.
func (s *Store) ExtendSessionExpiry(ctx context.Context, id string, expiresAt, usedAt time.Time) (*store.SessionRecord, error) {
	return s.updateRecord(ctx, id, func(rec *store.SessionRecord) {
		rec.LastUsedAt = usedAt
		rec.LastUpdatedAt = usedAt
		if expiresAt.After(rec.ExpiresAt) {
			rec.ExpiresAt = expiresAt
			rec.LastExtendedAt = usedAt
		}
	})
}

// DeleteSession removes one record and its index entry. Idempotent.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	data, err := s.redis.Get(ctx, s.recordKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return wrapErr(err)
	}

	rec, err := decodeRecord(data)
	if err != nil {
		return err
	}

	err = deleteRecordLua.Run(ctx, s.redis,
		[]string{s.recordKey(id), s.userKey(rec.UserID)}, id).Err()
	if err != nil {
		return wrapErr(err)
	}

	return nil
}

// DeleteAllSessionsForUser removes every record for a user.
//
// ATOMICITY NOTE: not fully atomic. It reads the user's index set, then
// deletes in one transaction; a record created between the two phases is
// missed and expires naturally or is caught by the next call.
func (s *Store) DeleteAllSessionsForUser(ctx context.Context, userID string) error {
	userKey := s.userKey(userID)

	ids, err := s.redis.SMembers(ctx, userKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return wrapErr(err)
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, s.recordKey(id))
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(keys) > 0 {
			pipe.Del(ctx, keys...)
		}
		pipe.Del(ctx, userKey)
		return nil
	})
	if err != nil {
		return wrapErr(err)
	}

	return nil
}

// RevokeSession marks one record revoked. The record and its TTL stay in
// place so later presentation of the dead credential remains observable.
// Idempotent; an existing RevokedAt is never overwritten.
func (s *Store) RevokeSession(ctx context.Context, id string, at time.Time) error {
	_, err := s.updateRecord(ctx, id, func(rec *store.SessionRecord) {
		if rec.RevokedAt == nil {
			stamp := at
			rec.RevokedAt = &stamp
			rec.LastUpdatedAt = at
		}
	})
	return err
}

// RevokeAllSessionsForUser revokes every live record for a user. Same
// atomicity caveat as DeleteAllSessionsForUser.
func (s *Store) RevokeAllSessionsForUser(ctx context.Context, userID string, at time.Time) error {
	ids, err := s.redis.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return wrapErr(err)
	}

	for _, id := range ids {
		if err := s.RevokeSession(ctx, id, at); err != nil {
			return err
		}
	}

	return nil
}

// MarkTwoFactorVerified stamps the second-factor verification instant on
// one record. Returns nil when the record no longer exists.
func (s *Store) MarkTwoFactorVerified(ctx context.Context, id string, at time.Time) (*store.SessionRecord, error) {
	return s.updateRecord(ctx, id, func(rec *store.SessionRecord) {
		stamp := at
		rec.TwoFactorVerifiedAt = &stamp
		rec.LastVerifiedAt = at
		rec.LastUpdatedAt = at
	})
}

// ClearTwoFactorForUser clears the verification stamp on every record for
// the user and returns how many records were touched.
func (s *Store) ClearTwoFactorForUser(ctx context.Context, userID string) (int64, error) {
	ids, err := s.redis.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, wrapErr(err)
	}

	var touched int64
	for _, id := range ids {
		changed := false
		_, err := s.updateRecord(ctx, id, func(rec *store.SessionRecord) {
			changed = rec.TwoFactorVerifiedAt != nil
			if changed {
				rec.TwoFactorVerifiedAt = nil
				rec.LastUpdatedAt = s.now()
			}
		})
		if err != nil {
			return touched, err
		}
		if changed {
			touched++
		}
	}

	return touched, nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := s.now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return s.now().Sub(start), wrapErr(err)
	}
	return s.now().Sub(start), nil
}

// updateRecord applies mutate to a record under a WATCH transaction,
// preserving the key's remaining TTL unless the mutation extended the
// expiry. Returns (nil, nil) when the record does not exist.
func (s *Store) updateRecord(ctx context.Context, id string, mutate func(*store.SessionRecord)) (*store.SessionRecord, error) {
	key := s.recordKey(id)

	var out *store.SessionRecord
	txn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				out = nil
				return nil
			}
			return err
		}

		rec, err := decodeRecord(data)
		if err != nil {
			return err
		}

		mutate(rec)

		encoded, err := encodeRecord(rec)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, s.ttlUntil(rec.ExpiresAt))
			return nil
		})
		if err != nil {
			return err
		}

		out = rec
		return nil
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := s.redis.Watch(ctx, txn, key)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if errors.Is(err, errInvalidRecordVersion) {
			return nil, err
		}
		return nil, wrapErr(err)
	}

	return nil, wrapErr(redis.TxFailedErr)
}

var _ store.SessionStore = (*Store)(nil)
