package repositories

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/you/shopauthsvc/domain"
)

const sessionMutateRetries = 16

// SessionStoreImpl implements domain.SessionStore using Redis. Records are
// written lazily on first cart mutation and carry a sliding TTL enforced
// both by the key TTL and by an ExpiresAt check on read.
type SessionStoreImpl struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewSessionStore creates a new session store
func NewSessionStore(client *redis.Client, ttl time.Duration) domain.SessionStore {
	return &SessionStoreImpl{
		client: client,
		prefix: "sess:",
		ttl:    ttl,
	}
}

// NewID implements domain.SessionStore. It allocates an unguessable id
// without persisting anything; pure browsing traffic never creates records.
func (s *SessionStoreImpl) NewID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Get implements domain.SessionStore
func (s *SessionStoreImpl) Get(ctx context.Context, id string) (*domain.Session, error) {
	key := s.prefix + id
	data, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, domain.ErrSessionNotFound
		}
		return nil, storeErr(err)
	}

	session, err := decodeSession(data)
	if err != nil {
		return nil, err
	}

	if session.ExpiresAt.Before(time.Now()) {
		// Lazy expiry: reclaim and report normal absence
		s.client.Del(ctx, key)
		return nil, domain.ErrSessionNotFound
	}

	return session, nil
}

// Mutate implements domain.SessionStore. The WATCH/MULTI cycle gives
// per-session mutual exclusion: two concurrent adds both land, the loser of
// the race re-reads and reapplies its op.
func (s *SessionStoreImpl) Mutate(ctx context.Context, id string, op func(domain.Cart) domain.Cart) (*domain.Session, error) {
	key := s.prefix + id

	var result *domain.Session
	apply := func(tx *redis.Tx) error {
		now := time.Now()
		session := &domain.Session{ID: id, CreatedAt: now}

		data, err := tx.Get(ctx, key).Result()
		switch {
		case err == redis.Nil:
			// First mutation persists the record
		case err != nil:
			return err
		default:
			existing, derr := decodeSession(data)
			if derr != nil {
				return derr
			}
			if existing.ExpiresAt.After(now) {
				session = existing
			}
		}

		session.Cart = op(session.Cart).Normalize()
		session.ExpiresAt = now.Add(s.ttl)

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if session.Cart.IsEmpty() {
				pipe.Del(ctx, key)
				return nil
			}
			payload, merr := json.Marshal(session)
			if merr != nil {
				return merr
			}
			pipe.Set(ctx, key, payload, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}

		result = session
		return nil
	}

	for i := 0; i < sessionMutateRetries; i++ {
		err := s.client.Watch(ctx, apply, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, storeErr(err)
	}
	return nil, storeErr(fmt.Errorf("session %s: too many concurrent mutations", id))
}

// Take implements domain.SessionStore. GETDEL hands the cart to exactly one
// caller; a concurrent merge on the same session observes ErrSessionNotFound,
// the expected post-merge state.
func (s *SessionStoreImpl) Take(ctx context.Context, id string) (domain.Cart, error) {
	key := s.prefix + id
	data, err := s.client.GetDel(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, domain.ErrSessionNotFound
		}
		return nil, storeErr(err)
	}

	session, err := decodeSession(data)
	if err != nil {
		return nil, err
	}

	if session.ExpiresAt.Before(time.Now()) {
		return nil, domain.ErrSessionNotFound
	}

	return session.Cart, nil
}

// Restore implements domain.SessionStore
func (s *SessionStoreImpl) Restore(ctx context.Context, id string, cart domain.Cart) error {
	now := time.Now()
	session := &domain.Session{
		ID:        id,
		Cart:      cart,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+id, payload, s.ttl).Err(); err != nil {
		return storeErr(err)
	}
	return nil
}

// Destroy implements domain.SessionStore
func (s *SessionStoreImpl) Destroy(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.prefix+id).Err(); err != nil {
		return storeErr(err)
	}
	return nil
}

func decodeSession(data string) (*domain.Session, error) {
	var session domain.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// storeErr tags infrastructure faults so callers can distinguish the one
// retryable failure class from everything else.
func storeErr(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}
