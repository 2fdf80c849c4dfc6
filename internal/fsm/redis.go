package fsm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "fsm:"

// RedisStore keeps sessions in Redis so a conversation survives a process
// restart. Sessions expire after the configured TTL; an abandoned flow does
// not pin memory forever.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps a connected Redis client. ttl <= 0 disables expiry.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(userID int64) string {
	return fmt.Sprintf("%s%d", sessionKeyPrefix, userID)
}

// Get loads and unmarshals the session for a user, or returns nil if absent.
func (r *RedisStore) Get(ctx context.Context, userID int64) (*Session, error) {
	data, err := r.client.Get(ctx, sessionKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %d: %v", ErrStoreUnavailable, userID, err)
	}
	var session Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("fsm: unmarshal session for %d: %w", userID, err)
	}
	return &session, nil
}

// Set marshals and stores the session with the configured TTL.
func (r *RedisStore) Set(ctx context.Context, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("fsm: marshal session for %d: %w", session.UserID, err)
	}
	if err := r.client.Set(ctx, sessionKey(session.UserID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %d: %v", ErrStoreUnavailable, session.UserID, err)
	}
	return nil
}

// Delete removes the session for a user.
func (r *RedisStore) Delete(ctx context.Context, userID int64) error {
	if err := r.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("%w: delete %d: %v", ErrStoreUnavailable, userID, err)
	}
	return nil
}
