package session

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "preacherbot:session:"

// RedisStore keeps dialog states in Redis so several bot instances can share
// them. Every read and write refreshes the key's TTL.
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisStore creates a redis backed store; ttl <= 0 keeps states until cleared
func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	if ttl < 0 {
		ttl = 0
	}
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(userID int64) string {
	return fmt.Sprintf("%s%d", redisKeyPrefix, userID)
}

// Get gets the state for a user
func (r *RedisStore) Get(ctx context.Context, userID int64) (State, error) {
	var cmd *redis.StringCmd
	if r.ttl > 0 {
		cmd = r.client.GetEx(ctx, redisKey(userID), r.ttl)
	} else {
		cmd = r.client.Get(ctx, redisKey(userID))
	}
	raw, err := cmd.Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSession
		}
		return nil, errors.Wrapf(err, "failed to read session of user %d", userID)
	}
	return Decode(raw)
}

// Set sets the state for a user
func (r *RedisStore) Set(ctx context.Context, userID int64, st State) error {
	raw, err := Encode(st)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, redisKey(userID), raw, r.ttl).Err(); err != nil {
		return errors.Wrapf(err, "failed to write session of user %d", userID)
	}
	return nil
}

// Clear clears the state for a user
func (r *RedisStore) Clear(ctx context.Context, userID int64) error {
	if err := r.client.Del(ctx, redisKey(userID)).Err(); err != nil {
		return errors.Wrapf(err, "failed to clear session of user %d", userID)
	}
	return nil
}
