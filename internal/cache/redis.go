package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultGroupPrefix = "cache:group:"

// RedisStore keeps entries as plain string keys and each group as a Redis set
// of member keys, so a flush never depends on KEYS or SCAN pattern matching.
type RedisStore struct {
	client      redis.UniversalClient
	groupPrefix string
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client, groupPrefix: defaultGroupPrefix}
}

func (s *RedisStore) groupKey(group string) string {
	return s.groupPrefix + group
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

// Put indexes the key in its groups and writes the value in one MULTI/EXEC,
// so a concurrent flush either sees both or neither. Each group set lives at
// least as long as its longest-lived member: NX sets a TTL on a fresh set and
// GT only ever extends it. Sets holding a member without expiry are persisted.
func (s *RedisStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration, groups ...string) error {
	if ttl < 0 {
		ttl = 0
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, g := range groups {
			gk := s.groupKey(g)
			pipe.SAdd(ctx, gk, key)
			if ttl > 0 {
				pipe.ExpireNX(ctx, gk, ttl)
				pipe.ExpireGT(ctx, gk, ttl)
			} else {
				pipe.Persist(ctx, gk)
			}
		}
		pipe.Set(ctx, key, string(value), ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis put %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Forget(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis forget: %w", err)
	}
	return nil
}

// FlushGroup deletes the members each group set lists and removes exactly those
// members from the set. Keys added after the read stay indexed for the next flush.
func (s *RedisStore) FlushGroup(ctx context.Context, groups ...string) error {
	for _, g := range groups {
		gk := s.groupKey(g)
		members, err := s.client.SMembers(ctx, gk).Result()
		if err != nil {
			return fmt.Errorf("redis flush group %s: %w", g, err)
		}
		if len(members) == 0 {
			continue
		}

		set := make([]interface{}, len(members))
		for i, m := range members {
			set[i] = m
		}
		_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, members...)
			pipe.SRem(ctx, gk, set...)
			return nil
		})
		if err != nil {
			return fmt.Errorf("redis flush group %s: %w", g, err)
		}
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Driver() string {
	return "redis"
}

var _ Store = (*RedisStore)(nil)
