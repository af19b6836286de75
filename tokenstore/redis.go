package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the pair in one Redis hash so that Clear is a single DEL.
type RedisStore struct {
	redis redis.UniversalClient
	key   string
}

// NewRedisStore returns a store that keeps the pair under "<prefix>:<namespace>".
// namespace separates independent clients sharing one Redis (for example a
// device or profile name); it defaults to "default".
func NewRedisStore(client redis.UniversalClient, prefix, namespace string) *RedisStore {
	if prefix == "" {
		prefix = "skillsync:credentials"
	}
	if namespace == "" {
		namespace = "default"
	}
	return &RedisStore{
		redis: client,
		key:   prefix + ":" + namespace,
	}
}

// Key returns the Redis key holding the pair.
func (s *RedisStore) Key() string { return s.key }

func (s *RedisStore) Read(ctx context.Context) (Pair, error) {
	values, err := s.redis.HMGet(ctx, s.key, Keys.Access, Keys.Refresh).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Pair{}, nil
		}
		return Pair{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var p Pair
	if len(values) == 2 {
		p.Access, _ = values[0].(string)
		p.Refresh, _ = values[1].(string)
	}
	return p, nil
}

func (s *RedisStore) Write(ctx context.Context, p Pair) error {
	if p.IsEmpty() {
		return nil
	}
	if err := s.redis.HSet(ctx, s.key, p.fields()...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Replace drops the hash and writes p inside one MULTI/EXEC, so another
// reader never sees the previous pair mixed with the new one.
func (s *RedisStore) Replace(ctx context.Context, p Pair) error {
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		if !p.IsEmpty() {
			pipe.HSet(ctx, s.key, p.fields()...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// fields lists the non-empty credentials as HSET arguments.
func (p Pair) fields() []any {
	fields := make([]any, 0, 4)
	if p.Access != "" {
		fields = append(fields, Keys.Access, p.Access)
	}
	if p.Refresh != "" {
		fields = append(fields, Keys.Refresh, p.Refresh)
	}
	return fields
}
