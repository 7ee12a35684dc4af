// Package redisstore adapts the raw Redis client into the typed primitives
// the session services are built on. Absence is never an error here: deleting
// a missing field or member reports zero affected and succeeds, which is what
// makes every destructive operation above this layer safely retryable.
package redisstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var Module = fx.Module(
	"adapter_redisstore",

	fx.Provide(New),
)

type Store struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// GetString returns the value and whether the key exists.
func (s *Store) GetString(ctx context.Context, key string) (string, bool, error) {
	val, err := s.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redisstore: get %s: %w", key, err)
	}
	return val, true, nil
}

func (s *Store) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redisstore: set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redisstore: exists %s: %w", key, err)
	}
	return n > 0, nil
}

func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	fields, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: hgetall %s: %w", key, err)
	}
	return fields, nil
}

// HKeys returns the field names of a hash; an absent key yields an empty
// slice.
func (s *Store) HKeys(ctx context.Context, key string) ([]string, error) {
	fields, err := s.rdb.HKeys(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: hkeys %s: %w", key, err)
	}
	return fields, nil
}

func (s *Store) HGet(ctx context.Context, key, field string) (string, bool, error) {
	val, err := s.rdb.HGet(ctx, key, field).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redisstore: hget %s %s: %w", key, field, err)
	}
	return val, true, nil
}

func (s *Store) HSet(ctx context.Context, key, field, value string) error {
	if err := s.rdb.HSet(ctx, key, field, value).Err(); err != nil {
		return fmt.Errorf("redisstore: hset %s %s: %w", key, field, err)
	}
	return nil
}

func (s *Store) HDel(ctx context.Context, key, field string) error {
	if err := s.rdb.HDel(ctx, key, field).Err(); err != nil {
		return fmt.Errorf("redisstore: hdel %s %s: %w", key, field, err)
	}
	return nil
}

// HDelAndCount removes a field and returns the resulting hash size in one
// MULTI/EXEC round trip. Concurrent callers removing the last two fields of
// one hash serialize through the transaction, so exactly one observes zero.
func (s *Store) HDelAndCount(ctx context.Context, key, field string) (int64, error) {
	pipe := s.rdb.TxPipeline()
	pipe.HDel(ctx, key, field)
	remaining := pipe.HLen(ctx, key)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redisstore: hdel+hlen %s %s: %w", key, field, err)
	}

	return remaining.Val(), nil
}

func (s *Store) Del(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redisstore: del %s: %w", key, err)
	}
	return nil
}

func (s *Store) ZAdd(ctx context.Context, key, member string, score float64) error {
	if err := s.rdb.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Err(); err != nil {
		return fmt.Errorf("redisstore: zadd %s: %w", key, err)
	}
	return nil
}

func (s *Store) ZRem(ctx context.Context, key, member string) error {
	if err := s.rdb.ZRem(ctx, key, member).Err(); err != nil {
		return fmt.Errorf("redisstore: zrem %s: %w", key, err)
	}
	return nil
}

// ZRangeByScoreWithLimit returns up to count members with score in
// [0, maxScore], lowest score first.
func (s *Store) ZRangeByScoreWithLimit(ctx context.Context, key string, maxScore float64, offset, count int64) ([]string, error) {
	members, err := s.rdb.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min:    "0",
		Max:    strconv.FormatFloat(maxScore, 'f', -1, 64),
		Offset: offset,
		Count:  count,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: zrangebyscore %s: %w", key, err)
	}
	return members, nil
}

// HSetListPush writes a hash field and appends to a list in one MULTI/EXEC
// batch; used where a members hash and its ordered index must move together.
func (s *Store) HSetListPush(ctx context.Context, hashKey, field, value, listKey, element string) error {
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, hashKey, field, value)
	pipe.RPush(ctx, listKey, element)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redisstore: hset+rpush %s/%s: %w", hashKey, listKey, err)
	}
	return nil
}

// HDelListRem deletes a hash field and removes every matching list element in
// one MULTI/EXEC batch. Both halves are no-ops when absent.
func (s *Store) HDelListRem(ctx context.Context, hashKey, field, listKey, element string) error {
	pipe := s.rdb.TxPipeline()
	pipe.HDel(ctx, hashKey, field)
	pipe.LRem(ctx, listKey, 0, element)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redisstore: hdel+lrem %s/%s: %w", hashKey, listKey, err)
	}
	return nil
}
