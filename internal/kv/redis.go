package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
)

// ErrUnreachable is returned when the backend cannot be reached within the
// configured retry budget.
var ErrUnreachable = errors.New("kv: backend unreachable")

// RedisOptions configures a Redis-backed store.
type RedisOptions struct {
	Addr       string
	DB         int
	Password   string
	MaxRetries int // connection attempts before giving up
}

// Redis implements Store on a Redis server. Batches execute as a MULTI/EXEC
// transaction, so index memberships never diverge from primary records.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to Redis, retrying the initial ping with exponential
// backoff up to MaxRetries attempts. A backend that never answers is a fatal
// condition, not something to retry forever.
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		DB:           opts.DB,
		Password:     opts.Password,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second

	ping := func() error {
		return client.Ping(ctx).Err()
	}
	retry := backoff.WithMaxRetries(backoff.WithContext(b, ctx), uint64(maxRetries-1))
	if err := backoff.Retry(ping, retry); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	return &Redis{client: client}, nil
}

func (r *Redis) HSet(ctx context.Context, key string, fields map[string]string) error {
	return r.client.HSet(ctx, key, fields).Err()
}

func (r *Redis) HGet(ctx context.Context, key, field string) (string, error) {
	v, err := r.client.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return v, err
}

func (r *Redis) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	fields, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	return fields, nil
}

func (r *Redis) SAdd(ctx context.Context, key string, members ...string) error {
	return r.client.SAdd(ctx, key, toAny(members)...).Err()
}

func (r *Redis) SRem(ctx context.Context, key string, members ...string) error {
	return r.client.SRem(ctx, key, toAny(members)...).Err()
}

func (r *Redis) SMembers(ctx context.Context, key string) ([]string, error) {
	return r.client.SMembers(ctx, key).Result()
}

func (r *Redis) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

// Scan enumerates keys with the given prefix using the cursor-based SCAN
// iterator, never the blocking KEYS command.
func (r *Redis) Scan(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

// Batch runs fn against a transactional pipeline and executes the queued
// commands atomically.
func (r *Redis) Batch(ctx context.Context, fn func(b Batch) error) error {
	pipe := r.client.TxPipeline()
	if err := fn(&redisBatch{ctx: ctx, pipe: pipe}); err != nil {
		pipe.Discard()
		return err
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// Ping reports backend liveness, used by the health endpoint.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Name() string { return "redis" }

type redisBatch struct {
	ctx  context.Context
	pipe redis.Pipeliner
}

func (b *redisBatch) HSet(key string, fields map[string]string) {
	b.pipe.HSet(b.ctx, key, fields)
}

func (b *redisBatch) SAdd(key string, members ...string) {
	b.pipe.SAdd(b.ctx, key, toAny(members)...)
}

func (b *redisBatch) SRem(key string, members ...string) {
	b.pipe.SRem(b.ctx, key, toAny(members)...)
}

func (b *redisBatch) Del(keys ...string) {
	b.pipe.Del(b.ctx, keys...)
}

func toAny(members []string) []any {
	out := make([]any, len(members))
	for i, m := range members {
		out[i] = m
	}
	return out
}
