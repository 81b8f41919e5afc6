//go:build integration

package kv

import (
	"context"
	"os"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func redisAddr(t *testing.T) string {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping integration test")
	}
	return addr
}

func TestRedis_RoundTrip_Integration(t *testing.T) {
	ctx := context.Background()
	r, err := NewRedis(ctx, RedisOptions{Addr: redisAddr(t), DB: 15})
	require.NoError(t, err)
	defer r.Close()

	defer r.Del(ctx, "it:chunk:a", "it:set")

	require.NoError(t, r.HSet(ctx, "it:chunk:a", map[string]string{"title": "Fireball"}))
	v, err := r.HGet(ctx, "it:chunk:a", "title")
	require.NoError(t, err)
	assert.Equal(t, "Fireball", v)

	_, err = r.HGet(ctx, "it:chunk:a", "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, r.SAdd(ctx, "it:set", "x", "y"))
	members, err := r.SMembers(ctx, "it:set")
	require.NoError(t, err)
	sort.Strings(members)
	assert.Equal(t, []string{"x", "y"}, members)

	keys, err := r.Scan(ctx, "it:chunk:")
	require.NoError(t, err)
	assert.Contains(t, keys, "it:chunk:a")
}

func TestRedis_Batch_Integration(t *testing.T) {
	ctx := context.Background()
	r, err := NewRedis(ctx, RedisOptions{Addr: redisAddr(t), DB: 15})
	require.NoError(t, err)
	defer r.Close()

	defer r.Del(ctx, "it:batch:a", "it:batch:set")

	err = r.Batch(ctx, func(b Batch) error {
		b.HSet("it:batch:a", map[string]string{"f": "1"})
		b.SAdd("it:batch:set", "it:batch:a")
		return nil
	})
	require.NoError(t, err)

	v, err := r.HGet(ctx, "it:batch:a", "f")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	assert.NoError(t, r.Ping(ctx))
	assert.Equal(t, "redis", r.Name())
}
