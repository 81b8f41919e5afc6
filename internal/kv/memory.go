package kv

import (
	"context"
	"maps"
	"strings"
	"sync"
)

// Memory is an in-process Store used by tests and standalone mode. A batch
// stages its mutations and applies them under one write lock, so readers
// never observe a partially committed batch.
type Memory struct {
	mu     sync.RWMutex
	hashes map[string]map[string]string
	sets   map[string]map[string]struct{}
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		hashes: make(map[string]map[string]string),
		sets:   make(map[string]map[string]struct{}),
	}
}

func (m *Memory) HSet(_ context.Context, key string, fields map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hset(key, fields)
	return nil
}

func (m *Memory) HGet(_ context.Context, key, field string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.hashes[key]
	if !ok {
		return "", ErrNotFound
	}
	v, ok := h[field]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *Memory) HGetAll(_ context.Context, key string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.hashes[key]
	if !ok || len(h) == 0 {
		return nil, ErrNotFound
	}
	return maps.Clone(h), nil
}

func (m *Memory) SAdd(_ context.Context, key string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sadd(key, members)
	return nil
}

func (m *Memory) SRem(_ context.Context, key string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.srem(key, members)
	return nil
}

func (m *Memory) SMembers(_ context.Context, key string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sets[key]
	if !ok {
		return nil, nil
	}
	out := make([]string, 0, len(s))
	for member := range s {
		out = append(out, member)
	}
	return out, nil
}

func (m *Memory) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.del(keys)
	return nil
}

func (m *Memory) Scan(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.hashes {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	for k := range m.sets {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Batch stages operations and commits them under a single lock acquisition.
func (m *Memory) Batch(_ context.Context, fn func(b Batch) error) error {
	staged := &memoryBatch{}
	if err := fn(staged); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, op := range staged.ops {
		op(m)
	}
	return nil
}

func (m *Memory) Close() error { return nil }

// Ping always succeeds; the in-memory store has no connection to lose.
func (m *Memory) Ping(_ context.Context) error { return nil }

func (m *Memory) Name() string { return "memory" }

// hset and friends assume the caller holds the write lock.
func (m *Memory) hset(key string, fields map[string]string) {
	h, ok := m.hashes[key]
	if !ok {
		h = make(map[string]string, len(fields))
		m.hashes[key] = h
	}
	maps.Copy(h, fields)
}

func (m *Memory) sadd(key string, members []string) {
	s, ok := m.sets[key]
	if !ok {
		s = make(map[string]struct{}, len(members))
		m.sets[key] = s
	}
	for _, member := range members {
		s[member] = struct{}{}
	}
}

func (m *Memory) srem(key string, members []string) {
	s, ok := m.sets[key]
	if !ok {
		return
	}
	for _, member := range members {
		delete(s, member)
	}
	if len(s) == 0 {
		delete(m.sets, key)
	}
}

func (m *Memory) del(keys []string) {
	for _, key := range keys {
		delete(m.hashes, key)
		delete(m.sets, key)
	}
}

type memoryBatch struct {
	ops []func(*Memory)
}

func (b *memoryBatch) HSet(key string, fields map[string]string) {
	cloned := maps.Clone(fields)
	b.ops = append(b.ops, func(m *Memory) { m.hset(key, cloned) })
}

func (b *memoryBatch) SAdd(key string, members ...string) {
	b.ops = append(b.ops, func(m *Memory) { m.sadd(key, members) })
}

func (b *memoryBatch) SRem(key string, members ...string) {
	b.ops = append(b.ops, func(m *Memory) { m.srem(key, members) })
}

func (b *memoryBatch) Del(keys ...string) {
	b.ops = append(b.ops, func(m *Memory) { m.del(keys) })
}
