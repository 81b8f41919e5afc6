package embedding

import (
	"context"
	"log/slog"
	"strings"
)

// Cached decorates an Embedder with a persistent content-hash cache. The
// cache is checked before the model is called and populated after; the cache
// file is saved after every batch so restarts keep their work.
type Cached struct {
	inner  Embedder
	cache  *Cache
	logger *slog.Logger
}

// NewCached wraps inner with the given cache.
func NewCached(inner Embedder, cache *Cache, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{inner: inner, cache: cache, logger: logger}
}

func (c *Cached) Dimension() int { return c.inner.Dimension() }

func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if vec, ok := c.cache.Get(text); ok {
		return vec, nil
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vec) > 0 {
		c.cache.Put(text, vec)
		if err := c.cache.Save(); err != nil {
			c.logger.Warn("embedding cache save failed", "error", err)
		}
	}
	return vec, nil
}

func (c *Cached) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	var misses []string
	var missIdx []int
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		if vec, ok := c.cache.Get(text); ok {
			vectors[i] = vec
			continue
		}
		misses = append(misses, text)
		missIdx = append(missIdx, i)
	}

	if len(misses) == 0 {
		return vectors, nil
	}

	embedded, err := c.inner.EmbedBatch(ctx, misses)
	if err != nil {
		return nil, err
	}
	for j, vec := range embedded {
		vectors[missIdx[j]] = vec
		if len(vec) > 0 {
			c.cache.Put(misses[j], vec)
		}
	}

	if err := c.cache.Save(); err != nil {
		c.logger.Warn("embedding cache save failed", "error", err)
	}
	return vectors, nil
}
