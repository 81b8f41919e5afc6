package personality

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/jmcastell/lorekeeper/internal/kv"
	"github.com/jmcastell/lorekeeper/internal/model"
)

const (
	profilePrefix = "personality:"
	profileIndex  = "system_personalities"
)

// ErrProfileNotFound is returned when no profile exists for a system.
var ErrProfileNotFound = errors.New("personality: profile not found")

// Manager stores and serves personality profiles. The read cache is owned by
// the manager and lives exactly as long as it does; there is no process-wide
// shared state.
type Manager struct {
	kv        kv.Store
	extractor *Extractor
	logger    *slog.Logger

	mu    sync.RWMutex
	cache map[string]*Profile
}

// NewManager creates a manager over the given backend.
func NewManager(backend kv.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		kv:        backend,
		extractor: NewExtractor(),
		logger:    logger,
		cache:     make(map[string]*Profile),
	}
}

// Put stores a profile and registers its system in the index.
func (m *Manager) Put(ctx context.Context, profile *Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile %s: %w", profile.System, err)
	}

	err = m.kv.Batch(ctx, func(b kv.Batch) error {
		b.HSet(profilePrefix+profile.System, map[string]string{"data": string(data)})
		b.SAdd(profileIndex, profile.System)
		return nil
	})
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.cache[profile.System] = profile
	m.mu.Unlock()
	return nil
}

// Get loads a profile, preferring the in-process cache.
func (m *Manager) Get(ctx context.Context, system string) (*Profile, error) {
	m.mu.RLock()
	cached, ok := m.cache[system]
	m.mu.RUnlock()
	if ok {
		return cached, nil
	}

	data, err := m.kv.HGet(ctx, profilePrefix+system, "data")
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, system)
		}
		return nil, err
	}

	var profile Profile
	if err := json.Unmarshal([]byte(data), &profile); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", system, err)
	}

	m.mu.Lock()
	m.cache[system] = &profile
	m.mu.Unlock()
	return &profile, nil
}

// List returns the systems with stored profiles, sorted.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	systems, err := m.kv.SMembers(ctx, profileIndex)
	if err != nil {
		return nil, err
	}
	sort.Strings(systems)
	return systems, nil
}

// Delete removes a profile, its index entry, and the cached copy in one
// atomic batch.
func (m *Manager) Delete(ctx context.Context, system string) error {
	err := m.kv.Batch(ctx, func(b kv.Batch) error {
		b.SRem(profileIndex, system)
		b.Del(profilePrefix + system)
		return nil
	})
	if err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.cache, system)
	m.mu.Unlock()
	return nil
}

// ExtractAndStore derives a profile from a system's chunks and persists it.
func (m *Manager) ExtractAndStore(ctx context.Context, chunks []*model.Chunk, system string) (*Profile, error) {
	m.logger.Info("extracting personality profile", "system", system, "chunks", len(chunks))
	profile := m.extractor.Extract(chunks, system)
	if err := m.Put(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// Prompt renders a system-voiced prompt preamble for a query.
func (m *Manager) Prompt(ctx context.Context, system, query, context_ string) (string, error) {
	profile, err := m.Get(ctx, system)
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(
		"You are %s. %s\nAnswer in a %s, %s tone, %s.\n\nQuestion: %s\n",
		profile.Name, profile.Description, profile.Tone, profile.Formality,
		profile.Perspective, query)
	if context_ != "" {
		prompt += "\nContext:\n" + context_ + "\n"
	}
	return prompt, nil
}

// ApplyFeedback nudges a profile's confidence up or down, clamped to
// [0.1, 1.0].
func (m *Manager) ApplyFeedback(ctx context.Context, system string, helpful bool) error {
	profile, err := m.Get(ctx, system)
	if err != nil {
		return err
	}

	if helpful {
		profile.Confidence = min(1.0, profile.Confidence+0.1)
	} else {
		profile.Confidence = max(0.1, profile.Confidence-0.1)
	}
	return m.Put(ctx, profile)
}
