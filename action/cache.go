// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

// Package action implements the nine cryptographic action handlers of
// spec.md §4.2: pure functions of (action parameters, local store)
// that produce signed messages. Handlers never touch the board; the
// session loop is responsible for posting what they return.
package action

import (
	"fmt"
	"sync"

	"github.com/sequentech/braid/types"
)

// Cache persists the bytes of an action's freshly-computed artifact
// between the moment it is drawn (which may involve fresh randomness:
// a channel key, a dealer's polynomial, a shuffle permutation) and the
// moment the board confirms the post. Without it, a session step that
// runs again before a post is confirmed would draw different
// randomness and produce a different artifact, violating the
// idempotency guarantee of spec.md §4.5 ("re-emitting the same action
// produces the same bytes"). Once an artifact is durably posted and
// ingested into the local store, the cache is no longer consulted —
// the store (or, for a channel's own secret, the board's own posted
// EncryptedSecret field) is ground truth from then on.
type Cache interface {
	Save(cfgHash types.Hash, key string, data []byte) error
	Load(cfgHash types.Hash, key string) ([]byte, bool, error)
}

// MemoryCache is an in-process Cache, adequate for tests and for a
// trustee willing to redraw in-flight randomness across a process
// restart (accepting a brief protocol stall rather than data loss).
type MemoryCache struct {
	mu   sync.Mutex
	data map[types.Hash]map[string][]byte
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{data: make(map[types.Hash]map[string][]byte)}
}

func (c *MemoryCache) Save(cfgHash types.Hash, key string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data[cfgHash] == nil {
		c.data[cfgHash] = make(map[string][]byte)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	c.data[cfgHash][key] = cp
	return nil
}

func (c *MemoryCache) Load(cfgHash types.Hash, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[cfgHash][key]
	return b, ok, nil
}

// cachedOrCompute returns the cached bytes for (cfgHash, key) if
// present, otherwise runs compute, caches its result, and returns it.
func (h *Handler) cachedOrCompute(cfgHash types.Hash, key string, compute func() ([]byte, error)) ([]byte, error) {
	if b, ok, err := h.Cache.Load(cfgHash, key); err != nil {
		return nil, fmt.Errorf("action: loading cache entry %q: %w", key, err)
	} else if ok {
		return b, nil
	}
	b, err := compute()
	if err != nil {
		return nil, err
	}
	if err := h.Cache.Save(cfgHash, key, b); err != nil {
		return nil, fmt.Errorf("action: saving cache entry %q: %w", key, err)
	}
	return b, nil
}
