// Package dedup provides the durable processed-event sets behind the
// idempotency guard.
package dedup

import (
	"context"
	"sync"
	"time"

	"inkwell/internal/shared/events"
)

type memoryEntry struct {
	hash      string
	expiresAt time.Time
}

// Memory is a process-local store for tests and single-binary runs.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *Memory) Processed(_ context.Context, eventID string, payloadHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[eventID]
	if !ok || !entry.expiresAt.After(m.now()) {
		return false, nil
	}
	if entry.hash != payloadHash {
		return false, events.ErrIdempotencyKeyConflict
	}
	return true, nil
}

func (m *Memory) MarkProcessed(_ context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.entries[eventID]; ok && entry.expiresAt.After(m.now()) {
		return false, nil
	}
	m.entries[eventID] = memoryEntry{hash: payloadHash, expiresAt: expiresAt}
	return true, nil
}
