package outbox

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrMessageNotFound = errors.New("outbox message not found")

// MemoryStore keeps outbox rows in insertion order.
type MemoryStore struct {
	mu       sync.Mutex
	order    []string
	messages map[string]Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{messages: make(map[string]Message)}
}

// Append adds rows; an id that is already stored is left untouched.
func (s *MemoryStore) Append(messages ...Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, message := range messages {
		if _, exists := s.messages[message.ID]; exists {
			continue
		}
		message.Payload = append([]byte(nil), message.Payload...)
		if message.Status == "" {
			message.Status = StatusPending
		}
		s.messages[message.ID] = message
		s.order = append(s.order, message.ID)
	}
}

func (s *MemoryStore) ListPending(_ context.Context, limit int) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}
	items := make([]Message, 0, limit)
	for _, id := range s.order {
		message := s.messages[id]
		if message.Status != StatusPending {
			continue
		}
		items = append(items, message)
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

func (s *MemoryStore) MarkSent(_ context.Context, id string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	message, ok := s.messages[id]
	if !ok {
		return ErrMessageNotFound
	}
	at := sentAt.UTC()
	message.SentAt = &at
	message.Status = StatusSent
	s.messages[id] = message
	return nil
}

func (s *MemoryStore) MarkFailed(_ context.Context, id string, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	message, ok := s.messages[id]
	if !ok {
		return ErrMessageNotFound
	}
	message.Attempts++
	message.LastError = reason
	s.messages[id] = message
	return nil
}

func (s *MemoryStore) MarkDead(_ context.Context, id string, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	message, ok := s.messages[id]
	if !ok {
		return ErrMessageNotFound
	}
	message.Status = StatusDead
	message.LastError = reason
	s.messages[id] = message
	return nil
}

func (s *MemoryStore) PurgeSent(_ context.Context, sentBefore time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var purged int64
	kept := s.order[:0]
	for _, id := range s.order {
		message := s.messages[id]
		if message.SentAt != nil && message.SentAt.Before(sentBefore) {
			delete(s.messages, id)
			purged++
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return purged, nil
}

// All returns every row, sent or not, in insertion order.
func (s *MemoryStore) All() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]Message, 0, len(s.order))
	for _, id := range s.order {
		items = append(items, s.messages[id])
	}
	return items
}
