// Package logstore persists interaction records and fans them out to live
// watchers. Everything here is best-effort with respect to the request that
// produced the record: a store failure is reported to the operational log and
// never reaches the caller.
package logstore

import (
	"context"
	"sync"

	"waypoint/internal/assistant"
)

// Store is the durable side of the logger.
type Store interface {
	Insert(ctx context.Context, rec *assistant.Interaction) error
	Recent(ctx context.Context, limit int) ([]*assistant.Interaction, error)
	Close() error
}

const memoryStoreCap = 1024

// MemoryStore keeps the most recent records in a ring. Used when no database
// is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	recs []*assistant.Interaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Insert(_ context.Context, rec *assistant.Interaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
	if len(s.recs) > memoryStoreCap {
		s.recs = s.recs[len(s.recs)-memoryStoreCap:]
	}
	return nil
}

func (s *MemoryStore) Recent(_ context.Context, limit int) ([]*assistant.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.recs) {
		limit = len(s.recs)
	}
	out := make([]*assistant.Interaction, limit)
	for i := 0; i < limit; i++ {
		out[i] = s.recs[len(s.recs)-1-i]
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
