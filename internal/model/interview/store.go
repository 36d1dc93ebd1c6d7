package interview

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SummarySource exposes the most recent lecture summary.
type SummarySource interface {
	Latest(ctx context.Context) (SummaryRecord, error)
}

// SummaryWriter stores new summary records.
type SummaryWriter interface {
	AddSummary(ctx context.Context, record SummaryRecord) error
}

// TurnLogger appends completed turns. Entries are never updated or deleted.
type TurnLogger interface {
	AppendTurn(ctx context.Context, entry TurnLogEntry) error
}

// MemoryStore implements SummarySource, SummaryWriter and TurnLogger in memory.
type MemoryStore struct {
	mu        sync.RWMutex
	summaries []SummaryRecord
	turns     []TurnLogEntry
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied summaries.
func NewMemoryStore(summaries ...SummaryRecord) *MemoryStore {
	return &MemoryStore{summaries: append([]SummaryRecord(nil), summaries...)}
}

// Latest returns the record with the greatest CreatedAt. On ties the record
// stored last wins.
func (s *MemoryStore) Latest(_ context.Context) (SummaryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.summaries) == 0 {
		return SummaryRecord{}, ErrNotFound
	}

	latest := s.summaries[0]
	for _, record := range s.summaries[1:] {
		if !record.CreatedAt.Before(latest.CreatedAt) {
			latest = record
		}
	}
	return latest, nil
}

// AddSummary stores a summary record, stamping CreatedAt when unset.
func (s *MemoryStore) AddSummary(_ context.Context, record SummaryRecord) error {
	if record.ID == "" {
		return fmt.Errorf("%w: summary id is required", ErrPersistence)
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	s.summaries = append(s.summaries, record)
	s.mu.Unlock()
	return nil
}

// AppendTurn appends a turn, stamping LoggedAt when unset.
func (s *MemoryStore) AppendTurn(_ context.Context, entry TurnLogEntry) error {
	if entry.LoggedAt.IsZero() {
		entry.LoggedAt = time.Now().UTC()
	}

	s.mu.Lock()
	s.turns = append(s.turns, entry)
	s.mu.Unlock()
	return nil
}

// Turns returns a copy of the logged turns in insertion order.
func (s *MemoryStore) Turns() []TurnLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]TurnLogEntry, len(s.turns))
	copy(copied, s.turns)
	return copied
}
