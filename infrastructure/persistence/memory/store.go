// Package memory provides an in-process row store. Data lives for the life
// of the process; it backs STORE_DRIVER=memory and tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"labeltree/domain/core/entities"
)

var (
	// ErrDuplicateID is returned when a record with the same id exists.
	ErrDuplicateID = errors.New("memory store: duplicate node id")
	// ErrParentMissing is returned when a record references an unknown parent.
	ErrParentMissing = errors.New("memory store: parent node does not exist")
)

// Store implements ports.NodeStore with insertion-ordered records.
type Store struct {
	mu      sync.RWMutex
	records []*entities.NodeRecord
	byID    map[string]int
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		records: make([]*entities.NodeRecord, 0),
		byID:    make(map[string]int),
	}
}

// ScanAll returns every record in insertion order.
func (s *Store) ScanAll(ctx context.Context) ([]*entities.NodeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entities.NodeRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

// GetByID returns (nil, nil) when the id is unknown.
func (s *Store) GetByID(ctx context.Context, id string) (*entities.NodeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if i, ok := s.byID[id]; ok {
		return s.records[i], nil
	}
	return nil, nil
}

// Insert appends a record, enforcing unique ids and existing parents under
// one lock so the check and the write are atomic.
func (s *Store) Insert(ctx context.Context, record *entities.NodeRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := record.ID().String()
	if _, exists := s.byID[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	if parent := record.ParentIDString(); parent != nil {
		if _, ok := s.byID[*parent]; !ok {
			return fmt.Errorf("%w: %s", ErrParentMissing, *parent)
		}
	}

	s.byID[id] = len(s.records)
	s.records = append(s.records, record)
	return nil
}

// Load appends records without integrity checks. It exists to seed states
// the API cannot produce, such as dangling parent references.
func (s *Store) Load(records ...*entities.NodeRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range records {
		id := rec.ID().String()
		if _, exists := s.byID[id]; !exists {
			s.byID[id] = len(s.records)
		}
		s.records = append(s.records, rec)
	}
}

// Count returns the number of stored records.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Ping implements ports.HealthChecker.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}
