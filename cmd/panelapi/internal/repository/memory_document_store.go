package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/Infinity2209/user/cmd/panelapi/internal/db/bunx"
)

// MemoryDocumentStore keeps collections in process memory. It is owned by
// whoever constructs it; nothing is shared between instances.
type MemoryDocumentStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
	newID       func() string
}

type memoryCollection struct {
	records []Record
	index   map[string]int
}

// MemoryOption configures a MemoryDocumentStore.
type MemoryOption func(*MemoryDocumentStore)

// WithIDGenerator overrides the id source (UUIDv7 by default).
func WithIDGenerator(fn func() string) MemoryOption {
	return func(s *MemoryDocumentStore) {
		s.newID = fn
	}
}

// NewMemoryDocumentStore creates an empty in-memory store.
func NewMemoryDocumentStore(opts ...MemoryOption) *MemoryDocumentStore {
	s := &MemoryDocumentStore{
		collections: make(map[string]*memoryCollection),
		newID:       bunx.NewUUIDv7,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// collection returns the named collection, creating it when create is set. Callers hold mu.
func (s *MemoryDocumentStore) collection(name string, create bool) *memoryCollection {
	c, ok := s.collections[name]
	if !ok && create {
		c = &memoryCollection{index: make(map[string]int)}
		s.collections[name] = c
	}
	return c
}

// FindAll returns a snapshot of the collection in insertion order.
func (s *MemoryDocumentStore) FindAll(ctx context.Context, collection string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.collection(collection, false)
	if c == nil {
		return []Record{}, nil
	}
	return cloneAll(c.records), nil
}

// FindByID looks up a record by id.
func (s *MemoryDocumentStore) FindByID(ctx context.Context, collection, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.collection(collection, false)
	if c == nil {
		return nil, ErrNotFound
	}
	i, ok := c.index[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c.records[i].Clone(), nil
}

// Insert assigns a fresh id and appends the record.
func (s *MemoryDocumentStore) Insert(ctx context.Context, collection string, data Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(collection, true)
	id, err := s.freshID(c)
	if err != nil {
		return nil, err
	}

	rec := data.Clone()
	if rec == nil {
		rec = Record{}
	}
	rec[IDField] = id
	c.append(rec)
	return rec.Clone(), nil
}

// freshID draws ids until one is unused in c.
func (s *MemoryDocumentStore) freshID(c *memoryCollection) (string, error) {
	const maxAttempts = 16
	for i := 0; i < maxAttempts; i++ {
		id := s.newID()
		if _, taken := c.index[id]; !taken && id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("generate id: %d attempts collided", maxAttempts)
}

// Update shallow-merges patch into the stored record.
func (s *MemoryDocumentStore) Update(ctx context.Context, collection, id string, patch Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(collection, false)
	if c == nil {
		return nil, ErrNotFound
	}
	i, ok := c.index[id]
	if !ok {
		return nil, ErrNotFound
	}
	c.records[i].Merge(patch)
	return c.records[i].Clone(), nil
}

// Delete removes the record and returns it.
func (s *MemoryDocumentStore) Delete(ctx context.Context, collection, id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(collection, false)
	if c == nil {
		return nil, ErrNotFound
	}
	i, ok := c.index[id]
	if !ok {
		return nil, ErrNotFound
	}
	removed := c.records[i]
	c.records = append(c.records[:i], c.records[i+1:]...)
	c.reindex()
	return removed, nil
}

// Import appends records keeping their ids.
func (s *MemoryDocumentStore) Import(ctx context.Context, collection string, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(collection, true)
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		id := r.ID()
		if id == "" {
			continue
		}
		if _, taken := c.index[id]; taken {
			return fmt.Errorf("import %s/%s: %w", collection, id, ErrDuplicate)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("import %s/%s: %w", collection, id, ErrDuplicate)
		}
		seen[id] = struct{}{}
	}

	for _, r := range records {
		rec := r.Clone()
		if rec.ID() == "" {
			id, err := s.freshID(c)
			if err != nil {
				return err
			}
			rec[IDField] = id
		}
		c.append(rec)
	}
	return nil
}

// Count returns the number of records in the collection.
func (s *MemoryDocumentStore) Count(ctx context.Context, collection string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.collection(collection, false)
	if c == nil {
		return 0, nil
	}
	return len(c.records), nil
}

func (c *memoryCollection) append(rec Record) {
	c.index[rec.ID()] = len(c.records)
	c.records = append(c.records, rec)
}

func (c *memoryCollection) reindex() {
	c.index = make(map[string]int, len(c.records))
	for i, r := range c.records {
		c.index[r.ID()] = i
	}
}
