package workflow

import (
	"context"
	"sync"
)

// Store keeps running instances keyed by workflow id. Implementations must
// return copies so callers never share state with the store.
type Store interface {
	Get(ctx context.Context, id string) (*Context, error)
	Save(ctx context.Context, wc *Context) error
	// Update replaces an existing instance and returns ErrWorkflowNotFound
	// when it is no longer stored. Drivers use it so a concurrent Delete
	// is never undone.
	Update(ctx context.Context, wc *Context) error
	// Delete reports whether an instance was removed.
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]*Context, error)
}

// MemoryStore is the default process-local Store.
type MemoryStore struct {
	items map[string]*Context
	mu    sync.RWMutex
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]*Context)}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Context, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wc, ok := s.items[id]
	if !ok {
		return nil, ErrWorkflowNotFound
	}
	return wc.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, wc *Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[wc.WorkflowID] = wc.Clone()
	return nil
}

func (s *MemoryStore) Update(_ context.Context, wc *Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[wc.WorkflowID]; !ok {
		return ErrWorkflowNotFound
	}
	s.items[wc.WorkflowID] = wc.Clone()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.items[id]
	delete(s.items, id)
	return ok, nil
}

func (s *MemoryStore) List(_ context.Context) ([]*Context, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Context, 0, len(s.items))
	for _, wc := range s.items {
		out = append(out, wc.Clone())
	}
	return out, nil
}
