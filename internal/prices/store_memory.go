package prices

import (
	"context"
	"sync"
)

type MemStore struct {
	mu      sync.RWMutex
	doc     *Catalog
	saves   int
	saveErr error
}

func NewMemStore() *MemStore {
	return &MemStore{}
}

// NewMemStoreWith starts with c already persisted.
func NewMemStoreWith(c Catalog) *MemStore {
	cp := c.Clone()
	return &MemStore{doc: &cp}
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) Load(ctx context.Context) (Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.doc == nil {
		return Catalog{}, ErrNoDocument
	}
	return s.doc.Clone(), nil
}

func (s *MemStore) Save(ctx context.Context, c Catalog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saveErr != nil {
		return s.saveErr
	}
	cp := c.Clone()
	s.doc = &cp
	s.saves++
	return nil
}

// FailSaves makes every following Save return err; nil restores normal saves.
func (s *MemStore) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

func (s *MemStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
