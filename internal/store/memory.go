package store

import (
	"context"
	"sync"

	"coverletter/internal/types"
)

// MemoryStore keeps the list in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	letters []types.SavedLetter
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{letters: []types.SavedLetter{}}
}

func (s *MemoryStore) Load(ctx context.Context) ([]types.SavedLetter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.SavedLetter{}, s.letters...), nil
}

func (s *MemoryStore) Save(ctx context.Context, letters []types.SavedLetter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.letters = append([]types.SavedLetter{}, letters...)
	return nil
}
