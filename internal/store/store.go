// Package store persists the saved-letters list. The whole list is one JSON
// document stored under a fixed key.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"coverletter/internal/config"
	"coverletter/internal/errors"
	"coverletter/internal/types"
)

// Key names the saved-letters document in every backend
const Key = "savedCoverLetters"

// Store loads and replaces the saved-letters list
type Store interface {
	Load(ctx context.Context) ([]types.SavedLetter, error)
	Save(ctx context.Context, letters []types.SavedLetter) error
}

// New creates the backend selected by cfg.Backend. Backends holding
// connections also implement io.Closer.
func New(ctx context.Context, cfg config.StorageConfig, logger *errors.Logger) (Store, error) {
	switch cfg.Backend {
	case "file":
		logger.Debug("Using file letter store", "dir", cfg.File.Dir)
		return NewFileStore(cfg.File.Dir), nil
	case "redis":
		logger.Debug("Using redis letter store", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)
		s, err := NewRedisStore(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory":
		logger.Debug("Using in-memory letter store")
		return NewMemoryStore(), nil
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("unsupported storage backend: %s", cfg.Backend), nil)
	}
}

// decode parses a stored document; empty or null documents are an empty list
func decode(data []byte) ([]types.SavedLetter, error) {
	letters := []types.SavedLetter{}
	if len(data) == 0 {
		return letters, nil
	}
	if err := json.Unmarshal(data, &letters); err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeInvalidFormat, "saved letters are not valid JSON", err)
	}
	if letters == nil {
		letters = []types.SavedLetter{}
	}
	for i := range letters {
		letters[i].Analysis.Normalize()
	}
	return letters, nil
}

func encode(letters []types.SavedLetter) ([]byte, error) {
	if letters == nil {
		letters = []types.SavedLetter{}
	}
	data, err := json.MarshalIndent(letters, "", "  ")
	if err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeStorageFailed, "failed to encode saved letters", err)
	}
	return data, nil
}
