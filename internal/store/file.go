package store

import (
	"context"
	"os"
	"path/filepath"

	"coverletter/internal/errors"
	"coverletter/internal/types"
)

// FileStore keeps the list in <dir>/savedCoverLetters.json
type FileStore struct {
	path string
}

// NewFileStore returns a store rooted at dir. The directory is created on first save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, Key+".json")}
}

// Path returns the file backing the store
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the list; a missing file is an empty list
func (s *FileStore) Load(ctx context.Context) ([]types.SavedLetter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []types.SavedLetter{}, nil
		}
		return nil, errors.NewStorageError(errors.ErrCodeFileNotReadable, "failed to read saved letters", err).
			WithContext("path", s.path)
	}
	return decode(data)
}

// Save replaces the file atomically by writing a temp file and renaming it
func (s *FileStore) Save(ctx context.Context, letters []types.SavedLetter) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encode(letters)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return s.writeError(err)
	}

	tmp, err := os.CreateTemp(dir, "."+Key+"-*.tmp")
	if err != nil {
		return s.writeError(err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return s.writeError(err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return s.writeError(err)
	}
	if err := tmp.Close(); err != nil {
		return s.writeError(err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return s.writeError(err)
	}
	return nil
}

func (s *FileStore) writeError(err error) error {
	return errors.NewStorageError(errors.ErrCodeStorageFailed, "failed to write saved letters", err).
		WithContext("path", s.path)
}
