// Package storage persists the document and its versions as JSON files in a data directory.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/jonathan/resume-editor/internal/schemas"
	"github.com/jonathan/resume-editor/internal/types"
)

// FileStore keeps one document in <dir>/<id>.json and its versions in
// <dir>/<id>.versions.json. Writes replace files atomically.
type FileStore struct {
	dir        string
	documentID string

	mu sync.Mutex
}

// NewFileStore creates dir if needed and returns a store for the given document.
func NewFileStore(dir, documentID string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileStore{dir: dir, documentID: documentID}, nil
}

// DocumentPath is the file holding the autosaved document.
func (s *FileStore) DocumentPath() string {
	return filepath.Join(s.dir, s.documentID+".json")
}

// VersionsPath is the file holding the version list.
func (s *FileStore) VersionsPath() string {
	return filepath.Join(s.dir, s.documentID+".versions.json")
}

// Persist implements autosave.Persister.
func (s *FileStore) Persist(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeAtomic(s.DocumentPath(), data)
}

// Load implements autosave.Persister. A missing file yields nil data.
func (s *FileStore) Load(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readOptional(s.DocumentPath())
}

// SaveVersion inserts or replaces a version.
func (s *FileStore) SaveVersion(_ context.Context, v types.Version) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.loadVersions()
	if err != nil {
		return err
	}
	replaced := false
	for i := range list {
		if list[i].ID == v.ID {
			list[i] = v
			replaced = true
			break
		}
	}
	if !replaced {
		list = append(list, v)
	}
	return s.writeVersions(list)
}

// DeleteVersion removes a version. Deleting a missing version is not an error.
func (s *FileStore) DeleteVersion(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.loadVersions()
	if err != nil {
		return err
	}
	out := list[:0]
	for _, v := range list {
		if v.ID != id {
			out = append(out, v)
		}
	}
	return s.writeVersions(out)
}

// LoadVersions returns the stored versions in creation order.
func (s *FileStore) LoadVersions(_ context.Context) ([]types.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadVersions()
}

func (s *FileStore) loadVersions() ([]types.Version, error) {
	data, err := readOptional(s.VersionsPath())
	if err != nil || data == nil {
		return nil, err
	}
	list, err := schemas.DecodeVersions(data)
	if err != nil {
		return nil, fmt.Errorf("invalid versions file %s: %w", s.VersionsPath(), err)
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

func (s *FileStore) writeVersions(list []types.Version) error {
	if list == nil {
		list = []types.Version{}
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal versions: %w", err)
	}
	return writeAtomic(s.VersionsPath(), data)
}

func readOptional(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// writeAtomic writes through a temp file in the same directory and renames it into place.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".save-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}

	success = true
	return nil
}
