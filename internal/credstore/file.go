package credstore

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileStore keeps one JSON file per entry in a directory.
//
// SECURITY:
//   - the directory is created with 0700 permissions
//   - files are written with 0600 permissions
//   - writes go to a temp file that is renamed over the target, so a reader
//     never observes a partially written entry
type FileStore struct {
	dir string
}

// fileEntry is the on-disk form of an entry.
type fileEntry struct {
	Key       string    `json:"key"`
	Value     []byte    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("file store directory is required")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create credential directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the storage directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Put atomically writes the entry.
func (s *FileStore) Put(key string, value []byte) error {
	data, err := json.Marshal(fileEntry{Key: key, Value: value, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return &StoreError{Operation: "put", Key: key, Backend: s.Name(), Cause: err}
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return &StoreError{Operation: "put", Key: key, Backend: s.Name(), Cause: err}
	}
	tmpName := tmp.Name()
	cleanup := func(cause error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return &StoreError{Operation: "put", Key: key, Backend: s.Name(), Cause: cause}
	}

	if err := tmp.Chmod(0600); err != nil {
		return cleanup(err)
	}
	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return &StoreError{Operation: "put", Key: key, Backend: s.Name(), Cause: err}
	}
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		_ = os.Remove(tmpName)
		return &StoreError{Operation: "put", Key: key, Backend: s.Name(), Cause: err}
	}
	return nil
}

// Get reads the entry.
func (s *FileStore) Get(key string) ([]byte, error) {
	// #nosec G304 -- path is derived from a hash of the key
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, &StoreError{Operation: "get", Key: key, Backend: s.Name(), Cause: err}
	}

	var entry fileEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, &StoreError{Operation: "get", Key: key, Backend: s.Name(), Cause: fmt.Errorf("failed to decode entry: %w", err)}
	}
	if entry.Key != key {
		return nil, &StoreError{Operation: "get", Key: key, Backend: s.Name(), Cause: errors.New("entry key mismatch")}
	}
	return entry.Value, nil
}

// Delete removes the entry file.
func (s *FileStore) Delete(key string) error {
	err := os.Remove(s.path(key))
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return &StoreError{Operation: "delete", Key: key, Backend: s.Name(), Cause: err}
}

func (s *FileStore) Name() string {
	return "file"
}

// path maps a key to a filesystem-safe file name.
func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, fileName(key))
}

func fileName(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:16]) + ".json"
}
