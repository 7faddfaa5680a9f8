package policystore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore keeps a single snapshot in one file. Saves replace the file
// atomically, so a crash mid-write leaves the previous snapshot intact.
type FileStore struct {
	path string
}

// NewFileStore returns a store writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Save(ctx context.Context, body []byte) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Snapshot{}, fmt.Errorf("failed to create policy directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to create temp policy file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(body); err != nil {
		_ = tmp.Close()
		return Snapshot{}, fmt.Errorf("failed to write policy: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return Snapshot{}, fmt.Errorf("failed to sync policy: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Snapshot{}, fmt.Errorf("failed to close policy: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return Snapshot{}, fmt.Errorf("failed to replace policy: %w", err)
	}

	info, err := os.Stat(s.path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to stat policy: %w", err)
	}
	return Snapshot{Version: info.ModTime().UTC().Format("20060102T150405.000000000Z"), Size: len(body), CreatedAt: info.ModTime().UTC()}, nil
}

func (s *FileStore) Latest(ctx context.Context) ([]byte, Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, Snapshot{}, err
	}
	body, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return nil, Snapshot{}, fmt.Errorf("failed to read policy: %w", err)
	}
	snap := Snapshot{Size: len(body)}
	if info, err := os.Stat(s.path); err == nil {
		snap.CreatedAt = info.ModTime().UTC()
		snap.Version = snap.CreatedAt.Format("20060102T150405.000000000Z")
	}
	return body, snap, nil
}

func (s *FileStore) Close() error { return nil }
