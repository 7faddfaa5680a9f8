// Package policystore keeps encoded value-table snapshots so a trained
// policy survives restarts.
package policystore

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNoSnapshot is returned by Latest when nothing has been saved yet.
var ErrNoSnapshot = errors.New("no policy snapshot")

// ErrUnknownVersion is returned by Rollback for a version that does not exist.
var ErrUnknownVersion = errors.New("unknown policy version")

// Snapshot describes one saved table.
type Snapshot struct {
	Version   string    `json:"version"`
	ParentID  string    `json:"parent_id,omitempty"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is a destination for encoded tables.
type Store interface {
	Save(ctx context.Context, body []byte) (Snapshot, error)
	Latest(ctx context.Context) ([]byte, Snapshot, error)
	Close() error
}

const (
	KindFile   = "file"
	KindSQLite = "sqlite"
)

// Open returns the store implementation named by kind.
func Open(kind, path string) (Store, error) {
	switch kind {
	case "", KindFile:
		if path == "" {
			path = "qtable.cbor"
		}
		return NewFileStore(path), nil
	case KindSQLite:
		if path == "" {
			path = "policy.db"
		}
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown policy store %q", kind)
	}
}
