package policystore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS policy_versions (
	version_id  TEXT PRIMARY KEY,
	parent_id   TEXT,
	body        BLOB NOT NULL,
	size        INTEGER NOT NULL,
	created_at  TEXT NOT NULL,
	FOREIGN KEY (parent_id) REFERENCES policy_versions(version_id)
);

CREATE TABLE IF NOT EXISTS active_policy (
	id          INTEGER PRIMARY KEY CHECK (id = 1),
	version_id  TEXT NOT NULL,
	FOREIGN KEY (version_id) REFERENCES policy_versions(version_id)
);
`

// SQLiteStore keeps every saved table as a version and tracks which one is
// active. Latest always returns the active version.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens the database at path and creates the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save inserts a new version whose parent is the active one, then moves the
// active pointer to it.
func (s *SQLiteStore) Save(ctx context.Context, body []byte) (Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var parent sql.NullString
	err = tx.QueryRowContext(ctx, `SELECT version_id FROM active_policy WHERE id = 1`).Scan(&parent)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("get active: %w", err)
	}

	snap := Snapshot{
		Version:   uuid.New().String(),
		ParentID:  parent.String,
		Size:      len(body),
		CreatedAt: s.now().UTC(),
	}

	var parentPtr any
	if snap.ParentID != "" {
		parentPtr = snap.ParentID
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO policy_versions (version_id, parent_id, body, size, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		snap.Version, parentPtr, body, snap.Size, snap.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Snapshot{}, fmt.Errorf("insert version: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO active_policy (id, version_id) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET version_id = excluded.version_id`,
		snap.Version,
	)
	if err != nil {
		return Snapshot{}, fmt.Errorf("set active: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Snapshot{}, fmt.Errorf("commit: %w", err)
	}
	return snap, nil
}

func (s *SQLiteStore) Latest(ctx context.Context) ([]byte, Snapshot, error) {
	var versionID string
	err := s.db.QueryRowContext(ctx, `SELECT version_id FROM active_policy WHERE id = 1`).Scan(&versionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return nil, Snapshot{}, fmt.Errorf("get active: %w", err)
	}
	return s.Get(ctx, versionID)
}

// Get returns one stored version.
func (s *SQLiteStore) Get(ctx context.Context, versionID string) ([]byte, Snapshot, error) {
	var (
		body    []byte
		parent  sql.NullString
		created string
		snap    Snapshot
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT version_id, parent_id, body, size, created_at
		 FROM policy_versions WHERE version_id = ?`, versionID,
	).Scan(&snap.Version, &parent, &body, &snap.Size, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, Snapshot{}, fmt.Errorf("%w: %s", ErrUnknownVersion, versionID)
	}
	if err != nil {
		return nil, Snapshot{}, fmt.Errorf("get version %s: %w", versionID, err)
	}
	snap.ParentID = parent.String
	snap.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return body, snap, nil
}

// List returns up to limit versions, newest first.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT version_id, parent_id, size, created_at
		 FROM policy_versions ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var (
			snap    Snapshot
			parent  sql.NullString
			created string
		)
		if err := rows.Scan(&snap.Version, &parent, &snap.Size, &created); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		snap.ParentID = parent.String
		snap.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Active returns the id of the active version.
func (s *SQLiteStore) Active(ctx context.Context) (string, error) {
	var versionID string
	err := s.db.QueryRowContext(ctx, `SELECT version_id FROM active_policy WHERE id = 1`).Scan(&versionID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoSnapshot
	}
	if err != nil {
		return "", fmt.Errorf("get active: %w", err)
	}
	return versionID, nil
}

// Rollback points the active pointer at an earlier version.
func (s *SQLiteStore) Rollback(ctx context.Context, versionID string) error {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM policy_versions WHERE version_id = ?`, versionID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check version: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownVersion, versionID)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO active_policy (id, version_id) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET version_id = excluded.version_id`,
		versionID,
	)
	if err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}
