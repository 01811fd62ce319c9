package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	path    string
	keep    int
	entropy *rand.Rand
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		path:    dbPath,
		keep:    DefaultKeepVersions,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id          TEXT PRIMARY KEY,
		key         TEXT NOT NULL,
		body        BLOB NOT NULL,
		version     INTEGER NOT NULL DEFAULT 1,
		supersedes  TEXT,
		created_at  TEXT NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_records_key_version ON records(key, version);
	CREATE INDEX IF NOT EXISTS idx_records_created ON records(created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Put(ctx context.Context, p PutParams) (*Entry, error) {
	if p.Key == "" {
		return nil, fmt.Errorf("key is required")
	}
	now := time.Now().UTC()
	id := s.newID()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Check for existing latest version
	var prevID string
	var prevVersion int
	err = tx.QueryRowContext(ctx,
		`SELECT id, version FROM records WHERE key = ? ORDER BY version DESC LIMIT 1`,
		p.Key).Scan(&prevID, &prevVersion)

	version := 1
	var supersedes *string
	if err == nil {
		version = prevVersion + 1
		supersedes = &prevID
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read latest version: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO records (id, key, body, version, supersedes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, p.Key, p.Body, version, supersedes, now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}

	// Prune versions older than the retention window
	if s.keep > 0 && version > s.keep {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM records WHERE key = ? AND version <= ?`, p.Key, version-s.keep)
		if err != nil {
			return nil, fmt.Errorf("prune versions: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	e := &Entry{
		ID:        id,
		Key:       p.Key,
		Body:      p.Body,
		Version:   version,
		CreatedAt: now,
	}
	if supersedes != nil {
		e.Supersedes = *supersedes
	}
	return e, nil
}

func (s *SQLiteStore) Get(ctx context.Context, p GetParams) ([]Entry, error) {
	var query string
	var args []interface{}

	switch {
	case p.History:
		query = `SELECT id, key, body, version, supersedes, created_at
				 FROM records WHERE key = ? ORDER BY version DESC`
		args = []interface{}{p.Key}
	case p.Version > 0:
		query = `SELECT id, key, body, version, supersedes, created_at
				 FROM records WHERE key = ? AND version = ? LIMIT 1`
		args = []interface{}{p.Key, p.Version}
	default:
		query = `SELECT id, key, body, version, supersedes, created_at
				 FROM records WHERE key = ? ORDER BY version DESC LIMIT 1`
		args = []interface{}{p.Key}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p.Key)
	}
	return entries, nil
}

func (s *SQLiteStore) Rm(ctx context.Context, p RmParams) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE key = ?`, p.Key)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, p.Key)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row scanner) (Entry, error) {
	var e Entry
	var supersedes sql.NullString
	var createdAt string

	if err := row.Scan(&e.ID, &e.Key, &e.Body, &e.Version, &supersedes, &createdAt); err != nil {
		return e, err
	}
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	if supersedes.Valid {
		e.Supersedes = supersedes.String
	}
	return e, nil
}
