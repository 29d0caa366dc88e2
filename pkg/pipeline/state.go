package pipeline

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	kio "github.com/modelyard/modelyard/pkg/utils/io"
	_ "modernc.org/sqlite"
)

// StateHome is the directory holding runner state, relative to the
// pipeline root.
const StateHome = ".yard"

// StateDB remembers file hashes and finished stage executions between
// pipeline runs.
type StateDB struct {
	db *sql.DB
}

// OpenState opens the state database under root, creating it as needed.
func OpenState(root string) (*StateDB, error) {
	home := filepath.Join(root, StateHome)
	if err := os.MkdirAll(home, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", filepath.Join(home, "state.db"))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &StateDB{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *StateDB) migrate() error {
	if _, err := s.db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		return err
	}
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS file_hash (
  path TEXT PRIMARY KEY,
  size INTEGER NOT NULL,
  mtime_ns INTEGER NOT NULL,
  sha256 TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS stage_run (
  stage TEXT PRIMARY KEY,
  fingerprint TEXT NOT NULL,
  finished_at DATETIME NOT NULL
);
`)
	return err
}

func (s *StateDB) Close() error {
	return s.db.Close()
}

// FileHash returns the hex sha256 of the file content at path.
//
// Hashes are cached. A file is reread only when its size or mtime
// differs from the cached entry.
func (s *StateDB) FileHash(ctx context.Context, path string) (string, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if stat.IsDir() {
		return "", fmt.Errorf("%s is a directory, not a file", path)
	}
	size, mtime := stat.Size(), stat.ModTime().UnixNano()

	var (
		cachedSize  int64
		cachedMtime int64
		cachedHash  string
	)
	err = s.db.QueryRowContext(
		ctx, `SELECT size, mtime_ns, sha256 FROM file_hash WHERE path = ?;`, path,
	).Scan(&cachedSize, &cachedMtime, &cachedHash)
	if err == nil && cachedSize == size && cachedMtime == mtime {
		return cachedHash, nil
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	chr := kio.NewSHA256Reader(f)
	if _, err := io.Copy(io.Discard, chr); err != nil {
		return "", err
	}
	hash := hex.EncodeToString(chr.Sum())

	_, err = s.db.ExecContext(ctx, `
INSERT INTO file_hash(path, size, mtime_ns, sha256) VALUES(?, ?, ?, ?)
ON CONFLICT(path) DO UPDATE SET
  size=excluded.size,
  mtime_ns=excluded.mtime_ns,
  sha256=excluded.sha256;
`, path, size, mtime, hash)
	if err != nil {
		return "", err
	}
	return hash, nil
}

// LastFingerprint returns the fingerprint of the last finished execution
// of a stage, if any.
func (s *StateDB) LastFingerprint(ctx context.Context, stage string) (string, bool, error) {
	var fp string
	err := s.db.QueryRowContext(
		ctx, `SELECT fingerprint FROM stage_run WHERE stage = ?;`, stage,
	).Scan(&fp)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return fp, true, nil
}

// RecordStageRun stores the fingerprint of a finished stage execution.
func (s *StateDB) RecordStageRun(ctx context.Context, stage string, fingerprint string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO stage_run(stage, fingerprint, finished_at) VALUES(?, ?, ?)
ON CONFLICT(stage) DO UPDATE SET
  fingerprint=excluded.fingerprint,
  finished_at=excluded.finished_at;
`, stage, fingerprint, time.Now().UTC())
	return err
}
