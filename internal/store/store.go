// Package store keeps a local history of keyboard backups in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/keebtools/dygma/bazecore"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/blake2b"
)

const schema = `
CREATE TABLE IF NOT EXISTS backups (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    created_ns  INTEGER NOT NULL,
    label       TEXT NOT NULL DEFAULT '',
    transport   TEXT NOT NULL DEFAULT '',
    digest      BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_backups_digest ON backups(digest);

CREATE TABLE IF NOT EXISTS entries (
    backup_id   INTEGER NOT NULL REFERENCES backups(id) ON DELETE CASCADE,
    ordinal     INTEGER NOT NULL,
    command     TEXT NOT NULL,
    data        TEXT NOT NULL,
    PRIMARY KEY (backup_id, ordinal)
);
`

// ErrNotFound is returned for a backup id that does not exist.
var ErrNotFound = errors.New("backup not found")

// Backup describes one stored backup.
type Backup struct {
	ID        int64
	CreatedAt time.Time
	Label     string
	Transport string
	Digest    [blake2b.Size256]byte
	Entries   int
}

// Store is the SQLite backup history.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Digest identifies the content of a backup independent of when it was
// taken.
func Digest(entries []bazecore.Command) [blake2b.Size256]byte {
	h, _ := blake2b.New256(nil)
	for _, e := range entries {
		h.Write([]byte(e.Command))
		h.Write([]byte{0})
		h.Write([]byte(e.Data))
		h.Write([]byte{0})
	}
	var out [blake2b.Size256]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Save stores entries unless a backup with the same content exists. It
// returns the stored or existing backup and whether a new one was written.
func (s *Store) Save(ctx context.Context, label, transport string, entries []bazecore.Command) (Backup, bool, error) {
	digest := Digest(entries)
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM backups WHERE digest = ? ORDER BY id DESC LIMIT 1`, digest[:]).Scan(&id)
	switch {
	case err == nil:
		b, err := s.Get(ctx, id)
		return b, false, err
	case !errors.Is(err, sql.ErrNoRows):
		return Backup{}, false, fmt.Errorf("look up digest: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Backup{}, false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO backups (created_ns, label, transport, digest) VALUES (?, ?, ?, ?)`,
		s.now().UnixNano(), label, transport, digest[:])
	if err != nil {
		return Backup{}, false, fmt.Errorf("insert backup: %w", err)
	}
	if id, err = res.LastInsertId(); err != nil {
		return Backup{}, false, fmt.Errorf("get last insert id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO entries (backup_id, ordinal, command, data) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return Backup{}, false, fmt.Errorf("prepare entries: %w", err)
	}
	defer stmt.Close()
	for i, e := range entries {
		if _, err := stmt.ExecContext(ctx, id, i, e.Command, e.Data); err != nil {
			return Backup{}, false, fmt.Errorf("insert entry %s: %w", e.Command, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return Backup{}, false, fmt.Errorf("commit: %w", err)
	}
	b, err := s.Get(ctx, id)
	return b, true, err
}

const selectBackups = `
SELECT b.id, b.created_ns, b.label, b.transport, b.digest, COUNT(e.ordinal)
FROM backups b LEFT JOIN entries e ON e.backup_id = b.id`

func scanBackup(row interface{ Scan(...any) error }) (Backup, error) {
	var (
		b       Backup
		created int64
		digest  []byte
	)
	if err := row.Scan(&b.ID, &created, &b.Label, &b.Transport, &digest, &b.Entries); err != nil {
		return Backup{}, err
	}
	b.CreatedAt = time.Unix(0, created)
	copy(b.Digest[:], digest)
	return b, nil
}

// Get returns the backup with id.
func (s *Store) Get(ctx context.Context, id int64) (Backup, error) {
	row := s.db.QueryRowContext(ctx, selectBackups+` WHERE b.id = ? GROUP BY b.id`, id)
	b, err := scanBackup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Backup{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return b, err
}

// Latest returns the most recent backup.
func (s *Store) Latest(ctx context.Context) (Backup, error) {
	row := s.db.QueryRowContext(ctx, selectBackups+` GROUP BY b.id ORDER BY b.id DESC LIMIT 1`)
	b, err := scanBackup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Backup{}, fmt.Errorf("%w: no backups stored", ErrNotFound)
	}
	return b, err
}

// List returns all backups, newest first.
func (s *Store) List(ctx context.Context) ([]Backup, error) {
	rows, err := s.db.QueryContext(ctx, selectBackups+` GROUP BY b.id ORDER BY b.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	defer rows.Close()
	var out []Backup
	for rows.Next() {
		b, err := scanBackup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Entries returns the commands stored in backup id, in backup order.
func (s *Store) Entries(ctx context.Context, id int64) ([]bazecore.Command, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT command, data FROM entries WHERE backup_id = ? ORDER BY ordinal`, id)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()
	out := []bazecore.Command{}
	for rows.Next() {
		var e bazecore.Command
		if err := rows.Scan(&e.Command, &e.Data); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Delete removes a backup and its entries.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM backups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete backup: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}
