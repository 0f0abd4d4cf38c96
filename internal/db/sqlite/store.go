// Package sqlite implements the db.Store chunk store on a local SQLite
// file via modernc.org/sqlite, with brute-force cosine search over the
// stored vectors. Suited to development setups and small corpora.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kailas-cloud/promodex/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Store implements db.Store on a single SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path and prepares the
// schema. Pass ":memory:" for an in-memory database (used by tests).
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating data directory: %w", err)
			}
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	sqlDB.SetMaxOpenConns(1)

	// Set busy timeout so concurrent access waits briefly instead of failing immediately.
	if _, err := sqlDB.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: sqlDB}
	if err := s.ensure(context.Background()); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return s, nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() {
	_ = s.db.Close()
}

// WaitForReady verifies the database responds within the timeout. A local
// file needs no retry loop.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.Ping(ctx); err != nil {
		return fmt.Errorf("timeout waiting for database: %w", err)
	}
	return nil
}

var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		parent_id TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		text TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		url TEXT NOT NULL DEFAULT '',
		period TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		bank TEXT NOT NULL DEFAULT '',
		payment_methods TEXT NOT NULL DEFAULT '',
		scrape_date TEXT NOT NULL DEFAULT '',
		vector BLOB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_chunks_parent ON chunks (parent_id)`,
	`CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		expires_at INTEGER NOT NULL DEFAULT 0
	)`,
}

// EnsureSchema creates the tables if missing. The vector dimensionality is
// not part of the DDL; blobs are validated against the query vector at
// search time and governed by the stored fingerprint.
func (s *Store) EnsureSchema(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("dimensions must be positive")
	}
	return s.ensure(ctx)
}

func (s *Store) ensure(ctx context.Context) error {
	for _, stmt := range schemaDDL {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("preparing schema: %w", err)
		}
	}
	return nil
}

// DropSchema removes the chunk table and its rows. The kv table survives,
// matching the redis driver where FT.DROPINDEX leaves plain keys alone.
func (s *Store) DropSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS chunks"); err != nil {
		return fmt.Errorf("dropping chunks table: %w", err)
	}
	return nil
}

// UpsertChunks writes the chunk rows in one transaction.
func (s *Store) UpsertChunks(ctx context.Context, chunks []db.StoredChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning upsert transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO chunks
			(id, parent_id, chunk_index, text, title, url, period, category, bank, payment_methods, scrape_date, vector)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, sc := range chunks {
		c := sc.Chunk
		if _, err := stmt.ExecContext(ctx,
			c.ID(), c.ParentID(), c.Index(), c.Text(), c.Title(), c.URL(),
			c.Period(), c.Category(), c.Bank(), c.PaymentMethodsJoined(),
			c.ScrapeDate(), db.VectorToBytes(sc.Embedding),
		); err != nil {
			return fmt.Errorf("upserting chunk %s: %w", c.ID(), err)
		}
	}

	return tx.Commit()
}

// DeleteParent removes every chunk row of one parent and reports the count.
func (s *Store) DeleteParent(ctx context.Context, parentID string) (int, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM chunks WHERE parent_id = ?", parentID)
	if err != nil {
		return 0, fmt.Errorf("deleting parent %s: %w", parentID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted rows: %w", err)
	}
	return int(n), nil
}

// ParentIDs lists the distinct parent ids currently stored, sorted.
func (s *Store) ParentIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT parent_id FROM chunks ORDER BY parent_id")
	if err != nil {
		if isMissingTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing parent ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountChunks returns the total number of stored chunks.
func (s *Store) CountChunks(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n)
	if err != nil {
		if isMissingTable(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// Get retrieves a KV value. Expired entries are lazily deleted.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	var expiresAt int64
	err := s.db.QueryRowContext(ctx,
		"SELECT value, expires_at FROM kv WHERE key = ?", key,
	).Scan(&value, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, db.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", key, err)
	}

	if expiresAt > 0 && expiresAt <= time.Now().Unix() {
		_, _ = s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key)
		return nil, db.ErrKeyNotFound
	}
	return value, nil
}

// Set stores a KV value without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.setWithExpiry(ctx, key, value, 0)
}

// SetWithTTL stores a KV value that expires after ttl.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.setWithExpiry(ctx, key, value, time.Now().Add(ttl).Unix())
}

func (s *Store) setWithExpiry(ctx context.Context, key string, value []byte, expiresAt int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	return nil
}

// IncrBy atomically increments the integer value at key. Counters are
// stored as decimal text so Get can parse them back.
func (s *Store) IncrBy(ctx context.Context, key string, val int64) error {
	// An expired counter behaves as absent, matching redis where the key
	// is simply gone after its TTL.
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM kv WHERE key = ? AND expires_at > 0 AND expires_at <= ?",
		key, time.Now().Unix(),
	); err != nil {
		return fmt.Errorf("expiring %s: %w", key, err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, expires_at) VALUES (?, CAST(? AS TEXT), 0)
		ON CONFLICT(key) DO UPDATE SET value = CAST(CAST(kv.value AS INTEGER) + ? AS TEXT)`,
		key, val, val,
	)
	if err != nil {
		return fmt.Errorf("incrementing %s: %w", key, err)
	}
	return nil
}

// Expire sets the expiry on an existing key. With nx=true only keys that
// have no expiry yet are touched.
func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error {
	query := "UPDATE kv SET expires_at = ? WHERE key = ?"
	args := []any{time.Now().Add(ttl).Unix(), key}
	if nx {
		query += " AND expires_at = 0"
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("setting expiry on %s: %w", key, err)
	}
	return nil
}

func isMissingTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}
