// Package snapshot persists the last successfully synced promo set, the
// degraded-mode context for answering when the chunk store is unreachable.
package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kailas-cloud/promodex/internal/domain"
	"github.com/kailas-cloud/promodex/internal/feed"
)

// Store reads and writes the promo snapshot file. The file uses the feed
// wire format, so a snapshot doubles as a valid feed.
type Store struct {
	path string
}

// New creates a snapshot store over path.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the configured snapshot location.
func (s *Store) Path() string { return s.path }

// Save writes the promo set atomically (temp file + rename), so a crashed
// writer never truncates the previous snapshot and concurrent readers see
// either the old or the new file, never a torn one.
func (s *Store) Save(promos []domain.Promo) error {
	if s.path == "" {
		return errors.New("snapshot: path not configured")
	}

	data, err := feed.EncodeRecords(promos)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot back. A missing file maps to domain.ErrNotFound.
func (s *Store) Load() ([]domain.Promo, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("snapshot %s: %w", s.path, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	promos, _, err := feed.DecodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", s.path, err)
	}
	return promos, nil
}

// Fallback returns the first k promos as unranked degraded context.
// k <= 0 returns everything.
func (s *Store) Fallback(k int) ([]domain.Promo, error) {
	promos, err := s.Load()
	if err != nil {
		return nil, err
	}
	if k > 0 && len(promos) > k {
		promos = promos[:k]
	}
	return promos, nil
}
