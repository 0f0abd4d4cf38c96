package feed

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/kailas-cloud/promodex/internal/domain"
)

// FileSource reads the JSON feed from disk.
type FileSource struct {
	path   string
	logger *zap.Logger
}

// NewFileSource creates a file-backed source.
func NewFileSource(path string, logger *zap.Logger) *FileSource {
	return &FileSource{path: path, logger: logger}
}

// Fetch implements Source.
func (s *FileSource) Fetch(_ context.Context) ([]domain.Promo, int, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, 0, fmt.Errorf("read feed %s: %w", s.path, err)
	}

	promos, skipped, err := DecodeRecords(data)
	if err != nil {
		return nil, 0, fmt.Errorf("feed %s: %w", s.path, err)
	}
	if skipped > 0 {
		s.logger.Warn("Skipped malformed feed records",
			zap.String("path", s.path), zap.Int("skipped", skipped))
	}

	return DedupeByURL(promos), skipped, nil
}
