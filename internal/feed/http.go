package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/promodex/internal/domain"
)

const (
	defaultRatePerSec = 1.25
	defaultTimeout    = 30 * time.Second
	fetchParallelism  = 4
)

// HTTPSource fetches one or more category feeds from the record normalizer
// service. All requests share one politeness limiter.
type HTTPSource struct {
	urls    []string
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// HTTPConfig holds the HTTP source settings.
type HTTPConfig struct {
	URLs       []string
	RatePerSec float64
	Timeout    time.Duration
	Logger     *zap.Logger
}

// NewHTTPSource creates an HTTP-backed source.
func NewHTTPSource(cfg HTTPConfig) (*HTTPSource, error) {
	if len(cfg.URLs) == 0 {
		return nil, errors.New("feed: at least one URL is required")
	}

	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = defaultRatePerSec
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &HTTPSource{
		urls:    cfg.URLs,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		logger:  cfg.Logger,
	}, nil
}

// Fetch pulls every category feed with bounded parallelism and merges the
// results de-duplicated by URL, earlier feeds winning. Any failing feed
// fails the whole fetch so a sync never silently reconciles against a
// partial promo set.
func (s *HTTPSource) Fetch(ctx context.Context) ([]domain.Promo, int, error) {
	perFeed := make([][]domain.Promo, len(s.urls))
	skips := make([]int, len(s.urls))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(fetchParallelism)

	for i, url := range s.urls {
		g.Go(func() error {
			if err := s.limiter.Wait(gCtx); err != nil {
				return fmt.Errorf("rate wait: %w", err)
			}
			promos, skipped, err := s.fetchOne(gCtx, url)
			if err != nil {
				return err
			}
			perFeed[i] = promos
			skips[i] = skipped
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	var merged []domain.Promo
	var skipped int
	for i := range perFeed {
		merged = append(merged, perFeed[i]...)
		skipped += skips[i]
	}
	if skipped > 0 {
		s.logger.Warn("Skipped malformed feed records", zap.Int("skipped", skipped))
	}

	return DedupeByURL(merged), skipped, nil
}

func (s *HTTPSource) fetchOne(ctx context.Context, url string) ([]domain.Promo, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("build request %s: %w", url, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch feed %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("fetch feed %s: unexpected status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read feed %s: %w", url, err)
	}

	promos, skipped, err := DecodeRecords(data)
	if err != nil {
		return nil, 0, fmt.Errorf("feed %s: %w", url, err)
	}
	return promos, skipped, nil
}
