package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/promodex/internal/config"
	"github.com/kailas-cloud/promodex/internal/domain"
	"github.com/kailas-cloud/promodex/internal/feed"
	logpkg "github.com/kailas-cloud/promodex/internal/logger"
	syncuc "github.com/kailas-cloud/promodex/internal/usecase/sync"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the chunk store against the promo feed",
	Long: `Reconcile the chunk store against the promo feed.

The feed is the whole truth: promos missing from it are deleted from the
store. With --watch the command keeps running and resyncs whenever the
feed file changes.

Examples:
  promodex sync
  promodex sync --feed ./promos.json
  promodex sync --feed ./promos.json --watch
  promodex sync --feed-url https://scraper.internal/feeds/kartu-kredit.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		feedPath, _ := cmd.Flags().GetString("feed")
		feedURLs, _ := cmd.Flags().GetStringSlice("feed-url")
		watch, _ := cmd.Flags().GetBool("watch")
		debounce, _ := cmd.Flags().GetDuration("debounce")

		if watch && len(feedURLs) > 0 {
			return fmt.Errorf("--watch works with a feed file, not --feed-url")
		}
		return runSync(feedPath, feedURLs, watch, debounce)
	},
}

func init() {
	syncCmd.Flags().String("feed", "", "feed file path (overrides feed.path)")
	syncCmd.Flags().StringSlice("feed-url", nil, "feed URL, repeatable (overrides feed.urls)")
	syncCmd.Flags().Bool("watch", false, "keep running and resync on feed file changes")
	syncCmd.Flags().Duration("debounce", 500*time.Millisecond, "quiet period before a watched resync")
}

// promoSource yields the current promo set plus a count of malformed
// records that were dropped.
type promoSource interface {
	Fetch(ctx context.Context) ([]domain.Promo, int, error)
}

func runSync(feedPath string, feedURLs []string, watch bool, debounce time.Duration) error {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	// CLI flags override the configured feed source.
	if feedPath != "" {
		cfg.Feed.Source = "file"
		cfg.Feed.Path = feedPath
	}
	if len(feedURLs) > 0 {
		cfg.Feed.Source = "http"
		cfg.Feed.URLs = feedURLs
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	source, err := buildSource(cfg.Feed, logger)
	if err != nil {
		return err
	}

	if err := syncOnce(ctx, a.syncSvc, source, logger); err != nil {
		if !watch {
			return err
		}
		logger.Error("Initial sync failed", zap.Error(err))
	}
	if !watch {
		return nil
	}

	changes, err := feed.Watch(ctx, cfg.Feed.Path, debounce, logger)
	if err != nil {
		return fmt.Errorf("watch feed: %w", err)
	}
	logger.Info("Watching feed for changes", zap.String("path", cfg.Feed.Path))

	for range changes {
		// A broken resync is not fatal in watch mode; the next feed write
		// gets another chance.
		if err := syncOnce(ctx, a.syncSvc, source, logger); err != nil {
			logger.Error("Resync failed", zap.Error(err))
		}
	}
	logger.Info("Feed watch stopped")
	return nil
}

func buildSource(cfg config.FeedConfig, logger *zap.Logger) (promoSource, error) {
	switch cfg.Source {
	case "file":
		if cfg.Path == "" {
			return nil, fmt.Errorf("feed.path is required (or pass --feed)")
		}
		return feed.NewFileSource(cfg.Path, logger), nil
	case "http":
		return feed.NewHTTPSource(feed.HTTPConfig{
			URLs:       cfg.URLs,
			RatePerSec: cfg.RatePerSec,
			Timeout:    time.Duration(cfg.TimeoutSec) * time.Second,
			Logger:     logger,
		})
	default:
		return nil, fmt.Errorf("unknown feed source %q", cfg.Source)
	}
}

func syncOnce(ctx context.Context, svc *syncuc.Service, source promoSource, logger *zap.Logger) error {
	promos, invalid, err := source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch feed: %w", err)
	}

	report, err := svc.Reconcile(ctx, promos)
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}

	printReport(report, invalid)
	for _, res := range report.Results {
		if res.Err() != nil {
			logger.Warn("Promo not reconciled",
				zap.String("promo_id", res.PromoID()),
				zap.String("url", res.URL()),
				zap.String("status", string(res.Status())),
				zap.Error(res.Err()),
			)
		}
	}
	if failed := report.Failed(); failed > 0 {
		return fmt.Errorf("%d of %d promos failed to reconcile", failed, report.Total())
	}
	return nil
}

func printReport(report syncuc.Report, invalid int) {
	fmt.Printf("Synced %d promos in %s: %d ok, %d failed, %d skipped\n",
		report.Total(), report.Duration.Round(time.Millisecond),
		report.Succeeded(), report.Failed(), report.Skipped(),
	)
	fmt.Printf("Chunks upserted: %d, orphans deleted: %d\n",
		report.ChunksUpserted(), report.OrphansDeleted,
	)
	if invalid > 0 {
		fmt.Printf("Invalid feed records dropped: %d\n", invalid)
	}
	if report.Rebuilt {
		fmt.Println("Embedding fingerprint changed, index was rebuilt from scratch")
	}
}
