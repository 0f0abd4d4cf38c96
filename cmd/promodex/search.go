package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/promodex/internal/config"
	logpkg "github.com/kailas-cloud/promodex/internal/logger"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Semantic search over synced promos",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		topK, _ := cmd.Flags().GetInt("top-k")
		return runSearch(query, topK)
	},
}

func init() {
	searchCmd.Flags().Int("top-k", 0, "number of promos to return (default from config)")
}

func runSearch(query string, topK int) error {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
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

	results, err := a.querySvc.Search(ctx, query, topK)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("No promos found.")
		return nil
	}

	for i := range results {
		r := &results[i]
		fmt.Printf("\n%d. %s [%s, %.0f%%]\n", r.Rank(), r.Title(), r.Bank(), r.SimilarityPercent())
		if methods := strings.Join(r.PaymentMethods(), ", "); methods != "" {
			fmt.Printf("   %s\n", methods)
		}
		if r.Period() != "" {
			fmt.Printf("   Periode: %s\n", r.Period())
		}
		fmt.Printf("   %s\n", r.URL())
		if desc := oneLine(r.Description(), 200); desc != "" {
			fmt.Printf("   %s\n", desc)
		}
	}
	return nil
}

// oneLine flattens a description to a single line of at most maxChars runes.
func oneLine(s string, maxChars int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars]) + "..."
}
