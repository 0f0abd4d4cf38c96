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

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a free-text question about current promos",
	Long: `Ask a free-text question about current promos.

The answer is generated by the configured chat model and grounded on the
retrieved promo context. Sources are listed below the answer.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")
		topK, _ := cmd.Flags().GetInt("top-k")
		maxDesc, _ := cmd.Flags().GetInt("max-desc")
		noFallback, _ := cmd.Flags().GetBool("no-fallback")
		return runAsk(question, topK, maxDesc, noFallback)
	},
}

func init() {
	askCmd.Flags().Int("top-k", 0, "number of promos handed to the model (default from config)")
	askCmd.Flags().Int("max-desc", 0, "description budget per promo in characters (default from config)")
	askCmd.Flags().Bool("no-fallback", false, "fail instead of answering from the snapshot when retrieval is down")
}

func runAsk(question string, topK, maxDesc int, noFallback bool) error {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	// CLI flags override the configured degraded-mode behavior.
	if noFallback {
		cfg.Answer.Fallback.Enabled = false
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

	ans, err := a.answerSvc.Ask(ctx, question, topK, maxDesc)
	if err != nil {
		return err
	}

	fmt.Println(ans.Text)

	if ans.Degraded {
		fmt.Println("\n(data dari snapshot terakhir, indeks sedang tidak tersedia)")
	}
	if len(ans.Sources) > 0 {
		fmt.Println("\nSumber:")
		for _, src := range ans.Sources {
			fmt.Printf("  - %s (%s) %s\n", src.Title, src.Bank, src.URL)
		}
	}
	return nil
}
