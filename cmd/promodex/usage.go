package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/promodex/internal/config"
	domusage "github.com/kailas-cloud/promodex/internal/domain/usage"
	logpkg "github.com/kailas-cloud/promodex/internal/logger"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show embedding token usage and budget state",
	Long: `Show embedding token usage and budget state.

Counters come from the budget tracker persisted in the chunk store. Budget
limits are configured under embedding.budget; without them the tracker is
off and the counters read zero.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		period, _ := cmd.Flags().GetString("period")
		return runUsage(period)
	},
}

func init() {
	usageCmd.Flags().String("period", "month", "aggregation window: day, month or total")
}

func runUsage(period string) error {
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

	printUsage(a.usageSvc.GetReport(ctx, domusage.ParsePeriod(period)))
	return nil
}

func printUsage(r domusage.Report) {
	fmt.Printf("Period: %s\n", r.Period())
	if r.PeriodStart() > 0 {
		fmt.Printf("Window: %s to %s\n",
			time.UnixMilli(r.PeriodStart()).UTC().Format("2006-01-02"),
			time.UnixMilli(r.PeriodEnd()).UTC().Format("2006-01-02"))
	}
	fmt.Printf("Tokens used: %d\n", r.TokensUsed())
	if r.TokensLimit() > 0 {
		fmt.Printf("Limit: %d, remaining: %d\n", r.TokensLimit(), r.TokensRemaining())
		if r.Exhausted() {
			fmt.Println("Budget exhausted.")
		}
	} else {
		fmt.Println("No token limit configured.")
	}
}
