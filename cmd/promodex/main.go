package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/promodex/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "promodex",
	Short: "Bank promo search and answer service",
	Long: `Promodex keeps a vector index of scraped bank promos in sync with a
feed and serves semantic search and grounded answers over it.

The serve command runs the HTTP API. The sync, search and ask commands
talk to the chunk store directly using the same configuration.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"promodex %s (commit %s, built %s)\n",
		version.Version, version.Commit, version.Date,
	))
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(usageCmd)
}

func main() {
	// .env is optional; deployments set the environment directly.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
