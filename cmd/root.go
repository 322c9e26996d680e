package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "hl-sessiond",
	Short: "Resilient WebSocket session manager for Hyperliquid",
	Long: `hl-sessiond supervises a single long-lived WebSocket subscription
session against the Hyperliquid streaming venue: it dials, subscribes,
detects zombie sockets and stalled data, and reconnects with backoff,
so the rest of an application never has to think about the socket's
lifecycle.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	// Flags can be added here if needed
}
