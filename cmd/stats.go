package cmd

import (
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tradeflow/hl-sessiond/pkg/hlws"
)

//nolint:gochecknoglobals // Cobra boilerplate
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the running supervisor's /stats snapshot",
	Long:  `Fetches and pretty-prints the /stats endpoint of a locally running hl-sessiond instance.`,
	RunE:  printStats,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().String("addr", "http://localhost:8080", "Base address of the running instance")
}

func printStats(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(addr + "/stats")
	if err != nil {
		return fmt.Errorf("fetch stats: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	var stats hlws.Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return fmt.Errorf("decode stats: %w", err)
	}

	fmt.Printf("state:                 %s\n", stats.State)
	fmt.Printf("intended subscriptions: %d\n", stats.IntendedSubscriptionCount)
	fmt.Printf("total messages:        %d\n", stats.Health.TotalMessages)
	fmt.Printf("total reconnects:      %d\n", stats.Health.TotalReconnects)
	fmt.Printf("total errors:          %d\n", stats.Health.TotalErrors)
	fmt.Printf("uptime seconds:        %.1f\n", stats.Health.UptimeSeconds)
	fmt.Printf("idle seconds:          %.1f\n", stats.Health.IdleSeconds)
	fmt.Printf("backoff attempt:       %d\n", stats.Backoff.Attempt)

	return nil
}
