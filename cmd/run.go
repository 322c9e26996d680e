package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tradeflow/hl-sessiond/internal/app"
	"github.com/tradeflow/hl-sessiond/internal/metadata"
	"github.com/tradeflow/hl-sessiond/pkg/config"
	"github.com/tradeflow/hl-sessiond/pkg/hlws"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the session supervisor",
	Long: `Starts the supervisor, which will:
1. Dial the Hyperliquid WebSocket endpoint
2. Subscribe to every channel named by --coin/--subscribe
3. Reconnect with backoff on any socket or data failure
4. Serve /health, /ready, /metrics and /stats over HTTP

Use --meta to print the Hyperliquid asset universe and exit instead of
starting the supervisor.`,
	RunE: runSupervisor,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringSlice("coin", nil, "Coin to subscribe to l2Book updates for (repeatable)")
	runCmd.Flags().StringSlice("subscribe", nil, "Raw subscription as type[:coin[:interval]] (repeatable)")
	runCmd.Flags().Bool("meta", false, "Fetch the Hyperliquid asset universe and exit")
}

func runSupervisor(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	meta, _ := cmd.Flags().GetBool("meta")
	if meta {
		return printAssetUniverse(cfg)
	}

	coins, _ := cmd.Flags().GetStringSlice("coin")
	raw, _ := cmd.Flags().GetStringSlice("subscribe")

	subs := make([]hlws.Subscription, 0, len(coins)+len(raw))
	for _, coin := range coins {
		subs = append(subs, hlws.Subscription{Type: "l2Book", Coin: coin})
	}
	for _, r := range raw {
		sub, err := parseSubscription(r)
		if err != nil {
			return fmt.Errorf("parse --subscribe %q: %w", r, err)
		}
		subs = append(subs, sub)
	}

	opts := &app.Options{
		Subscriptions:   subs,
		MessageCallback: printFrame,
	}

	application, err := app.New(cfg, logger, opts)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	return application.Run()
}

// parseSubscription parses "type[:coin[:interval]]" into a Subscription.
func parseSubscription(raw string) (hlws.Subscription, error) {
	parts := strings.Split(raw, ":")
	if len(parts) == 0 || parts[0] == "" {
		return hlws.Subscription{}, fmt.Errorf("empty subscription type")
	}

	sub := hlws.Subscription{Type: parts[0]}
	if len(parts) > 1 {
		sub.Coin = parts[1]
	}
	if len(parts) > 2 {
		sub.Interval = parts[2]
	}
	return sub, nil
}

func printFrame(raw []byte) {
	fmt.Println(string(raw))
}

func printAssetUniverse(cfg *config.Config) error {
	client := metadata.NewClient(cfg.MetaURL, cfg.MetaTimeout, zap.NewNop())
	assets, err := client.FetchUniverse(context.Background())
	if err != nil {
		return fmt.Errorf("fetch asset universe: %w", err)
	}

	for _, a := range assets {
		fmt.Printf("%s\tszDecimals=%d\n", a.Name, a.SzDecimals)
	}
	return nil
}
