// Command hl-sessiond supervises a single long-lived WebSocket
// subscription session against the Hyperliquid streaming venue.
package main

import "github.com/tradeflow/hl-sessiond/cmd"

func main() {
	cmd.Execute()
}
