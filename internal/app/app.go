package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/tradeflow/hl-sessiond/internal/metadata"
	"github.com/tradeflow/hl-sessiond/pkg/config"
	"github.com/tradeflow/hl-sessiond/pkg/healthprobe"
	"github.com/tradeflow/hl-sessiond/pkg/httpserver"
	"github.com/tradeflow/hl-sessiond/pkg/hlws"
)

// App is the main application orchestrator. It wires the WebSocket
// session supervisor, the HTTP surface, the health checker and an
// optional one-shot metadata client. There is no business logic here;
// that scope belongs to whatever consumes the supervisor's
// MessageCallback.
type App struct {
	cfg            *config.Config
	logger         *zap.Logger
	healthChecker  *healthprobe.HealthChecker
	httpServer     *httpserver.Server
	supervisor     *hlws.Supervisor
	metadataClient *metadata.Client

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Options holds application options supplied by the CLI layer.
type Options struct {
	// Subscriptions is the intended subscription set the supervisor
	// starts with, built from --coin/--subscribe flags on top of any
	// HL_SUBSCRIBE_COINS default from config.
	Subscriptions []hlws.Subscription

	// MessageCallback receives every inbound venue frame. The CLI's run
	// command supplies one that simply prints frames; a real deployment
	// would hand in its own business-logic callback instead.
	MessageCallback hlws.MessageCallback
}
