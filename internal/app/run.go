package app

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Run starts the application and blocks until shutdown.
func (a *App) Run() error {
	a.logger.Info("application-starting",
		zap.String("endpoint", a.cfg.Endpoint),
		zap.String("log-level", a.cfg.LogLevel))

	a.startComponents()

	a.logger.Info("application-ready", zap.String("http-addr", ":"+a.cfg.HTTPPort))

	return a.waitForShutdown()
}

func (a *App) startComponents() {
	a.wg.Add(1)
	go a.runHTTPServer()

	// Give the HTTP server a moment to start so /health is reachable
	// before the supervisor begins its (possibly slow) first connect.
	time.Sleep(100 * time.Millisecond)

	a.fetchAssetUniverseBestEffort()

	a.wg.Add(1)
	go a.runSupervisor()
}

func (a *App) runHTTPServer() {
	defer a.wg.Done()
	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http-server-error", zap.Error(err))
	}
}

func (a *App) runSupervisor() {
	defer a.wg.Done()
	if err := a.supervisor.Start(); err != nil {
		a.logger.Error("supervisor-stopped", zap.Error(err))
		a.cancel()
	}
}

// fetchAssetUniverseBestEffort makes exactly one deadlined metadata
// call at startup. Its outcome never affects readiness or the
// supervisor's lifecycle.
func (a *App) fetchAssetUniverseBestEffort() {
	if a.metadataClient == nil {
		return
	}
	assets, err := a.metadataClient.FetchUniverse(a.ctx)
	if err != nil {
		a.logger.Warn("asset-universe-fetch-failed", zap.Error(err))
		return
	}
	a.logger.Info("asset-universe-fetched", zap.Int("count", len(assets)))
}

func (a *App) waitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		a.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
	case <-a.ctx.Done():
		a.logger.Info("context-cancelled")
	}

	return a.Shutdown()
}
