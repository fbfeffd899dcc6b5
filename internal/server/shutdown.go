package server

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const shutdownGrace = 5 * time.Second

// GracefulShutdown waits for SIGINT or SIGTERM, stops the background
// workers so no new scans start mid-drain, then gives in-flight requests
// shutdownGrace to finish before forcing the server down.
func GracefulShutdown(srv *http.Server, logger *zap.Logger, stopWorkers func(), done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop() // a second signal kills the process outright

	if stopWorkers != nil {
		stopWorkers()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
	done <- true
}
