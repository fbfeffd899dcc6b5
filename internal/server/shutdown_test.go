package server

import (
	"net/http"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGracefulShutdownStopsWorkersBeforeExit(t *testing.T) {
	srv := &http.Server{}
	workersStopped := make(chan struct{})
	done := make(chan bool, 1)

	go GracefulShutdown(srv, zap.NewNop(), func() { close(workersStopped) }, done)

	// Let the signal handler install before raising SIGTERM at ourselves.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))

	select {
	case <-workersStopped:
	case <-time.After(5 * time.Second):
		t.Fatal("background workers were not stopped")
	}

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("shutdown never signaled completion")
	}
}
