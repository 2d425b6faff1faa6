package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	startErr error
	stopped  chan struct{}
}

func (f *fakeService) Start() error {
	if f.startErr != nil {
		return f.startErr
	}
	<-f.stopped
	return http.ErrServerClosed
}

func (f *fakeService) Stop(ctx context.Context) error {
	close(f.stopped)
	return nil
}

func TestServeReturnsStartError(t *testing.T) {
	srv := &fakeService{startErr: errors.New("address already in use"), stopped: make(chan struct{})}

	done := make(chan error, 1)
	go func() { done <- serve(srv, make(chan os.Signal), time.Second) }()

	select {
	case err := <-done:
		assert.EqualError(t, err, "address already in use")
	case <-time.After(5 * time.Second):
		t.Fatal("serve blocked after a failed start")
	}
}

func TestServeStopsOnSignal(t *testing.T) {
	srv := &fakeService{stopped: make(chan struct{})}
	sigChan := make(chan os.Signal, 1)
	sigChan <- syscall.SIGTERM

	require.NoError(t, serve(srv, sigChan, time.Second))
	select {
	case <-srv.stopped:
	default:
		t.Fatal("service was not stopped")
	}
}
