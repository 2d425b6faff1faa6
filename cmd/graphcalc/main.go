package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vjranagit/graphcalc/internal/config"
	"github.com/vjranagit/graphcalc/internal/log"
	"github.com/vjranagit/graphcalc/pkg/api"
	"github.com/vjranagit/graphcalc/pkg/auth"
	"github.com/vjranagit/graphcalc/pkg/render"
	"github.com/vjranagit/graphcalc/pkg/storage"
)

const (
	version = "0.1.0"
)

func main() {
	configPath := flag.String("config", "", "optional YAML configuration file")
	flag.Parse()

	fmt.Printf("graphcalc v%s\n", version)
	fmt.Println("Equation classification and graph storage service")
	fmt.Println()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Error.Fatalf("Invalid configuration: %v", err)
	}

	log.Info.Printf("Configuration loaded:")
	log.Info.Printf("  Listen Address: %s", cfg.Server.ListenAddr)
	log.Info.Printf("  Storage Path: %s", cfg.Storage.Path)
	log.Info.Printf("  Compression Level: %d", cfg.Storage.CompressionLevel)
	log.Info.Printf("  Sampling: x in [%g, %g], step %g, %d workers",
		cfg.Sampling.XMin, cfg.Sampling.XMax, cfg.Sampling.Step, cfg.Sampling.Workers)

	// Initialize storage
	log.Info.Println("Opening storage...")
	store, err := storage.Open(cfg.ToStorageConfig())
	if err != nil {
		log.Error.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	renderer, err := render.New(cfg.ToRenderConfig())
	if err != nil {
		log.Error.Fatalf("Failed to initialize renderer: %v", err)
	}
	defer renderer.Close()

	server := api.NewServer(cfg.Server.ListenAddr, store, auth.New(cfg.ToAuthConfig()), renderer)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	log.Info.Printf("API server listening on %s", cfg.Server.ListenAddr)
	if err := serve(server, sigChan, cfg.Server.Timeout); err != nil {
		log.Error.Printf("Server error: %v", err)
		renderer.Close()
		store.Close()
		os.Exit(1)
	}
	log.Info.Println("Server stopped")
}

type service interface {
	Start() error
	Stop(ctx context.Context) error
}

// serve runs srv until a signal arrives, then stops it within timeout.
// It returns early with the error when srv fails to start.
func serve(srv service, sigChan <-chan os.Signal, timeout time.Duration) error {
	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
		log.Info.Println("Shutdown signal received, stopping server...")
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Stop(ctx)
}
