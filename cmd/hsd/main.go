package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/micjavier/hsd/internal/dns/common/log"
	"github.com/micjavier/hsd/internal/dns/config"
	"github.com/micjavier/hsd/internal/dns/gateways/transport"
	"github.com/micjavier/hsd/internal/dns/gateways/wire"
	"github.com/micjavier/hsd/internal/dns/repos/namestore"
	"github.com/micjavier/hsd/internal/dns/repos/recordcache"
	"github.com/micjavier/hsd/internal/dns/services/resolver"
)

const (
	version = "0.1.0-dev"
	appName = "hsd"

	defaultShutdownTimeout = 10 * time.Second
)

// Application holds the wired components of the daemon.
type Application struct {
	config    *config.AppConfig
	store     *namestore.Store
	transport *transport.UDPTransport
	resolver  *resolver.Resolver
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	if err := log.Configure(cfg.Env, cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"version":    version,
		"env":        cfg.Env,
		"log_level":  cfg.LogLevel,
		"port":       cfg.Port,
		"db_path":    cfg.DBPath,
		"cache_size": cfg.CacheSize,
	}, "Starting hsd resolver")

	app, err := buildApplication(cfg)
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build application")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")
		cancel()
	}()

	if err := app.Run(ctx); err != nil {
		log.Fatal(map[string]any{"error": err}, "Server failed")
	}

	log.Info(nil, "hsd resolver stopped gracefully")
}

// buildApplication constructs all components and wires them together.
func buildApplication(cfg *config.AppConfig) (*Application, error) {
	logger := log.GetLogger()

	store, err := namestore.Open(cfg.DBPath, cfg.ExpectedNames)
	if err != nil {
		return nil, fmt.Errorf("failed to open name store: %w", err)
	}
	log.Info(map[string]any{
		"db_path": cfg.DBPath,
		"names":   store.Len(),
	}, "Name store opened")

	var cache resolver.RecordCache
	if cfg.DisableCache {
		log.Info(map[string]any{"disabled": true}, "Record cache disabled")
	} else {
		c, err := recordcache.New(int(cfg.CacheSize))
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to create record cache: %w", err)
		}
		cache = c
		log.Info(map[string]any{
			"type": "LRU",
			"size": cfg.CacheSize,
		}, "Record cache configured")
	}

	resolverService := resolver.New(resolver.Options{
		Store:  store,
		Cache:  cache,
		Logger: logger,
	})

	codec := wire.NewUDPCodec(logger)
	addr := fmt.Sprintf(":%d", cfg.Port)
	udpTransport := transport.NewUDPTransport(addr, codec, logger)

	return &Application{
		config:    cfg,
		store:     store,
		transport: udpTransport,
		resolver:  resolverService,
	}, nil
}

// Run starts the resolver and blocks until the context is cancelled.
func (app *Application) Run(ctx context.Context) error {
	if err := app.transport.Start(ctx, app.resolver); err != nil {
		return fmt.Errorf("failed to start UDP transport: %w", err)
	}

	log.Info(map[string]any{
		"address":   app.transport.Address(),
		"transport": "UDP",
	}, "Resolver started")

	<-ctx.Done()
	log.Info(nil, "Shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	if err := app.transport.Stop(); err != nil {
		log.Warn(map[string]any{"error": err}, "Error during transport shutdown")
	}

	done := make(chan struct{})
	go func() {
		if err := app.store.Close(); err != nil {
			log.Warn(map[string]any{"error": err}, "Error closing name store")
		}
		close(done)
	}()

	select {
	case <-done:
		log.Info(nil, "Graceful shutdown completed")
		return nil
	case <-shutdownCtx.Done():
		log.Warn(map[string]any{"timeout": defaultShutdownTimeout}, "Shutdown timeout exceeded")
		return fmt.Errorf("shutdown timeout")
	}
}
