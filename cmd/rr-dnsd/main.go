package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/averyhart/rr-dns-forwarder/internal/dns/common/log"
	"github.com/averyhart/rr-dns-forwarder/internal/dns/config"
	"github.com/averyhart/rr-dns-forwarder/internal/dns/gateways/transport"
	"github.com/averyhart/rr-dns-forwarder/internal/dns/gateways/upstream"
	"github.com/averyhart/rr-dns-forwarder/internal/dns/services/resolver"
	"github.com/averyhart/rr-dns-forwarder/internal/dns/wire"
)

const (
	version = "0.1.0-dev"

	defaultShutdownTimeout = 10 * time.Second
)

// Application holds the wired-together components of the DNS server.
type Application struct {
	config    *config.AppConfig
	transport *transport.UDPTransport
	resolver  *resolver.Resolver
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	if err := log.Configure(cfg.Env, cfg.Log.Level); err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	resolverAddr := resolverAddress(os.Args[1:], cfg.Resolver.Default)
	wire.SelfAnswerIP = net.ParseIP(cfg.SelfAnswer.IP)
	wire.SelfAnswerTTL = uint32(cfg.SelfAnswer.TTL)
	upstream.Timeout = time.Duration(cfg.Resolver.TimeoutSeconds) * time.Second

	log.Info(map[string]any{
		"version":  version,
		"env":      cfg.Env,
		"listen":   cfg.Listen.Address,
		"resolver": resolverAddr,
	}, "starting rr-dnsd")

	app := buildApplication(cfg, resolverAddr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info(map[string]any{"signal": sig.String()}, "shutdown signal received")
		cancel()
	}()

	if err := app.Run(ctx); err != nil {
		log.Fatal(map[string]any{"error": err.Error()}, "server failed")
	}

	log.Info(nil, "rr-dnsd stopped gracefully")
}

// resolverAddress implements the CLI resolver-selection rules: no
// arguments defaults to def; a single positional argument is the
// resolver address; --resolver <addr> uses addr, or def if --resolver
// is present with no following argument.
func resolverAddress(args []string, def string) string {
	for i, a := range args {
		if a == "--resolver" {
			if i+1 < len(args) {
				return args[i+1]
			}
			return def
		}
	}
	if len(args) == 1 {
		return args[0]
	}
	return def
}

// buildApplication wires the forwarder, resolver service, and transport
// together from cfg.
func buildApplication(cfg *config.AppConfig, resolverAddr string) *Application {
	logger := log.GetLogger()

	resolverService := resolver.New(upstream.Forward, resolverAddr, false, logger)
	udpTransport := transport.NewUDPTransport(cfg.Listen.Address, cfg.Listen.BufferSize, logger)

	return &Application{
		config:    cfg,
		transport: udpTransport,
		resolver:  resolverService,
	}
}

// Run starts the UDP transport and blocks until ctx is cancelled.
func (app *Application) Run(ctx context.Context) error {
	if err := app.transport.Start(ctx, app.resolver.HandleRequest); err != nil {
		return fmt.Errorf("failed to start UDP transport: %w", err)
	}

	log.Info(map[string]any{"address": app.transport.Address()}, "dns server started")

	<-ctx.Done()
	log.Info(nil, "shutdown initiated")

	stopped := make(chan error, 1)
	go func() { stopped <- app.transport.Stop() }()

	select {
	case err := <-stopped:
		if err != nil {
			log.Warn(map[string]any{"error": err.Error()}, "error during transport shutdown")
		}
		log.Info(nil, "graceful shutdown completed")
		return nil
	case <-time.After(defaultShutdownTimeout):
		return fmt.Errorf("shutdown timeout exceeded")
	}
}
