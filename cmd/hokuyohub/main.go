// Command hokuyohub runs the acquisition-to-detection pipeline of spec
// §1 as a standalone process: it loads a YAML configuration, wires
// sensor drivers, the aggregation tick, the filter/DBSCAN/publish
// pipeline, and the HTTP/WebSocket control plane, then serves until
// signaled.
//
// Grounded on the teacher's cmd/radar/radar.go: flag.Parse, a
// signal.NotifyContext-driven shutdown, and an http.Server run in its
// own goroutine with a bounded Shutdown window, generalized here to also
// drive the aggregation tick goroutine and the WS hub loop.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/anno-git/hokuyohub/internal/control"
	"github.com/anno-git/hokuyohub/internal/device"
	"github.com/anno-git/hokuyohub/internal/device/netscan"
	"github.com/anno-git/hokuyohub/internal/device/serialscan"
	"github.com/anno-git/hokuyohub/internal/httpapi"
	"github.com/anno-git/hokuyohub/internal/hubconfig"
	"github.com/anno-git/hokuyohub/internal/obslog"
	"github.com/anno-git/hokuyohub/internal/pipeline"
	"github.com/anno-git/hokuyohub/internal/publish"
	"github.com/anno-git/hokuyohub/internal/publish/nngsink"
	"github.com/anno-git/hokuyohub/internal/publish/oscsink"
	"github.com/anno-git/hokuyohub/internal/slotmgr"
	"github.com/anno-git/hokuyohub/internal/wsapi"
)

var (
	configPath = flag.String("config", hubconfig.DefaultConfigPath, "initial configuration file")
	listen     = flag.String("listen", "", "override the HTTP/WS listen address")
	logLevel   = flag.String("log-level", "info", "log level: debug, info, warn, error")
)

func main() {
	flag.Parse()
	obslog.SetLogger(obslog.New(os.Stderr, parseLogLevel(*logLevel)))

	if err := run(); err != nil {
		obslog.L.Error("hokuyohub: fatal startup error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := hubconfig.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *listen != "" {
		cfg.UI.Listen = *listen
	}
	if cfg.UI.Listen == "" {
		cfg.UI.Listen = ":8080"
	}

	slots := slotmgr.New(driverFactory)
	sinkFactory := publish.NewSinkFactory(
		func() publish.Sink { return nngsink.New() },
		func() publish.Sink { return oscsink.New() },
	)
	publishers := publish.New(sinkFactory)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	configDir := filepath.Join(filepath.Dir(*configPath), "configs")

	// The hub is built before the adapter since the adapter needs it as
	// a Broadcaster; the ws server (which needs the adapter, for the
	// snapshot sent on connect) is wired up right after.
	hub := wsapi.NewHub()
	adapter, err := control.New(*cfg, slots, publishers, hub, configDir)
	if err != nil {
		return fmt.Errorf("build control adapter: %w", err)
	}
	ws := wsapi.New(hub, adapter)

	tick := pipeline.NewTick(slots, pipeline.DefaultRate, adapter)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/", httpapi.New(adapter).Handler())
	mux.Handle("/ws/live", ws)

	server := &http.Server{
		Addr:    cfg.UI.Listen,
		Handler: mux,
	}

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return fmt.Errorf("bind listen address %q: %w", server.Addr, err)
	}

	go hub.Run()
	go tick.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		obslog.L.Info("hokuyohub: http/ws server listening", "addr", server.Addr)
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		obslog.L.Info("hokuyohub: shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		obslog.L.Error("hokuyohub: graceful shutdown failed, forcing close", "error", err)
		server.Close()
	}
	obslog.L.Info("hokuyohub: stopped")
	return nil
}

// driverFactory dispatches a SensorConfig's Type tag onto a concrete
// device.Driver constructor, mirroring the original source's
// SensorFactory::create_sensor (spec §4.1/§6.2).
func driverFactory(cfg hubconfig.SensorConfig) (device.Driver, error) {
	switch cfg.Type {
	case "urg-serial":
		host, port, err := hubconfig.ParseEndpoint(cfg.Endpoint)
		if err != nil {
			return nil, err
		}
		return serialscan.New(host, port), nil
	case "urg-net":
		return netscan.New(cfg.Endpoint, 0), nil
	case "mock":
		return device.NewMockDriver(), nil
	default:
		return nil, fmt.Errorf("unknown sensor type %q", cfg.Type)
	}
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
