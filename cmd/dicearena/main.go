// Command dicearena boots the dice-arena session gateway: it loads
// configuration from the environment, wires up the state store (Redis with
// an in-process fallback), the room registry, and the WebSocket gateway,
// and serves until interrupted. It generalizes the teacher's
// cmd/pokersrv/main.go (flag parsing, DB/backend wiring, blocking Serve)
// from a gRPC poker server into this service's HTTP/WebSocket equivalent,
// adding the graceful-shutdown path the teacher's binary never had.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/decred/slog"

	"github.com/dicearena/server/internal/config"
	"github.com/dicearena/server/internal/gateway"
	"github.com/dicearena/server/internal/metrics"
	"github.com/dicearena/server/internal/registry"
	"github.com/dicearena/server/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	backend := slog.NewBackend(os.Stdout)
	level, ok := slog.LevelFromString(cfg.DebugLevel)
	if !ok {
		level = slog.LevelInfo
	}
	rootLog := backend.Logger(gateway.SubsystemGateway)
	rootLog.SetLevel(level)
	storeLog := backend.Logger(gateway.SubsystemStore)
	storeLog.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := buildStore(ctx, cfg.RedisURL, storeLog)
	if err != nil {
		return fmt.Errorf("build store: %w", err)
	}
	defer st.Close()

	reg := registry.New(st, backend.Logger("ROOM"))
	m := metrics.New()

	hub := gateway.New(gateway.Config{
		Registry:    reg,
		Log:         rootLog,
		Metrics:     m,
		CORSOrigins: cfg.CORSOrigins,
		Version:     cfg.Version,
		Environment: cfg.Environment,
	})

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go hub.RunSweep(sweepCtx)

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: hub.Router(),
	}

	serveErr := make(chan error, 1)
	go func() {
		rootLog.Infof("dicearena: listening on %s", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		rootLog.Info("dicearena: shutdown signal received, draining")
	case err := <-serveErr:
		return fmt.Errorf("serve: %w", err)
	}

	hub.Drain()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		rootLog.Warnf("dicearena: http shutdown error: %v", err)
	}
	return hub.Shutdown(shutdownCtx)
}

func buildStore(ctx context.Context, redisURL string, log slog.Logger) (store.Store, error) {
	memory := store.NewMemoryStore(time.Minute)
	if redisURL == "" {
		return memory, nil
	}
	redisStore, err := store.NewRedisStore(ctx, redisURL)
	if err != nil {
		log.Warnf("state store: redis unreachable at startup, falling back to in-process map: %v", err)
		return memory, nil
	}
	return store.NewDegradingStore(log, redisStore, memory), nil
}
