package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/danyla1203/chess-live/internal/arena"
	appcfg "github.com/danyla1203/chess-live/internal/config"
	"github.com/danyla1203/chess-live/internal/gateway"
	"github.com/danyla1203/chess-live/internal/obslog"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}

	var store *arena.ResultStore
	if cfg.RedisURL != "" {
		store, err = arena.NewResultStore(cfg.RedisURL)
		if err != nil {
			obslog.L().Fatal("redis init failed", zap.Error(err))
		}
		defer func() { _ = store.Close() }()
	} else {
		obslog.L().Warn("REDIS_URL not set, result cache disabled")
	}

	var sink arena.ResultSink
	if cfg.DatabaseURL != "" {
		repo, err := arena.NewRepository(cfg.DatabaseURL)
		if err != nil {
			obslog.L().Fatal("repository init failed", zap.Error(err))
		}
		sink = repo
	} else {
		obslog.L().Warn("DATABASE_URL not set, results kept in memory")
		sink = arena.NewMemorySink()
	}
	defer func() { _ = sink.Close() }()

	mgr := arena.NewManager(sink, store)
	mgr.SetLimits(arena.Limits{
		MinTimeMs:      cfg.MinTimeMs,
		MaxTimeMs:      cfg.MaxTimeMs,
		MaxIncrementMs: cfg.MaxIncrementMs,
	})
	gw := gateway.New(mgr, nil)

	mux := http.NewServeMux()
	mux.Handle("/ws", gw)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		obslog.L().Info("server_listen", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		obslog.L().Info("server_shutdown", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			obslog.L().Fatal("server failed", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		obslog.L().Warn("shutdown incomplete", zap.Error(err))
	}
}
