// Command pgsentryd runs the safety-and-execution kernel's introspection
// and health HTTP surface. The RPC/tool-dispatch front end that drives
// Kernel.Query and Kernel.API is an external collaborator (spec.md §1) and
// connects to this process's exported Go API directly, not over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrymomot/pgsentry/internal/adminhttp"
	"github.com/dmitrymomot/pgsentry/internal/config"
	"github.com/dmitrymomot/pgsentry/internal/container"
	"github.com/dmitrymomot/pgsentry/pkg/health"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	kernel, err := container.New(ctx, cfg)
	if err != nil {
		slog.Error("failed to build kernel", slog.Any("error", err))
		os.Exit(1)
	}
	defer kernel.Close()

	checks := health.Checks{
		"database": func(ctx context.Context) error {
			return kernel.Pool.Ping(ctx)
		},
	}

	srv := adminhttp.NewServer(kernel.Logger, kernel.APIRisk, checks)
	srv.Addr = cfg.HTTPAddr

	go func() {
		kernel.Logger.Info("listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			kernel.Logger.Error("server failed", slog.Any("error", err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		kernel.Logger.Error("graceful shutdown failed", slog.Any("error", err))
	}
}
