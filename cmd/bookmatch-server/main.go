package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hubenschmidt/go-bookmatch"
	"github.com/hubenschmidt/go-bookmatch/config"
	"github.com/hubenschmidt/go-bookmatch/logging"
	"github.com/hubenschmidt/go-bookmatch/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	app, err := bookmatch.Open(ctx, cfg, reg)
	if err != nil {
		logging.Fatal().Err(err).Msg("start engine")
	}
	defer app.Close()

	srv := server.New(server.Config{
		Engine:         app.Engine,
		Gatherer:       reg,
		RebuildTimeout: 10 * time.Minute,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	logging.Info().Str("addr", cfg.Server.Addr).Msg("bookmatch server listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Error().Err(err).Msg("server stopped")
	}
}
