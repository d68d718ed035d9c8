package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"generalize-service/generalize"
	"generalize-service/service"
	"generalize-service/session"
)

const shutdownTimeout = 10 * time.Second

func runServe(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	srv := service.NewServer(
		generalize.NewEngine(logger, cfg.Engine.Workers),
		session.NewStore(cfg.Session.MaxEntries, cfg.Session.MaxSessions),
		service.NewMetrics(reg),
		logger,
	)
	srv.Defaults = cfg.Engine.Defaults
	srv.Deadline = cfg.Request.Deadline

	ctx, stop := signalContext()
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	if cfg.GRPC.Listen != "" {
		lis, err := net.Listen("tcp", cfg.GRPC.Listen)
		if err != nil {
			return errors.Wrapf(err, "listening on %s", cfg.GRPC.Listen)
		}
		gs := grpc.NewServer()
		service.RegisterGeneralizerServer(gs, srv)
		g.Go(func() error {
			logger.Info("serving gRPC", slog.String("addr", lis.Addr().String()))
			return errors.Wrap(gs.Serve(lis), "gRPC server")
		})
		g.Go(func() error {
			<-ctx.Done()
			gs.GracefulStop()
			return nil
		})
	}

	if cfg.HTTP.Listen != "" {
		hs := &http.Server{
			Addr:              cfg.HTTP.Listen,
			Handler:           srv.Handler(reg),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			logger.Info("serving HTTP", slog.String("addr", hs.Addr))
			if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errors.Wrap(err, "HTTP server")
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return hs.Shutdown(shutdownCtx)
		})
	}

	err := g.Wait()
	logger.Info("server stopped")
	return err
}
