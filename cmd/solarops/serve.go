package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kuhu42/solar-back-sub001/internal/api"
	"github.com/kuhu42/solar-back-sub001/internal/scheduler"
)

const shutdownTimeout = 5 * time.Second

func serveCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API, change stream and job scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				if addr == "" {
					addr = a.cfg.HTTP.Addr
				}
				return serve(ctx, a, addr)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to http.addr)")
	return cmd
}

// serve runs the HTTP server and the scheduler driver until ctx is done or
// either fails.
func serve(ctx context.Context, a *app, addr string) error {
	handler, err := api.New(api.Config{
		Dispatcher:  a.dispatcher,
		Hub:         a.hub,
		CORSOrigins: a.cfg.HTTP.CORSOrigins,
		Gatherer:    a.registry,
		Logger:      a.logger,
	})
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		err := scheduler.Driver{Queue: a.queue}.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down", "pending_jobs", a.queue.Pending())
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
