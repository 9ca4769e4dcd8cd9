package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/kuhu42/solar-back-sub001/internal/blob"
	"github.com/kuhu42/solar-back-sub001/internal/config"
	"github.com/kuhu42/solar-back-sub001/internal/core"
	"github.com/kuhu42/solar-back-sub001/internal/notify"
	"github.com/kuhu42/solar-back-sub001/internal/scheduler"
	"github.com/kuhu42/solar-back-sub001/pkg/domain"
)

// app holds the wired process dependencies for one command invocation.
type app struct {
	cfg        config.Config
	logger     *slog.Logger
	store      domain.PersistentStore
	svc        *core.Service
	archive    *core.DocumentArchive
	queue      *scheduler.Queue
	dispatcher *core.Dispatcher
	hub        *notify.Hub
	redis      *redis.Client
	registry   *prometheus.Registry
	vars       *core.ExpvarMetricsRecorder
}

// serviceVars is published once per process because expvar names are global.
var serviceVars = sync.OnceValue(func() *core.ExpvarMetricsRecorder {
	return core.NewExpvarMetricsRecorder("solarops_service")
})

// openApp wires the process. A non-nil trace receives one JSON line per
// coordinator operation.
func openApp(ctx context.Context, cfg config.Config, logger *slog.Logger, trace io.Writer) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, hub: notify.NewHub(0), registry: prometheus.NewRegistry(), vars: serviceVars()}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	store, err := core.OpenPersistentStore(ctx, cfg.StorageOptions(), nil)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.store = store

	blobs, err := blob.Open(ctx, cfg.BlobOptions())
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	a.archive = core.NewDocumentArchive(blobs)

	notifiers := notify.Multi{a.hub}
	if cfg.Redis.URL != "" {
		client, err := notify.OpenRedis(ctx, cfg.Redis.URL)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.redis = client
		notifiers = append(notifiers, notify.NewRedisPublisher(client, cfg.Redis.Channel))
	}

	metrics, err := core.NewPrometheusMetricsRecorder(a.registry)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	svcOpts := []core.ServiceOption{
		core.WithLogger(logger),
		core.WithAuditRecorder(core.LogAuditRecorder{Logger: logger}),
		core.WithMetricsRecorder(core.MultiMetricsRecorder{metrics, a.vars}),
		core.WithNotifier(notifiers),
		core.WithLocation(loc),
	}
	if trace != nil {
		svcOpts = append(svcOpts, core.WithTracer(core.NewJSONTracer(trace)))
	}
	a.svc = core.NewService(store, svcOpts...)
	a.queue = scheduler.New(time.Now(), scheduler.WithLogger(logger))
	a.dispatcher = core.NewDispatcher(a.svc, a.queue, cfg.Latencies(), a.archive)
	logger.Debug("app opened",
		"storage", cfg.Storage.Driver,
		"blob", blobs.Driver(),
		"redis", a.redis != nil,
		"timezone", loc.String(),
	)
	return a, nil
}

// Close releases the store and Redis connections.
func (a *app) Close() error {
	var errs []error
	if closer, ok := a.store.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	return errors.Join(errs...)
}

// flush advances the queue past every configured latency so dispatched
// intents complete within a one-shot command.
func (a *app) flush(ctx context.Context) {
	lat := a.cfg.Latencies()
	a.queue.Advance(ctx, lat.CheckIn+lat.QuoteSend+time.Nanosecond)
}

// dispatchNow submits through the dispatcher and runs the queue until the
// ticket completes.
func dispatchNow[T any](ctx context.Context, a *app, submit func(*core.Dispatcher) *core.Ticket[T]) (T, domain.Result, error) {
	ticket := submit(a.dispatcher)
	a.flush(ctx)
	if err := ticket.Err(); err != nil {
		var zero T
		return zero, ticket.Result(), err
	}
	return ticket.Value(), ticket.Result(), nil
}
