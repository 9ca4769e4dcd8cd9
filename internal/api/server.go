// Package api exposes the coordinator over HTTP: JSON endpoints under
// /api/v1, a websocket change stream, Prometheus and expvar metrics and a
// health probe.
package api

import (
	"errors"
	"expvar"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/kuhu42/solar-back-sub001/internal/core"
	"github.com/kuhu42/solar-back-sub001/internal/notify"
)

// BasePath prefixes every JSON endpoint.
const BasePath = "/api/v1"

// Config wires the HTTP handler.
type Config struct {
	Dispatcher  *core.Dispatcher
	Hub         *notify.Hub
	CORSOrigins []string
	Gatherer    prometheus.Gatherer
	Logger      *slog.Logger
}

type server struct {
	svc      *core.Service
	dispatch *core.Dispatcher
	hub      *notify.Hub
	validate *validator.Validate
	logger   *slog.Logger
}

// New returns the HTTP handler. Mutating intents go through the dispatcher
// and the handler waits for the queued job, so something must be driving the
// dispatcher's queue.
func New(cfg Config) (http.Handler, error) {
	if cfg.Dispatcher == nil {
		return nil, errors.New("api: dispatcher is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	s := &server{
		svc:      cfg.Dispatcher.Service(),
		dispatch: cfg.Dispatcher,
		hub:      cfg.Hub,
		validate: newValidator(),
		logger:   logger,
	}

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(c.Handler)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Handle("/debug/vars", expvar.Handler())
	if s.hub != nil {
		r.Get("/events", s.streamEvents)
	}
	r.Route(BasePath, s.routes)
	return r, nil
}

func (s *server) routes(r chi.Router) {
	r.Get("/users", s.listUsers)
	r.Post("/users", s.createUser)
	r.Get("/users/{id}", s.getUser)
	r.Post("/users/{id}/status", s.setUserStatus)

	r.Get("/projects", s.listProjects)
	r.Post("/projects", s.createProject)
	r.Get("/projects/{id}", s.getProject)
	r.Post("/projects/{id}/stage", s.updatePipelineStage)
	r.Post("/projects/{id}/status", s.updateProjectStatus)
	r.Post("/projects/{id}/approve", s.approveInstallation)
	r.Post("/projects/{id}/assign", s.assignInstaller)

	r.Get("/tasks", s.listTasks)
	r.Post("/tasks", s.createTask)
	r.Get("/tasks/{id}", s.getTask)
	r.Post("/tasks/{id}/status", s.updateTaskStatus)

	r.Get("/complaints", s.listComplaints)
	r.Post("/complaints", s.createComplaint)
	r.Get("/complaints/{id}", s.getComplaint)
	r.Post("/complaints/{id}/status", s.updateComplaintStatus)
	r.Post("/complaints/{id}/escalate", s.escalateComplaint)

	r.Get("/inventory", s.listInventory)
	r.Post("/inventory", s.createInventoryItem)
	r.Post("/inventory/resolve", s.resolveSerials)
	r.Get("/inventory/serial/{serial}", s.inventoryBySerial)
	r.Post("/inventory/{id}/status", s.updateInventoryStatus)
	r.Delete("/inventory/{id}", s.deleteInventoryItem)

	r.Get("/invoices", s.listInvoices)
	r.Post("/invoices", s.createInvoice)
	r.Post("/invoices/{id}/status", s.updateInvoiceStatus)

	r.Get("/attendance", s.listAttendance)
	r.Post("/attendance/check-in", s.checkIn)
	r.Post("/attendance/check-out", s.checkOut)

	r.Post("/quotes", s.quoteRequest)
	r.Post("/quotes/send", s.sendQuote)
	r.Get("/quotes/{sourceId}/documents", s.listDocuments)
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(started),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
