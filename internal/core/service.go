package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kuhu42/solar-back-sub001/pkg/domain"
)

// Service is the lifecycle coordinator. Every mutating operation runs inside a
// single store transaction and either commits its whole mutation set or
// leaves the store untouched.
type Service struct {
	store    domain.PersistentStore
	engine   *domain.RulesEngine
	clock    Clock
	now      func() time.Time
	logger   Logger
	audit    AuditRecorder
	metrics  MetricsRecorder
	tracer   Tracer
	notifier Notifier
	location *time.Location
	mu       sync.RWMutex
}

// NewService constructs a service backed by the supplied store.
func NewService(store domain.PersistentStore, opts ...ServiceOption) *Service {
	options := defaultServiceOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	now := selectNowFunc(store, options.clock)
	clock := options.clock
	if clock == nil {
		clock = ClockFunc(now)
	}
	return &Service{
		store:    store,
		engine:   extractRulesEngine(store),
		clock:    clock,
		now:      now,
		logger:   options.logger,
		audit:    options.audit,
		metrics:  options.metrics,
		tracer:   options.tracer,
		notifier: options.notifier,
		location: options.location,
	}
}

// NewInMemoryService creates a service and in-memory store with the given
// rules engine, falling back to the default rule set when engine is nil.
func NewInMemoryService(engine *domain.RulesEngine, opts ...ServiceOption) *Service {
	if engine == nil {
		engine = NewDefaultRulesEngine()
	}
	return NewService(NewMemoryStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() domain.PersistentStore {
	return s.store
}

// RegisterRule adds a rule to the active engine. Rules registered while a
// transaction is running take effect from the next transaction.
func (s *Service) RegisterRule(rule domain.Rule) bool {
	if rule == nil || s.engine == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Register(rule)
	return true
}

// Location returns the time zone that defines an attendance calendar day.
func (s *Service) Location() *time.Location {
	return s.location
}

type changeReporter interface {
	RunInTransactionWithChanges(ctx context.Context, fn func(domain.Transaction) error) (domain.Result, []domain.Change, error)
}

type rulesEngineProvider interface {
	RulesEngine() *domain.RulesEngine
}

type nowFuncProvider interface {
	NowFunc() func() time.Time
}

func extractRulesEngine(store domain.PersistentStore) *domain.RulesEngine {
	if provider, ok := store.(rulesEngineProvider); ok {
		return provider.RulesEngine()
	}
	return nil
}

func selectNowFunc(store domain.PersistentStore, clock Clock) func() time.Time {
	if provider, ok := store.(nowFuncProvider); ok {
		if fn := provider.NowFunc(); fn != nil {
			return func() time.Time { return fn().UTC() }
		}
	}
	if clock != nil {
		return clock.Now
	}
	return func() time.Time { return time.Now().UTC() }
}

// run executes fn in one store transaction and wraps it with tracing,
// metrics, audit, logging and post-commit notification. fn returns the id of
// the entity the operation is about.
func (s *Service) run(ctx context.Context, op string, fn func(tx domain.Transaction) (string, error)) (domain.Result, error) {
	ctx, span := s.tracer.Start(ctx, op)
	started := time.Now()

	s.mu.RLock()
	var entityID string
	body := func(tx domain.Transaction) error {
		id, err := fn(tx)
		entityID = id
		return err
	}
	var (
		res     domain.Result
		changes []domain.Change
		err     error
	)
	if reporter, ok := s.store.(changeReporter); ok {
		res, changes, err = reporter.RunInTransactionWithChanges(ctx, body)
	} else {
		res, err = s.store.RunInTransaction(ctx, body)
	}
	s.mu.RUnlock()

	duration := time.Since(started)
	if err != nil {
		err = translateError(op, err)
		s.logger.Error("operation failed", "op", op, "entity_id", entityID, "kind", string(domain.KindOf(err)), "error", err)
		s.recordAuditFailure(ctx, op, entityID, duration, err)
		s.metrics.Observe(ctx, op, false, duration)
		span.End(err)
		return res, err
	}

	for _, v := range res.Violations {
		s.logger.Warn("rule warning", "op", op, "rule", v.Rule, "entity", string(v.Entity), "entity_id", v.EntityID, "message", v.Message)
	}
	s.logger.Info("operation committed", "op", op, "entity_id", entityID, "changes", len(changes), "duration", duration)
	s.recordAuditSuccess(ctx, op, entityID, duration)
	s.metrics.Observe(ctx, op, true, duration)
	span.End(nil)

	if len(changes) > 0 {
		if nErr := s.notifier.Notify(ctx, changes); nErr != nil {
			s.logger.Warn("change notification failed", "op", op, "error", nErr)
		}
	}
	return res, nil
}

// observe wraps a read-only operation with tracing and metrics.
func (s *Service) observe(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, op)
	started := time.Now()
	err := fn(ctx)
	duration := time.Since(started)
	if err != nil {
		s.logger.Debug("query failed", "op", op, "error", err)
	}
	s.metrics.Observe(ctx, op, err == nil, duration)
	span.End(err)
	return err
}

type operationMeta struct {
	entity domain.EntityType
	action domain.Action
}

var operationCatalog = map[string]operationMeta{
	opCreateUser:            {domain.EntityUser, domain.ActionCreate},
	opUpdateUser:            {domain.EntityUser, domain.ActionUpdate},
	opCreateProject:         {domain.EntityProject, domain.ActionCreate},
	opUpdatePipelineStage:   {domain.EntityProject, domain.ActionUpdate},
	opUpdateProjectStatus:   {domain.EntityProject, domain.ActionUpdate},
	opApproveInstallation:   {domain.EntityProject, domain.ActionUpdate},
	opAssignInstaller:       {domain.EntityTask, domain.ActionCreate},
	opCreateTask:            {domain.EntityTask, domain.ActionCreate},
	opUpdateTaskStatus:      {domain.EntityTask, domain.ActionUpdate},
	opCreateComplaint:       {domain.EntityComplaint, domain.ActionCreate},
	opUpdateComplaintStatus: {domain.EntityComplaint, domain.ActionUpdate},
	opEscalateComplaint:     {domain.EntityTask, domain.ActionCreate},
	opCreateInventoryItem:   {domain.EntityInventoryItem, domain.ActionCreate},
	opUpdateInventoryStatus: {domain.EntityInventoryItem, domain.ActionUpdate},
	opDeleteInventoryItem:   {domain.EntityInventoryItem, domain.ActionDelete},
	opCreateInvoice:         {domain.EntityInvoice, domain.ActionCreate},
	opUpdateInvoiceStatus:   {domain.EntityInvoice, domain.ActionUpdate},
	opCheckIn:               {domain.EntityAttendance, domain.ActionCreate},
	opCheckOut:              {domain.EntityAttendance, domain.ActionUpdate},
}

func (s *Service) recordAuditSuccess(ctx context.Context, op, entityID string, duration time.Duration) {
	meta, ok := operationCatalog[op]
	if !ok {
		return
	}
	s.audit.Record(ctx, AuditEntry{
		Operation: op,
		Entity:    meta.entity,
		Action:    meta.action,
		EntityID:  entityID,
		Status:    AuditStatusSuccess,
		Duration:  duration,
		Timestamp: s.now(),
	})
}

func (s *Service) recordAuditFailure(ctx context.Context, op, entityID string, duration time.Duration, err error) {
	meta, ok := operationCatalog[op]
	if !ok {
		return
	}
	s.audit.Record(ctx, AuditEntry{
		Operation: op,
		Entity:    meta.entity,
		Action:    meta.action,
		EntityID:  entityID,
		Status:    AuditStatusError,
		Error:     err.Error(),
		Duration:  duration,
		Timestamp: s.now(),
	})
}

// ruleKinds maps blocking rules to the failure kind surfaced to callers.
var ruleKinds = map[string]domain.ErrorKind{
	ruleLifecycleTransition:   domain.KindInvalidTransition,
	ruleInstallationApproval:  domain.KindInvalidTransition,
	ruleSingleInstallation:    domain.KindAlreadyAssigned,
	ruleAttendanceDailyUnique: domain.KindDuplicateCheckIn,
}

// translateError converts store and rule failures into typed domain errors.
// Errors that are already typed pass through unchanged.
func translateError(op string, err error) error {
	var typed *domain.Error
	if errors.As(err, &typed) {
		return err
	}
	var nf domain.ErrNotFound
	if errors.As(err, &nf) {
		out := domain.NotFound(op, nf.Entity, nf.ID)
		out.Err = err
		return out
	}
	var violation domain.RuleViolationError
	if errors.As(err, &violation) {
		blocking := violation.Result.Blocking()
		if len(blocking) == 0 {
			return &domain.Error{Kind: domain.KindInvalidTransition, Op: op, Message: "blocked by rules", Err: err}
		}
		first := blocking[0]
		kind, ok := ruleKinds[first.Rule]
		if !ok {
			kind = domain.KindInvalidTransition
		}
		return &domain.Error{Kind: kind, Op: op, Entity: first.Entity, ID: first.EntityID, Message: first.Message, Err: err}
	}
	return err
}
