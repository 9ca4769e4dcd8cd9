package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kuhu42/solar-back-sub001/internal/blob"
	"github.com/kuhu42/solar-back-sub001/internal/preview"
	"github.com/kuhu42/solar-back-sub001/internal/scheduler"
	"github.com/kuhu42/solar-back-sub001/pkg/domain"
)

const opSendQuote = "send_quote"

// ErrPending is returned by Ticket.Err before the job has run.
var ErrPending = errors.New("core: job has not run yet")

// Latency holds the simulated delays applied to slow intents.
type Latency struct {
	CheckIn   time.Duration
	QuoteSend time.Duration
}

// QuoteDelivery is the outcome of SendQuote.
type QuoteDelivery struct {
	Quote    domain.Quote     `json:"quote"`
	Document preview.Document `json:"document"`
	Message  preview.Message  `json:"message"`
	Archived blob.Info        `json:"archived"`
}

// Ticket tracks a dispatched intent. Value, Result and Err are meaningful
// once Done is closed.
type Ticket[T any] struct {
	name   string
	done   chan struct{}
	once   sync.Once
	value  T
	result domain.Result
	err    error
}

func newTicket[T any](name string) *Ticket[T] {
	return &Ticket[T]{name: name, done: make(chan struct{})}
}

// Name returns the intent name the ticket was submitted under.
func (t *Ticket[T]) Name() string { return t.name }

// Done is closed when the job has run.
func (t *Ticket[T]) Done() <-chan struct{} { return t.done }

// Value returns the produced entity, or the zero value while pending.
func (t *Ticket[T]) Value() T {
	if !t.finished() {
		var zero T
		return zero
	}
	return t.value
}

// Result returns the rule result of the committed transaction.
func (t *Ticket[T]) Result() domain.Result {
	if !t.finished() {
		return domain.Result{}
	}
	return t.result
}

// Err returns the job error, or ErrPending while the job has not run.
func (t *Ticket[T]) Err() error {
	if !t.finished() {
		return ErrPending
	}
	return t.err
}

// Wait blocks until the job has run or ctx is done. Something else must be
// advancing the queue.
func (t *Ticket[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.value, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (t *Ticket[T]) finished() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

func (t *Ticket[T]) complete(value T, res domain.Result, err error) {
	t.once.Do(func() {
		t.value, t.result, t.err = value, res, err
		close(t.done)
	})
}

// Dispatcher turns intents into queued jobs against a Service. Jobs run one
// at a time in (due time, submission) order, so intents submitted with equal
// delay apply in submission order.
type Dispatcher struct {
	svc     *Service
	queue   *scheduler.Queue
	latency Latency
	archive *DocumentArchive
}

// NewDispatcher binds svc to queue. archive may be nil, in which case sent
// quotations are not stored.
func NewDispatcher(svc *Service, queue *scheduler.Queue, latency Latency, archive *DocumentArchive) *Dispatcher {
	return &Dispatcher{svc: svc, queue: queue, latency: latency, archive: archive}
}

// Queue returns the underlying job queue.
func (d *Dispatcher) Queue() *scheduler.Queue { return d.queue }

// Service returns the wrapped service.
func (d *Dispatcher) Service() *Service { return d.svc }

// Archive returns the document archive, which may be nil.
func (d *Dispatcher) Archive() *DocumentArchive { return d.archive }

func submit[T any](d *Dispatcher, name string, delay time.Duration, fn func(ctx context.Context) (T, domain.Result, error)) *Ticket[T] {
	ticket := newTicket[T](name)
	d.queue.SubmitAfter(name, delay, func(ctx context.Context) {
		defer func() {
			if r := recover(); r != nil {
				var zero T
				err := fmt.Errorf("%s: panic: %v", name, r)
				d.svc.logger.Error("dispatched job panicked", "op", name, "error", err)
				ticket.complete(zero, domain.Result{}, err)
			}
		}()
		value, res, err := fn(ctx)
		ticket.complete(value, res, err)
	})
	return ticket
}

// CheckIn records the user's arrival after the check-in latency.
func (d *Dispatcher) CheckIn(userID, location string) *Ticket[domain.Attendance] {
	return submit(d, opCheckIn, d.latency.CheckIn, func(ctx context.Context) (domain.Attendance, domain.Result, error) {
		return d.svc.RecordAttendance(ctx, userID, domain.CheckIn, location)
	})
}

// CheckOut closes the user's attendance record after the check-in latency.
func (d *Dispatcher) CheckOut(userID, location string) *Ticket[domain.Attendance] {
	return submit(d, opCheckOut, d.latency.CheckIn, func(ctx context.Context) (domain.Attendance, domain.Result, error) {
		return d.svc.RecordAttendance(ctx, userID, domain.CheckOut, location)
	})
}

// SendQuote resolves the quote when the job runs, renders the document and
// WhatsApp draft, and archives the document. phone overrides the customer's
// phone number.
func (d *Dispatcher) SendQuote(sourceID string, amount float64, phone string) *Ticket[QuoteDelivery] {
	return submit(d, opSendQuote, d.latency.QuoteSend, func(ctx context.Context) (QuoteDelivery, domain.Result, error) {
		quote, err := d.svc.QuoteRequest(ctx, sourceID, amount)
		if err != nil {
			return QuoteDelivery{}, domain.Result{}, err
		}
		doc, err := preview.QuotationDocument(quote)
		if err != nil {
			return QuoteDelivery{}, domain.Result{}, err
		}
		msg, err := preview.WhatsAppMessage(quote, phone)
		if err != nil {
			return QuoteDelivery{}, domain.Result{}, &domain.Error{
				Kind:    domain.KindValidation,
				Op:      opSendQuote,
				Entity:  domain.EntityUser,
				ID:      quote.CustomerID,
				Message: "customer phone cannot receive messages",
				Err:     err,
			}
		}
		out := QuoteDelivery{Quote: quote, Document: doc, Message: msg}
		if d.archive != nil {
			info, err := d.archive.SaveQuotation(ctx, quote, doc)
			if err != nil {
				return QuoteDelivery{}, domain.Result{}, err
			}
			out.Archived = info
		}
		d.svc.logger.Info("quotation sent", "source_id", sourceID, "phone", msg.Phone, "archived", out.Archived.Key)
		return out, domain.Result{}, nil
	})
}

// UpdatePipelineStage queues a stage change.
func (d *Dispatcher) UpdatePipelineStage(projectID string, stage domain.PipelineStage) *Ticket[domain.Project] {
	return submit(d, opUpdatePipelineStage, 0, func(ctx context.Context) (domain.Project, domain.Result, error) {
		return d.svc.UpdatePipelineStage(ctx, projectID, stage)
	})
}

// UpdateProjectStatus queues a project status change.
func (d *Dispatcher) UpdateProjectStatus(projectID string, status domain.ProjectStatus) *Ticket[domain.Project] {
	return submit(d, opUpdateProjectStatus, 0, func(ctx context.Context) (domain.Project, domain.Result, error) {
		return d.svc.UpdateProjectStatus(ctx, projectID, status)
	})
}

// ApproveInstallation queues an installation approval.
func (d *Dispatcher) ApproveInstallation(projectID string) *Ticket[domain.Project] {
	return submit(d, opApproveInstallation, 0, func(ctx context.Context) (domain.Project, domain.Result, error) {
		return d.svc.ApproveInstallation(ctx, projectID)
	})
}

// AssignInstaller queues an installer assignment.
func (d *Dispatcher) AssignInstaller(projectID, installerID, agentID string) *Ticket[Assignment] {
	return submit(d, opAssignInstaller, 0, func(ctx context.Context) (Assignment, domain.Result, error) {
		return d.svc.AssignInstaller(ctx, projectID, installerID, agentID)
	})
}

// EscalateComplaint queues a complaint escalation.
func (d *Dispatcher) EscalateComplaint(complaintID, installerID string) *Ticket[domain.Task] {
	return submit(d, opEscalateComplaint, 0, func(ctx context.Context) (domain.Task, domain.Result, error) {
		return d.svc.EscalateComplaintToTask(ctx, complaintID, installerID)
	})
}

// UpdateTaskStatus queues a task status change.
func (d *Dispatcher) UpdateTaskStatus(taskID string, status domain.TaskStatus) *Ticket[domain.Task] {
	return submit(d, opUpdateTaskStatus, 0, func(ctx context.Context) (domain.Task, domain.Result, error) {
		return d.svc.UpdateTaskStatus(ctx, taskID, status)
	})
}

// UpdateComplaintStatus queues a complaint status change.
func (d *Dispatcher) UpdateComplaintStatus(complaintID string, status domain.ComplaintStatus) *Ticket[domain.Complaint] {
	return submit(d, opUpdateComplaintStatus, 0, func(ctx context.Context) (domain.Complaint, domain.Result, error) {
		return d.svc.UpdateComplaintStatus(ctx, complaintID, status)
	})
}
