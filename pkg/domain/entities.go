// Package domain defines the core persistent entities, value types, and
// rule evaluation primitives used by solarops.
package domain

import "time"

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityUser identifies an agent, customer, or installer account.
	EntityUser EntityType = "user"
	// EntityProject identifies an installation project record.
	EntityProject EntityType = "project"
	// EntityTask identifies an installer-facing work item.
	EntityTask EntityType = "task"
	// EntityComplaint identifies a customer complaint.
	EntityComplaint EntityType = "complaint"
	// EntityInventoryItem identifies a serialised piece of equipment.
	EntityInventoryItem EntityType = "inventory_item"
	// EntityInvoice identifies a customer invoice.
	EntityInvoice EntityType = "invoice"
	// EntityAttendance identifies a daily check-in record.
	EntityAttendance EntityType = "attendance"
)

// Base contains common fields for all primary records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User is an account acting in one of the dashboard roles.
type User struct {
	Base
	Name              string     `json:"name"`
	Email             string     `json:"email,omitempty"`
	Phone             string     `json:"phone,omitempty"`
	Role              Role       `json:"role"`
	Status            UserStatus `json:"status"`
	CustomerRefNumber string     `json:"customer_ref_number,omitempty"`
}

// IsActiveInstaller reports whether the user may receive installer tasks.
func (u User) IsActiveInstaller() bool {
	return u.Role == RoleInstaller && u.Status == UserStatusActive
}

// Project tracks a customer installation through the sales pipeline and
// operational status.
type Project struct {
	Base
	CustomerID           string        `json:"customer_id"`
	CustomerRefNumber    string        `json:"customer_ref_number"`
	AssignedTo           string        `json:"assigned_to,omitempty"`
	Title                string        `json:"title"`
	Location             string        `json:"location,omitempty"`
	Value                float64       `json:"value"`
	Type                 string        `json:"type,omitempty"`
	SerialNumbers        []string      `json:"serial_numbers"`
	Status               ProjectStatus `json:"status"`
	PipelineStage        PipelineStage `json:"pipeline_stage"`
	InstallationApproved bool          `json:"installation_approved"`
}

// Task is a unit of installer work. ProjectID may hold a synthetic
// complaint reference produced by escalation.
type Task struct {
	Base
	ProjectID         string     `json:"project_id,omitempty"`
	CustomerRefNumber string     `json:"customer_ref_number,omitempty"`
	AssignedTo        string     `json:"assigned_to"`
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	Status            TaskStatus `json:"status"`
	Type              TaskType   `json:"type"`
	DueDate           time.Time  `json:"due_date"`
	SerialNumbers     []string   `json:"serial_numbers"`
	Notes             string     `json:"notes,omitempty"`
}

// Complaint is a customer-reported issue that may be escalated into a Task.
type Complaint struct {
	Base
	CustomerID        string          `json:"customer_id"`
	CustomerRefNumber string          `json:"customer_ref_number"`
	Title             string          `json:"title"`
	Description       string          `json:"description,omitempty"`
	Priority          Priority        `json:"priority"`
	SerialNumber      string          `json:"serial_number,omitempty"`
	Status            ComplaintStatus `json:"status"`
	AssignedTo        string          `json:"assigned_to,omitempty"`
}

// InventoryItem is a piece of equipment keyed by serial number. Projects and
// tasks reference items by serial only.
type InventoryItem struct {
	Base
	SerialNumber   string          `json:"serial_number"`
	Model          string          `json:"model"`
	Type           string          `json:"type"`
	Status         InventoryStatus `json:"status"`
	InstallDate    *time.Time      `json:"install_date,omitempty"`
	WarrantyExpiry *time.Time      `json:"warranty_expiry,omitempty"`
}

// Invoice bills a customer for a project.
type Invoice struct {
	Base
	ProjectID  string        `json:"project_id"`
	CustomerID string        `json:"customer_id"`
	Amount     float64       `json:"amount"`
	Status     InvoiceStatus `json:"status"`
	IssuedAt   time.Time     `json:"issued_at"`
	DueDate    time.Time     `json:"due_date"`
}

// Attendance records a user's working day. Date is the calendar day key
// (YYYY-MM-DD) and CheckOut stays nil while the day is open.
type Attendance struct {
	Base
	UserID   string     `json:"user_id"`
	Date     string     `json:"date"`
	CheckIn  time.Time  `json:"check_in"`
	CheckOut *time.Time `json:"check_out,omitempty"`
	Location string     `json:"location,omitempty"`
}

// Open reports whether the record still awaits a check-out.
func (a Attendance) Open() bool { return a.CheckOut == nil }

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType    `json:"entity"`
	Action Action        `json:"action"`
	Before ChangePayload `json:"before"`
	After  ChangePayload `json:"after"`
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string     `json:"rule"`
	Severity Severity   `json:"severity"`
	Message  string     `json:"message"`
	Entity   EntityType `json:"entity"`
	EntityID string     `json:"entity_id,omitempty"`
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation `json:"violations,omitempty"`
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// Blocking returns the blocking subset of violations in evaluation order.
func (r Result) Blocking() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			out = append(out, v)
		}
	}
	return out
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	blocking := e.Result.Blocking()
	if len(blocking) == 0 {
		return "transaction blocked by rules"
	}
	return "transaction blocked by rules: " + blocking[0].Message
}
