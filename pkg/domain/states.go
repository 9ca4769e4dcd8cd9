package domain

// Role identifies which dashboard a user acts through.
type Role string

// Supported user roles.
const (
	RoleAgent     Role = "agent"
	RoleCustomer  Role = "customer"
	RoleInstaller Role = "installer"
)

// UserStatus marks whether an account may receive work.
type UserStatus string

// Supported user statuses.
const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

// ProjectStatus is the operational status of a project, independent of its
// pipeline stage.
type ProjectStatus string

// Canonical project statuses.
const (
	ProjectStatusPending    ProjectStatus = "pending"
	ProjectStatusApproved   ProjectStatus = "approved"
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusCompleted  ProjectStatus = "completed"
	ProjectStatusCancelled  ProjectStatus = "cancelled"
)

// PipelineStage is the sales and installation funnel position of a project.
type PipelineStage string

// Pipeline stages in funnel order.
const (
	StageLeadGenerated        PipelineStage = "lead_generated"
	StageQuotationSent        PipelineStage = "quotation_sent"
	StageBankProcess          PipelineStage = "bank_process"
	StageMeterApplied         PipelineStage = "meter_applied"
	StageReadyForInstallation PipelineStage = "ready_for_installation"
	StageInstallationComplete PipelineStage = "installation_complete"
	StageCommissioned         PipelineStage = "commissioned"
	StageActive               PipelineStage = "active"
)

// PipelineStages lists every stage in funnel order.
var PipelineStages = []PipelineStage{
	StageLeadGenerated,
	StageQuotationSent,
	StageBankProcess,
	StageMeterApplied,
	StageReadyForInstallation,
	StageInstallationComplete,
	StageCommissioned,
	StageActive,
}

// Index returns the zero-based funnel position of the stage or -1 when unknown.
func (s PipelineStage) Index() int {
	for i, stage := range PipelineStages {
		if stage == s {
			return i
		}
	}
	return -1
}

// Before reports whether s precedes other in the funnel.
func (s PipelineStage) Before(other PipelineStage) bool {
	i, j := s.Index(), other.Index()
	return i >= 0 && j >= 0 && i < j
}

// TaskStatus is the progress of an installer task.
type TaskStatus string

// Canonical task statuses.
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// TaskType classifies installer work.
type TaskType string

// Known task types.
const (
	TaskTypeInstallation TaskType = "installation"
	TaskTypeMaintenance  TaskType = "maintenance"
	TaskTypeInspection   TaskType = "inspection"
	TaskTypeSurvey       TaskType = "survey"
)

// ComplaintStatus tracks complaint resolution.
type ComplaintStatus string

// Canonical complaint statuses.
const (
	ComplaintStatusOpen       ComplaintStatus = "open"
	ComplaintStatusInProgress ComplaintStatus = "in_progress"
	ComplaintStatusResolved   ComplaintStatus = "resolved"
)

// Priority ranks complaint urgency.
type Priority string

// Complaint priorities from least to most urgent.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// InventoryStatus tracks where a piece of equipment is in its lifecycle.
type InventoryStatus string

// Canonical inventory statuses.
const (
	InventoryStatusAvailable   InventoryStatus = "available"
	InventoryStatusAssigned    InventoryStatus = "assigned"
	InventoryStatusInstalled   InventoryStatus = "installed"
	InventoryStatusMaintenance InventoryStatus = "maintenance"
)

// InvoiceStatus tracks billing progress.
type InvoiceStatus string

// Canonical invoice statuses.
const (
	InvoiceStatusDraft InvoiceStatus = "draft"
	InvoiceStatusSent  InvoiceStatus = "sent"
	InvoiceStatusPaid  InvoiceStatus = "paid"
)

// AttendanceKind selects the attendance action being recorded.
type AttendanceKind string

// Attendance actions.
const (
	CheckIn  AttendanceKind = "check_in"
	CheckOut AttendanceKind = "check_out"
)

// Valid reports whether the role is known.
func (r Role) Valid() bool {
	switch r {
	case RoleAgent, RoleCustomer, RoleInstaller:
		return true
	}
	return false
}

// Valid reports whether the status is known.
func (s UserStatus) Valid() bool {
	return s == UserStatusActive || s == UserStatusInactive
}

// Valid reports whether the status is known.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusPending, ProjectStatusApproved, ProjectStatusInProgress, ProjectStatusCompleted, ProjectStatusCancelled:
		return true
	}
	return false
}

// Valid reports whether the stage is known.
func (s PipelineStage) Valid() bool { return s.Index() >= 0 }

// Valid reports whether the status is known.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

// Valid reports whether the task type is known.
func (t TaskType) Valid() bool {
	switch t {
	case TaskTypeInstallation, TaskTypeMaintenance, TaskTypeInspection, TaskTypeSurvey:
		return true
	}
	return false
}

// Valid reports whether the status is known.
func (s ComplaintStatus) Valid() bool {
	switch s {
	case ComplaintStatusOpen, ComplaintStatusInProgress, ComplaintStatusResolved:
		return true
	}
	return false
}

// Valid reports whether the priority is known.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Valid reports whether the status is known.
func (s InventoryStatus) Valid() bool {
	switch s {
	case InventoryStatusAvailable, InventoryStatusAssigned, InventoryStatusInstalled, InventoryStatusMaintenance:
		return true
	}
	return false
}

// Valid reports whether the status is known.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid:
		return true
	}
	return false
}

// Valid reports whether the kind is known.
func (k AttendanceKind) Valid() bool { return k == CheckIn || k == CheckOut }

// ParsePipelineStage converts raw input into a known stage.
func ParsePipelineStage(raw string) (PipelineStage, error) {
	stage := PipelineStage(raw)
	if !stage.Valid() {
		return "", Invalidf("parse_pipeline_stage", EntityProject, "", "unknown pipeline stage %q", raw)
	}
	return stage, nil
}

// ParseProjectStatus converts raw input into a known project status.
func ParseProjectStatus(raw string) (ProjectStatus, error) {
	status := ProjectStatus(raw)
	if !status.Valid() {
		return "", Invalidf("parse_project_status", EntityProject, "", "unknown project status %q", raw)
	}
	return status, nil
}

// ParseTaskStatus converts raw input into a known task status.
func ParseTaskStatus(raw string) (TaskStatus, error) {
	status := TaskStatus(raw)
	if !status.Valid() {
		return "", Invalidf("parse_task_status", EntityTask, "", "unknown task status %q", raw)
	}
	return status, nil
}

// ParseComplaintStatus converts raw input into a known complaint status.
func ParseComplaintStatus(raw string) (ComplaintStatus, error) {
	status := ComplaintStatus(raw)
	if !status.Valid() {
		return "", Invalidf("parse_complaint_status", EntityComplaint, "", "unknown complaint status %q", raw)
	}
	return status, nil
}

// ParseAttendanceKind converts raw input into a known attendance action.
func ParseAttendanceKind(raw string) (AttendanceKind, error) {
	kind := AttendanceKind(raw)
	if !kind.Valid() {
		return "", Validationf("parse_attendance_kind", EntityAttendance, "unknown attendance kind %q", raw)
	}
	return kind, nil
}
