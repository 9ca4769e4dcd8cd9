package core

import (
	"context"
	"fmt"
	"time"

	"github.com/kuhu42/solar-back-sub001/pkg/domain"
)

// Operation names used for logging, audit, metrics and error ops.
const (
	opCreateUser            = "create_user"
	opUpdateUser            = "update_user"
	opCreateProject         = "create_project"
	opUpdatePipelineStage   = "update_pipeline_stage"
	opUpdateProjectStatus   = "update_project_status"
	opApproveInstallation   = "approve_installation"
	opAssignInstaller       = "assign_installer"
	opCreateTask            = "create_task"
	opUpdateTaskStatus      = "update_task_status"
	opCreateComplaint       = "create_complaint"
	opUpdateComplaintStatus = "update_complaint_status"
	opEscalateComplaint     = "escalate_complaint"
	opCreateInventoryItem   = "create_inventory_item"
	opUpdateInventoryStatus = "update_inventory_status"
	opDeleteInventoryItem   = "delete_inventory_item"
	opCreateInvoice         = "create_invoice"
	opUpdateInvoiceStatus   = "update_invoice_status"
	opCheckIn               = "attendance_check_in"
	opCheckOut              = "attendance_check_out"
	opQuoteRequest          = "quote_request"
)

// TaskDueWindow is the time between task creation and its due date.
const TaskDueWindow = 7 * 24 * time.Hour

// ComplaintTaskPrefix prefixes the synthetic project id of escalated tasks.
const ComplaintTaskPrefix = "complaint-"

// Assignment is the pair of entities written by AssignInstaller.
type Assignment struct {
	Project domain.Project `json:"project"`
	Task    domain.Task    `json:"task"`
}

// UpdatePipelineStage moves a project to any known stage. Regressions are
// allowed so operators can correct mistakes.
func (s *Service) UpdatePipelineStage(ctx context.Context, projectID string, stage domain.PipelineStage) (domain.Project, domain.Result, error) {
	var updated domain.Project
	res, err := s.run(ctx, opUpdatePipelineStage, func(tx domain.Transaction) (string, error) {
		if !stage.Valid() {
			return projectID, domain.Invalidf(opUpdatePipelineStage, domain.EntityProject, projectID, "unknown pipeline stage %q", stage)
		}
		if _, ok := tx.FindProject(projectID); !ok {
			return projectID, domain.NotFound(opUpdatePipelineStage, domain.EntityProject, projectID)
		}
		project, err := tx.UpdateProject(projectID, func(p *domain.Project) error {
			p.PipelineStage = stage
			return nil
		})
		if err != nil {
			return projectID, err
		}
		updated = project
		return projectID, nil
	})
	return updated, res, err
}

// UpdateProjectStatus sets a project's operational status. Completing a
// project requires an approved installation.
func (s *Service) UpdateProjectStatus(ctx context.Context, projectID string, status domain.ProjectStatus) (domain.Project, domain.Result, error) {
	var updated domain.Project
	res, err := s.run(ctx, opUpdateProjectStatus, func(tx domain.Transaction) (string, error) {
		if !status.Valid() {
			return projectID, domain.Invalidf(opUpdateProjectStatus, domain.EntityProject, projectID, "unknown project status %q", status)
		}
		current, ok := tx.FindProject(projectID)
		if !ok {
			return projectID, domain.NotFound(opUpdateProjectStatus, domain.EntityProject, projectID)
		}
		if status == domain.ProjectStatusCompleted && !current.InstallationApproved {
			return projectID, domain.Invalidf(opUpdateProjectStatus, domain.EntityProject, projectID, "project %s cannot be completed before installation is approved", projectID)
		}
		project, err := tx.UpdateProject(projectID, func(p *domain.Project) error {
			p.Status = status
			return nil
		})
		if err != nil {
			return projectID, err
		}
		updated = project
		return projectID, nil
	})
	return updated, res, err
}

// ApproveInstallation marks a project's installation as approved.
func (s *Service) ApproveInstallation(ctx context.Context, projectID string) (domain.Project, domain.Result, error) {
	var updated domain.Project
	res, err := s.run(ctx, opApproveInstallation, func(tx domain.Transaction) (string, error) {
		project, err := tx.UpdateProject(projectID, func(p *domain.Project) error {
			p.InstallationApproved = true
			return nil
		})
		if err != nil {
			return projectID, err
		}
		updated = project
		return projectID, nil
	})
	return updated, res, err
}

// AssignInstaller creates the installation task for a project and moves the
// project to in_progress. A project holds at most one installation task.
// agentID names the assigning agent; when empty the project's agent is used.
func (s *Service) AssignInstaller(ctx context.Context, projectID, installerID, agentID string) (Assignment, domain.Result, error) {
	var out Assignment
	res, err := s.run(ctx, opAssignInstaller, func(tx domain.Transaction) (string, error) {
		project, ok := tx.FindProject(projectID)
		if !ok {
			return projectID, domain.NotFound(opAssignInstaller, domain.EntityProject, projectID)
		}
		if err := requireActiveInstaller(tx, opAssignInstaller, installerID); err != nil {
			return projectID, err
		}
		for _, task := range tx.Snapshot().ListTasks() {
			if task.ProjectID == projectID && task.Type == domain.TaskTypeInstallation {
				return projectID, domain.AlreadyAssignedf(opAssignInstaller, domain.EntityProject, projectID, "project %s already has installation task %s", projectID, task.ID)
			}
		}

		if agentID == "" {
			agentID = project.AssignedTo
		}
		now := s.clock.Now()
		task, err := tx.CreateTask(domain.Task{
			ProjectID:         projectID,
			CustomerRefNumber: project.CustomerRefNumber,
			AssignedTo:        installerID,
			Title:             "Install: " + project.Title,
			Description:       project.Location,
			Status:            domain.TaskStatusPending,
			Type:              domain.TaskTypeInstallation,
			DueDate:           now.Add(TaskDueWindow),
			SerialNumbers:     append([]string{}, project.SerialNumbers...),
			Notes:             "assigned by " + agentID,
		})
		if err != nil {
			return projectID, err
		}
		updated, err := tx.UpdateProject(projectID, func(p *domain.Project) error {
			p.Status = domain.ProjectStatusInProgress
			return nil
		})
		if err != nil {
			return projectID, err
		}
		out = Assignment{Project: updated, Task: task}
		return projectID, nil
	})
	return out, res, err
}

// EscalateComplaintToTask converts a complaint into a maintenance task for
// an installer. The task's project id links back to the complaint; the
// complaint's own status is left for an explicit transition.
func (s *Service) EscalateComplaintToTask(ctx context.Context, complaintID, installerID string) (domain.Task, domain.Result, error) {
	var created domain.Task
	res, err := s.run(ctx, opEscalateComplaint, func(tx domain.Transaction) (string, error) {
		complaint, ok := tx.FindComplaint(complaintID)
		if !ok {
			return complaintID, domain.NotFound(opEscalateComplaint, domain.EntityComplaint, complaintID)
		}
		if err := requireActiveInstaller(tx, opEscalateComplaint, installerID); err != nil {
			return complaintID, err
		}
		serials := []string{}
		if complaint.SerialNumber != "" {
			serials = []string{complaint.SerialNumber}
		}
		task, err := tx.CreateTask(domain.Task{
			ProjectID:         ComplaintTaskPrefix + complaint.ID,
			CustomerRefNumber: complaint.CustomerRefNumber,
			AssignedTo:        installerID,
			Title:             "Complaint: " + complaint.Title,
			Description:       complaint.Description,
			Status:            domain.TaskStatusPending,
			Type:              domain.TaskTypeMaintenance,
			DueDate:           s.clock.Now().Add(TaskDueWindow),
			SerialNumbers:     serials,
			Notes:             fmt.Sprintf("escalated from complaint %s (priority %s)", complaint.ID, complaint.Priority),
		})
		if err != nil {
			return complaintID, err
		}
		created = task
		return task.ID, nil
	})
	return created, res, err
}

// RecordAttendance opens or closes the user's attendance record for the
// current calendar day in the service location.
func (s *Service) RecordAttendance(ctx context.Context, userID string, kind domain.AttendanceKind, location string) (domain.Attendance, domain.Result, error) {
	op := opCheckIn
	if kind == domain.CheckOut {
		op = opCheckOut
	}
	var record domain.Attendance
	res, err := s.run(ctx, op, func(tx domain.Transaction) (string, error) {
		if !kind.Valid() {
			return userID, domain.Validationf(op, domain.EntityAttendance, "unknown attendance kind %q", kind)
		}
		if _, ok := tx.FindUser(userID); !ok {
			return userID, domain.NotFound(op, domain.EntityUser, userID)
		}
		now := s.clock.Now()
		day := DayKey(now, s.location)
		existing, found := tx.FindAttendance(userID, day)

		if kind == domain.CheckIn {
			if found {
				return userID, domain.Errorf(domain.KindDuplicateCheckIn, op, domain.EntityAttendance, existing.ID, "user %s already checked in on %s", userID, day)
			}
			created, err := tx.CreateAttendance(domain.Attendance{
				UserID:   userID,
				Date:     day,
				CheckIn:  now,
				Location: location,
			})
			if err != nil {
				return userID, err
			}
			record = created
			return created.ID, nil
		}

		if !found || !existing.Open() {
			return userID, domain.Errorf(domain.KindNoOpenCheckIn, op, domain.EntityAttendance, existing.ID, "user %s has no open check-in on %s", userID, day)
		}
		updated, err := tx.UpdateAttendance(existing.ID, func(a *domain.Attendance) error {
			out := now
			a.CheckOut = &out
			if a.Location == "" {
				a.Location = location
			}
			return nil
		})
		if err != nil {
			return userID, err
		}
		record = updated
		return updated.ID, nil
	})
	return record, res, err
}

// UpdateTaskStatus applies an explicit task status change. Completing a task
// never advances its project's pipeline stage.
func (s *Service) UpdateTaskStatus(ctx context.Context, taskID string, status domain.TaskStatus) (domain.Task, domain.Result, error) {
	var updated domain.Task
	res, err := s.run(ctx, opUpdateTaskStatus, func(tx domain.Transaction) (string, error) {
		if !status.Valid() {
			return taskID, domain.Invalidf(opUpdateTaskStatus, domain.EntityTask, taskID, "unknown task status %q", status)
		}
		task, err := tx.UpdateTask(taskID, func(t *domain.Task) error {
			t.Status = status
			return nil
		})
		if err != nil {
			return taskID, err
		}
		updated = task
		return taskID, nil
	})
	return updated, res, err
}

// UpdateComplaintStatus applies an explicit complaint status change.
func (s *Service) UpdateComplaintStatus(ctx context.Context, complaintID string, status domain.ComplaintStatus) (domain.Complaint, domain.Result, error) {
	var updated domain.Complaint
	res, err := s.run(ctx, opUpdateComplaintStatus, func(tx domain.Transaction) (string, error) {
		if !status.Valid() {
			return complaintID, domain.Invalidf(opUpdateComplaintStatus, domain.EntityComplaint, complaintID, "unknown complaint status %q", status)
		}
		complaint, err := tx.UpdateComplaint(complaintID, func(c *domain.Complaint) error {
			c.Status = status
			return nil
		})
		if err != nil {
			return complaintID, err
		}
		updated = complaint
		return complaintID, nil
	})
	return updated, res, err
}

// DayKey formats t as the YYYY-MM-DD calendar day in loc.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("2006-01-02")
}

func requireActiveInstaller(tx domain.Transaction, op, installerID string) error {
	user, ok := tx.FindUser(installerID)
	if !ok {
		return domain.NotFound(op, domain.EntityUser, installerID)
	}
	if !user.IsActiveInstaller() {
		return domain.Validationf(op, domain.EntityUser, "user %s is not an active installer", installerID)
	}
	return nil
}
