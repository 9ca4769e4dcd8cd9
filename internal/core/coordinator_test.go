package core

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/kuhu42/solar-back-sub001/pkg/domain"
)

var fixedNow = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc   *Service
	clock *manualClock
}

type manualClock struct{ now time.Time }

func (c *manualClock) Now() time.Time { return c.now }

func newFixture(t *testing.T, opts ...ServiceOption) fixture {
	t.Helper()
	clock := &manualClock{now: fixedNow}
	svc := NewInMemoryService(nil, append([]ServiceOption{WithClock(clock)}, opts...)...)
	ctx := context.Background()

	users := []domain.User{
		{Base: domain.Base{ID: "agent-1"}, Name: "Ravi", Role: domain.RoleAgent},
		{Base: domain.Base{ID: "installer-1"}, Name: "Meena", Role: domain.RoleInstaller},
		{Base: domain.Base{ID: "installer-2"}, Name: "Arjun", Role: domain.RoleInstaller, Status: domain.UserStatusInactive},
		{Base: domain.Base{ID: "customer-1"}, Name: "Asha Rao", Phone: "+91 81234 56789", Role: domain.RoleCustomer, CustomerRefNumber: "CUST-001"},
	}
	for _, u := range users {
		if _, _, err := svc.CreateUser(ctx, u); err != nil {
			t.Fatalf("create user %s: %v", u.ID, err)
		}
	}
	if _, _, err := svc.CreateInventoryItem(ctx, domain.InventoryItem{Base: domain.Base{ID: "inv-1"}, SerialNumber: "SP-0001", Model: "540W", Type: "panel"}); err != nil {
		t.Fatalf("create inventory: %v", err)
	}
	if _, _, err := svc.CreateProject(ctx, domain.Project{
		Base:          domain.Base{ID: "project-1"},
		CustomerID:    "customer-1",
		AssignedTo:    "agent-1",
		Title:         "Rooftop 5kW",
		Location:      "Pune",
		Value:         250000,
		SerialNumbers: []string{"SP-0001"},
	}); err != nil {
		t.Fatalf("create project: %v", err)
	}
	if _, _, err := svc.CreateComplaint(ctx, domain.Complaint{
		Base:         domain.Base{ID: "complaint-1"},
		CustomerID:   "customer-1",
		Title:        "Inverter fault",
		Description:  "Red light",
		Priority:     domain.PriorityHigh,
		SerialNumber: "SP-0001",
	}); err != nil {
		t.Fatalf("create complaint: %v", err)
	}
	return fixture{svc: svc, clock: clock}
}

func TestCreateProjectCopiesCustomerReference(t *testing.T) {
	f := newFixture(t)
	p, err := f.svc.GetProject("project-1")
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if p.CustomerRefNumber != "CUST-001" {
		t.Fatalf("expected customer ref copied, got %q", p.CustomerRefNumber)
	}
	if p.Status != domain.ProjectStatusPending || p.PipelineStage != domain.StageLeadGenerated {
		t.Fatalf("unexpected defaults %s/%s", p.Status, p.PipelineStage)
	}
}

func TestUpdatePipelineStageAllowsAnyKnownStage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, stage := range []domain.PipelineStage{domain.StageCommissioned, domain.StageLeadGenerated, domain.StageBankProcess} {
		p, _, err := f.svc.UpdatePipelineStage(ctx, "project-1", stage)
		if err != nil {
			t.Fatalf("stage %s: %v", stage, err)
		}
		if p.PipelineStage != stage {
			t.Fatalf("expected %s, got %s", stage, p.PipelineStage)
		}
	}
	p, _ := f.svc.GetProject("project-1")
	if p.Status != domain.ProjectStatusPending {
		t.Fatalf("stage change must not touch status, got %s", p.Status)
	}
}

func TestUpdatePipelineStageIsIdempotent(t *testing.T) {
	ctx := context.Background()
	once, twice := newFixture(t), newFixture(t)
	if _, _, err := once.svc.UpdatePipelineStage(ctx, "project-1", domain.StageBankProcess); err != nil {
		t.Fatalf("single apply: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, _, err := twice.svc.UpdatePipelineStage(ctx, "project-1", domain.StageBankProcess); err != nil {
			t.Fatalf("apply %d: %v", i+1, err)
		}
	}
	a, _ := once.svc.GetProject("project-1")
	b, _ := twice.svc.GetProject("project-1")
	a.Base, b.Base = domain.Base{ID: a.ID}, domain.Base{ID: b.ID}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("repeated stage update diverged:\n once %+v\ntwice %+v", a, b)
	}
	if len(once.svc.ListTasks()) != len(twice.svc.ListTasks()) || len(twice.svc.ListTasks()) != 0 {
		t.Fatalf("stage updates must not create tasks")
	}
}

func TestCreateWithExistingIDIsValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _, err := f.svc.CreateProject(ctx, domain.Project{Base: domain.Base{ID: "project-1"}, CustomerID: "customer-1", Title: "Again"})
	if !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("expected validation error, got %v (kind %q)", err, domain.KindOf(err))
	}
	_, _, err = f.svc.CreateUser(ctx, domain.User{Base: domain.Base{ID: "agent-1"}, Name: "Ravi", Role: domain.RoleAgent})
	if !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("expected validation error for user, got %v", err)
	}
	p, _ := f.svc.GetProject("project-1")
	if p.Title != "Rooftop 5kW" {
		t.Fatalf("existing project overwritten: %+v", p)
	}
}

func TestUpdatePipelineStageRejectsUnknownStage(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.svc.UpdatePipelineStage(context.Background(), "project-1", "teleported")
	if !domain.IsKind(err, domain.KindInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	p, _ := f.svc.GetProject("project-1")
	if p.PipelineStage != domain.StageLeadGenerated {
		t.Fatalf("stage must be unchanged, got %s", p.PipelineStage)
	}
}

func TestMutationsOnMissingEntitiesReturnNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cases := map[string]error{}
	_, _, cases["stage"] = f.svc.UpdatePipelineStage(ctx, "nope", domain.StageBankProcess)
	_, _, cases["status"] = f.svc.UpdateProjectStatus(ctx, "nope", domain.ProjectStatusApproved)
	_, _, cases["approve"] = f.svc.ApproveInstallation(ctx, "nope")
	_, _, cases["assign"] = f.svc.AssignInstaller(ctx, "nope", "installer-1", "")
	_, _, cases["escalate"] = f.svc.EscalateComplaintToTask(ctx, "nope", "installer-1")
	_, _, cases["task"] = f.svc.UpdateTaskStatus(ctx, "nope", domain.TaskStatusCompleted)
	_, _, cases["complaint"] = f.svc.UpdateComplaintStatus(ctx, "nope", domain.ComplaintStatusResolved)
	_, _, cases["check_in"] = f.svc.RecordAttendance(ctx, "nope", domain.CheckIn, "")
	for name, err := range cases {
		if !domain.IsKind(err, domain.KindNotFound) {
			t.Fatalf("%s: expected not found, got %v", name, err)
		}
	}
}

func TestCompletingProjectRequiresApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _, err := f.svc.UpdateProjectStatus(ctx, "project-1", domain.ProjectStatusCompleted)
	if !domain.IsKind(err, domain.KindInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if p, _ := f.svc.GetProject("project-1"); p.Status != domain.ProjectStatusPending {
		t.Fatalf("rejected completion must leave status pending, got %s", p.Status)
	}
	if _, _, err := f.svc.ApproveInstallation(ctx, "project-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	p, _, err := f.svc.UpdateProjectStatus(ctx, "project-1", domain.ProjectStatusCompleted)
	if err != nil {
		t.Fatalf("complete after approval: %v", err)
	}
	if p.Status != domain.ProjectStatusCompleted || !p.InstallationApproved {
		t.Fatalf("unexpected project %+v", p)
	}
}

func TestUpdateProjectStatusRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.svc.UpdateProjectStatus(context.Background(), "project-1", "paused")
	if !domain.IsKind(err, domain.KindInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestAssignInstallerCreatesSingleInstallationTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	out, res, err := f.svc.AssignInstaller(ctx, "project-1", "installer-1", "")
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if res.HasBlocking() {
		t.Fatalf("unexpected blocking result %+v", res)
	}
	task := out.Task
	if task.Type != domain.TaskTypeInstallation || task.Status != domain.TaskStatusPending {
		t.Fatalf("unexpected task %+v", task)
	}
	if task.AssignedTo != "installer-1" || task.ProjectID != "project-1" || task.CustomerRefNumber != "CUST-001" {
		t.Fatalf("unexpected task links %+v", task)
	}
	if task.Title != "Install: Rooftop 5kW" || task.Description != "Pune" || task.Notes != "assigned by agent-1" {
		t.Fatalf("unexpected task text %+v", task)
	}
	if !task.DueDate.Equal(fixedNow.Add(TaskDueWindow)) {
		t.Fatalf("unexpected due date %s", task.DueDate)
	}
	if len(task.SerialNumbers) != 1 || task.SerialNumbers[0] != "SP-0001" {
		t.Fatalf("unexpected serials %v", task.SerialNumbers)
	}
	if out.Project.Status != domain.ProjectStatusInProgress {
		t.Fatalf("expected in_progress, got %s", out.Project.Status)
	}

	_, _, err = f.svc.AssignInstaller(ctx, "project-1", "installer-1", "agent-9")
	if !domain.IsKind(err, domain.KindAlreadyAssigned) {
		t.Fatalf("expected already assigned, got %v", err)
	}
	if n := len(f.svc.TasksForProject("project-1")); n != 1 {
		t.Fatalf("expected one task, got %d", n)
	}
}

func TestAssignInstallerUsesExplicitAgent(t *testing.T) {
	f := newFixture(t)
	out, _, err := f.svc.AssignInstaller(context.Background(), "project-1", "installer-1", "agent-7")
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if out.Task.Notes != "assigned by agent-7" {
		t.Fatalf("unexpected notes %q", out.Task.Notes)
	}
}

func TestAssignInstallerRejectsUnsuitableUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _, err := f.svc.AssignInstaller(ctx, "project-1", "ghost", "")
	if !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected not found for missing installer, got %v", err)
	}
	for _, id := range []string{"installer-2", "agent-1"} {
		_, _, err := f.svc.AssignInstaller(ctx, "project-1", id, "")
		if !domain.IsKind(err, domain.KindValidation) {
			t.Fatalf("%s: expected validation failure, got %v", id, err)
		}
	}
	p, _ := f.svc.GetProject("project-1")
	if p.Status != domain.ProjectStatusPending || len(f.svc.ListTasks()) != 0 {
		t.Fatalf("failed assignment must not write anything")
	}
}

func TestDirectSecondInstallationTaskIsBlockedByRule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, _, err := f.svc.AssignInstaller(ctx, "project-1", "installer-1", ""); err != nil {
		t.Fatalf("assign: %v", err)
	}
	_, _, err := f.svc.CreateTask(ctx, domain.Task{ProjectID: "project-1", AssignedTo: "installer-1", Title: "again", Type: domain.TaskTypeInstallation})
	if !domain.IsKind(err, domain.KindAlreadyAssigned) {
		t.Fatalf("expected already assigned from rule, got %v", err)
	}
}

func TestEscalateComplaintCreatesMaintenanceTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task, _, err := f.svc.EscalateComplaintToTask(ctx, "complaint-1", "installer-1")
	if err != nil {
		t.Fatalf("escalate: %v", err)
	}
	if task.ProjectID != "complaint-complaint-1" || task.Type != domain.TaskTypeMaintenance {
		t.Fatalf("unexpected task %+v", task)
	}
	if task.Title != "Complaint: Inverter fault" || task.Description != "Red light" || task.CustomerRefNumber != "CUST-001" {
		t.Fatalf("unexpected task text %+v", task)
	}
	if !strings.Contains(task.Notes, "priority high") {
		t.Fatalf("expected priority in notes, got %q", task.Notes)
	}
	if len(task.SerialNumbers) != 1 || task.SerialNumbers[0] != "SP-0001" {
		t.Fatalf("unexpected serials %v", task.SerialNumbers)
	}
	c, _ := f.svc.GetComplaint("complaint-1")
	if c.Status != domain.ComplaintStatusOpen {
		t.Fatalf("escalation must leave complaint status, got %s", c.Status)
	}

	again, _, err := f.svc.EscalateComplaintToTask(ctx, "complaint-1", "installer-1")
	if err != nil {
		t.Fatalf("second escalation: %v", err)
	}
	if again.ID == task.ID {
		t.Fatalf("expected a distinct task")
	}
	if n := len(f.svc.TasksAssignedTo("installer-1")); n != 2 {
		t.Fatalf("expected two tasks for installer, got %d", n)
	}
}

func TestEscalateComplaintWithoutSerial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, _, err := f.svc.CreateComplaint(ctx, domain.Complaint{Base: domain.Base{ID: "complaint-2"}, CustomerID: "customer-1", Title: "Billing"}); err != nil {
		t.Fatalf("create complaint: %v", err)
	}
	task, _, err := f.svc.EscalateComplaintToTask(ctx, "complaint-2", "installer-1")
	if err != nil {
		t.Fatalf("escalate: %v", err)
	}
	if len(task.SerialNumbers) != 0 {
		t.Fatalf("expected no serials, got %v", task.SerialNumbers)
	}
	if _, _, err := f.svc.EscalateComplaintToTask(ctx, "complaint-2", "installer-2"); !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("expected inactive installer rejected, got %v", err)
	}
}

func TestAttendanceCheckInAndOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in, _, err := f.svc.RecordAttendance(ctx, "installer-1", domain.CheckIn, "Pune")
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	if in.Date != "2024-05-01" || !in.Open() || !in.CheckIn.Equal(fixedNow) {
		t.Fatalf("unexpected record %+v", in)
	}
	_, _, err = f.svc.RecordAttendance(ctx, "installer-1", domain.CheckIn, "Pune")
	if !domain.IsKind(err, domain.KindDuplicateCheckIn) {
		t.Fatalf("expected duplicate check-in, got %v", err)
	}

	f.clock.now = fixedNow.Add(8 * time.Hour)
	out, _, err := f.svc.RecordAttendance(ctx, "installer-1", domain.CheckOut, "")
	if err != nil {
		t.Fatalf("check out: %v", err)
	}
	if out.ID != in.ID || out.CheckOut == nil || !out.CheckOut.Equal(f.clock.now) || out.Location != "Pune" {
		t.Fatalf("unexpected record %+v", out)
	}
	_, _, err = f.svc.RecordAttendance(ctx, "installer-1", domain.CheckOut, "")
	if !domain.IsKind(err, domain.KindNoOpenCheckIn) {
		t.Fatalf("expected no open check-in after closing, got %v", err)
	}
	_, _, err = f.svc.RecordAttendance(ctx, "installer-1", domain.CheckIn, "")
	if !domain.IsKind(err, domain.KindDuplicateCheckIn) {
		t.Fatalf("expected a closed day to still block check-in, got %v", err)
	}

	f.clock.now = fixedNow.Add(24 * time.Hour)
	if _, _, err := f.svc.RecordAttendance(ctx, "installer-1", domain.CheckIn, ""); err != nil {
		t.Fatalf("next day check in: %v", err)
	}
	if n := len(f.svc.AttendanceForUser("installer-1")); n != 2 {
		t.Fatalf("expected two records, got %d", n)
	}
}

func TestCheckOutWithoutCheckIn(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.svc.RecordAttendance(context.Background(), "agent-1", domain.CheckOut, "")
	if !domain.IsKind(err, domain.KindNoOpenCheckIn) {
		t.Fatalf("expected no open check-in, got %v", err)
	}
}

func TestAttendanceDayFollowsServiceLocation(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	f := newFixture(t, WithLocation(kolkata))
	f.clock.now = time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)
	rec, _, err := f.svc.RecordAttendance(context.Background(), "installer-1", domain.CheckIn, "")
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	if rec.Date != "2024-05-02" {
		t.Fatalf("expected Kolkata day key, got %s", rec.Date)
	}
	if f.svc.Location() != kolkata {
		t.Fatalf("unexpected location %v", f.svc.Location())
	}
}

func TestUpdateTaskStatusNeverAdvancesStage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	out, _, err := f.svc.AssignInstaller(ctx, "project-1", "installer-1", "")
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	task, _, err := f.svc.UpdateTaskStatus(ctx, out.Task.ID, domain.TaskStatusCompleted)
	if err != nil {
		t.Fatalf("update task: %v", err)
	}
	if task.Status != domain.TaskStatusCompleted {
		t.Fatalf("unexpected status %s", task.Status)
	}
	p, _ := f.svc.GetProject("project-1")
	if p.PipelineStage != domain.StageLeadGenerated {
		t.Fatalf("stage must not advance, got %s", p.PipelineStage)
	}
	if _, _, err := f.svc.UpdateTaskStatus(ctx, out.Task.ID, "done"); !domain.IsKind(err, domain.KindInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestUpdateComplaintStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, _, err := f.svc.UpdateComplaintStatus(ctx, "complaint-1", domain.ComplaintStatusResolved)
	if err != nil {
		t.Fatalf("update complaint: %v", err)
	}
	if c.Status != domain.ComplaintStatusResolved {
		t.Fatalf("unexpected status %s", c.Status)
	}
	if _, _, err := f.svc.UpdateComplaintStatus(ctx, "complaint-1", "closed"); !domain.IsKind(err, domain.KindInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestQuoteRequestForProjectAndComplaint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q, err := f.svc.QuoteRequest(ctx, "project-1", 0)
	if err != nil {
		t.Fatalf("project quote: %v", err)
	}
	if q.SourceKind != domain.QuoteSourceProject || q.Amount != 250000 || q.CustomerName != "Asha Rao" || q.Location != "Pune" {
		t.Fatalf("unexpected quote %+v", q)
	}
	if !q.Date.Equal(fixedNow) {
		t.Fatalf("unexpected quote date %s", q.Date)
	}

	q, err = f.svc.QuoteRequest(ctx, "complaint-1", 4500)
	if err != nil {
		t.Fatalf("complaint quote: %v", err)
	}
	if q.SourceKind != domain.QuoteSourceComplaint || q.Amount != 4500 || q.CustomerRefNumber != "CUST-001" || q.CustomerPhone != "+91 81234 56789" {
		t.Fatalf("unexpected quote %+v", q)
	}

	if _, err := f.svc.QuoteRequest(ctx, "missing", 0); !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := f.svc.QuoteRequest(ctx, "project-1", -1); !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("expected validation, got %v", err)
	}
}

func TestQuoteRequestRequiresNamedCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, _, err := f.svc.CreateProject(ctx, domain.Project{Base: domain.Base{ID: "orphan"}, CustomerID: "nobody", Title: "x"}); err != nil {
		t.Fatalf("create project: %v", err)
	}
	if _, err := f.svc.QuoteRequest(ctx, "orphan", 10); !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected not found for missing customer, got %v", err)
	}
}

func TestSerialResolution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.svc.ResolveSerials(ctx, []string{"SP-0001", "ZZ-9"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(res.Found) != 1 || res.Found[0].ID != "inv-1" || len(res.Missing) != 1 || res.Missing[0] != "ZZ-9" {
		t.Fatalf("unexpected resolution %+v", res)
	}
	if _, err := f.svc.InventoryBySerial(ctx, "ZZ-9"); !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestInventoryLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item, _, err := f.svc.UpdateInventoryStatus(ctx, "inv-1", domain.InventoryStatusInstalled)
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if item.InstallDate == nil || !item.InstallDate.Equal(fixedNow) {
		t.Fatalf("expected install date stamped, got %v", item.InstallDate)
	}
	if _, _, err := f.svc.CreateInventoryItem(ctx, domain.InventoryItem{SerialNumber: "SP-0001"}); !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("expected duplicate serial rejected, got %v", err)
	}
	if _, err := f.svc.DeleteInventoryItem(ctx, "inv-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	p, _ := f.svc.GetProject("project-1")
	if len(p.SerialNumbers) != 1 {
		t.Fatalf("deleting inventory must leave project serials, got %v", p.SerialNumbers)
	}
}

func TestTaskWithUnknownSerialCommitsWithWarning(t *testing.T) {
	f := newFixture(t)
	task, res, err := f.svc.CreateTask(context.Background(), domain.Task{AssignedTo: "installer-1", Title: "Inspect", Type: domain.TaskTypeInspection, SerialNumbers: []string{"ZZ-9"}})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if len(res.Violations) != 1 || res.Violations[0].Rule != ruleTaskSerialReference {
		t.Fatalf("expected serial warning, got %+v", res.Violations)
	}
	if !task.DueDate.Equal(fixedNow.Add(TaskDueWindow)) {
		t.Fatalf("unexpected due date %s", task.DueDate)
	}
}

func TestInvoices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv, _, err := f.svc.CreateInvoice(ctx, domain.Invoice{ProjectID: "project-1", Amount: 1000})
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	if inv.CustomerID != "customer-1" || inv.Status != domain.InvoiceStatusDraft {
		t.Fatalf("unexpected invoice %+v", inv)
	}
	if !inv.DueDate.Equal(inv.IssuedAt.Add(30 * 24 * time.Hour)) {
		t.Fatalf("unexpected due date %s", inv.DueDate)
	}
	if _, _, err := f.svc.CreateInvoice(ctx, domain.Invoice{ProjectID: "ghost"}); !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, _, err := f.svc.CreateInvoice(ctx, domain.Invoice{ProjectID: "project-1", Amount: -5}); !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("expected validation, got %v", err)
	}
	paid, _, err := f.svc.UpdateInvoiceStatus(ctx, inv.ID, domain.InvoiceStatusPaid)
	if err != nil || paid.Status != domain.InvoiceStatusPaid {
		t.Fatalf("mark paid: %+v %v", paid, err)
	}
}

func TestUserManagement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, _, err := f.svc.CreateUser(ctx, domain.User{Name: "x", Role: "wizard"}); !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("expected unknown role rejected, got %v", err)
	}
	u, _, err := f.svc.SetUserStatus(ctx, "installer-2", domain.UserStatusActive)
	if err != nil || !u.IsActiveInstaller() {
		t.Fatalf("activate installer: %+v %v", u, err)
	}
	if _, _, err := f.svc.AssignInstaller(ctx, "project-1", "installer-2", ""); err != nil {
		t.Fatalf("reactivated installer should be assignable: %v", err)
	}
}

func TestDayKey(t *testing.T) {
	ts := time.Date(2024, 12, 31, 23, 30, 0, 0, time.UTC)
	if got := DayKey(ts, nil); got != "2024-12-31" {
		t.Fatalf("unexpected utc key %s", got)
	}
	if got := DayKey(ts, time.FixedZone("IST", 5*3600+1800)); got != "2025-01-01" {
		t.Fatalf("unexpected shifted key %s", got)
	}
}
