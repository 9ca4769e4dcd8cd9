package seed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kuhu42/solar-back-sub001/internal/core"
	"github.com/kuhu42/solar-back-sub001/pkg/domain"
)

func TestDemoFixtureApplies(t *testing.T) {
	fx, err := Demo()
	if err != nil {
		t.Fatalf("demo: %v", err)
	}
	svc := core.NewInMemoryService(nil)
	sum, err := Apply(context.Background(), svc, fx)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if sum.Users != 5 || sum.Projects != 2 || sum.Inventory != 3 || sum.Complaints != 1 || sum.Tasks != 1 || sum.Invoices != 1 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	project, err := svc.GetProject("project-1")
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if project.CustomerRefNumber != "CUST-001" || project.PipelineStage != domain.StageReadyForInstallation {
		t.Fatalf("unexpected project %+v", project)
	}
	complaint, err := svc.GetComplaint("complaint-1")
	if err != nil {
		t.Fatalf("get complaint: %v", err)
	}
	if complaint.CustomerRefNumber != "CUST-002" || complaint.Status != domain.ComplaintStatusOpen {
		t.Fatalf("unexpected complaint %+v", complaint)
	}
	item, err := svc.InventoryBySerial(context.Background(), "SP-0001")
	if err != nil || item.WarrantyExpiry == nil || item.WarrantyExpiry.Year() != 2034 {
		t.Fatalf("unexpected inventory item %+v (%v)", item, err)
	}
}

func TestDemoFixtureSupportsAssignment(t *testing.T) {
	fx, err := Demo()
	if err != nil {
		t.Fatalf("demo: %v", err)
	}
	svc := core.NewInMemoryService(nil)
	if _, err := Apply(context.Background(), svc, fx); err != nil {
		t.Fatalf("apply: %v", err)
	}
	out, _, err := svc.AssignInstaller(context.Background(), "project-1", "installer-1", "")
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if len(out.Task.SerialNumbers) != 2 {
		t.Fatalf("expected project serials on task, got %v", out.Task.SerialNumbers)
	}
	if _, _, err := svc.AssignInstaller(context.Background(), "project-2", "installer-2", ""); !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("expected inactive installer to be rejected, got %v", err)
	}
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	if _, err := Decode(strings.NewReader("users:\n  - id: u1\n    nickname: x\n")); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestDecodeEmptyInput(t *testing.T) {
	fx, err := Decode(strings.NewReader(""))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(fx.Users) != 0 {
		t.Fatalf("expected empty fixture")
	}
}

func TestApplyStopsAtFirstFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	body := "users:\n  - id: u1\n    name: A\n    role: agent\n  - id: u2\n    name: B\n    role: wizard\n  - id: u3\n    name: C\n    role: agent\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	fx, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	svc := core.NewInMemoryService(nil)
	sum, err := Apply(context.Background(), svc, fx)
	if !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if sum.Users != 1 || len(svc.ListUsers()) != 1 {
		t.Fatalf("expected only the first user committed, summary %+v users %d", sum, len(svc.ListUsers()))
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error")
	}
}
