package core

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/kuhu42/solar-back-sub001/pkg/domain"
)

func TestOpenPersistentStoreDrivers(t *testing.T) {
	ctx := context.Background()
	mem, err := OpenPersistentStore(ctx, StorageConfig{Driver: StorageMemory}, nil)
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if _, ok := mem.(io.Closer); ok {
		t.Fatalf("memory store should not need closing")
	}
	if _, err := OpenPersistentStore(ctx, StorageConfig{Driver: "redis"}, nil); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "solarops.db")
	store, err := OpenPersistentStore(ctx, StorageConfig{SQLitePath: path}, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	svc := NewService(store)
	if _, _, err := svc.CreateUser(ctx, domain.User{Base: domain.Base{ID: "installer-1"}, Name: "Meena", Role: domain.RoleInstaller}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, _, err := svc.CreateProject(ctx, domain.Project{Base: domain.Base{ID: "project-1"}, Title: "Rooftop"}); err != nil {
		t.Fatalf("create project: %v", err)
	}
	if _, _, err := svc.AssignInstaller(ctx, "project-1", "installer-1", "agent-1"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := store.(io.Closer).Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenPersistentStore(ctx, StorageConfig{Driver: StorageSQLite, SQLitePath: path}, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.(io.Closer).Close()
	svc = NewService(reopened)
	p, err := svc.GetProject("project-1")
	if err != nil || p.Status != domain.ProjectStatusInProgress {
		t.Fatalf("project after reopen: %+v %v", p, err)
	}
	if tasks := svc.TasksForProject("project-1"); len(tasks) != 1 {
		t.Fatalf("expected installation task after reopen, got %d", len(tasks))
	}
	_, _, err = svc.AssignInstaller(ctx, "project-1", "installer-1", "")
	if !domain.IsKind(err, domain.KindAlreadyAssigned) {
		t.Fatalf("rules must apply to reopened state, got %v", err)
	}
}
