package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/kuhu42/solar-back-sub001/pkg/domain"
)

func TestSQLiteStorePersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	store, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	if store.Path() != path {
		t.Fatalf("expected path %s, got %s", path, store.Path())
	}
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, e := tx.CreateProject(domain.Project{Base: domain.Base{ID: "p1"}, Title: "Rooftop 5kW", SerialNumbers: []string{"SP001"}}); e != nil {
			return e
		}
		_, e := tx.CreateInventoryItem(domain.InventoryItem{Base: domain.Base{ID: "i1"}, SerialNumber: "SP001"})
		return e
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reloaded, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	t.Cleanup(func() { _ = reloaded.Close() })
	if got := len(reloaded.ListProjects()); got != 1 {
		t.Fatalf("expected 1 project, got %d", got)
	}
	item, ok := reloaded.GetInventoryBySerial("SP001")
	if !ok || item.ID != "i1" {
		t.Fatalf("expected serial index rebuilt on load, got %+v", item)
	}
}

func TestSQLiteStoreDoesNotPersistFailedTransactions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	boom := errors.New("boom")
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, e := tx.CreateUser(domain.User{Name: "Asha"}); e != nil {
			return e
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	var rows int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM state`).Scan(&rows); err != nil {
		t.Fatalf("count state rows: %v", err)
	}
	if rows != 0 {
		t.Fatalf("expected no snapshot rows after failure, got %d", rows)
	}
}

func TestSQLiteStoreReportsChanges(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "state.db"), nil)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	_, changes, err := store.RunInTransactionWithChanges(context.Background(), func(tx domain.Transaction) error {
		_, e := tx.CreateComplaint(domain.Complaint{Title: "Low output"})
		return e
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(changes) != 1 || changes[0].Entity != domain.EntityComplaint {
		t.Fatalf("expected one complaint change, got %+v", changes)
	}
	var rows int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM state`).Scan(&rows); err != nil {
		t.Fatalf("count state rows: %v", err)
	}
	if rows == 0 {
		t.Fatalf("expected snapshot rows after commit")
	}
}

func TestSQLiteStoreKeepsStateWhenSnapshotFails(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "state.db"), nil)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, e := tx.CreateProject(domain.Project{Base: domain.Base{ID: "p0"}, Title: "Existing"})
		return e
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := store.DB().Close(); err != nil {
		t.Fatalf("close db: %v", err)
	}

	_, changes, err := store.RunInTransactionWithChanges(context.Background(), func(tx domain.Transaction) error {
		_, e := tx.CreateProject(domain.Project{Base: domain.Base{ID: "p1"}, Title: "Rooftop 5kW"})
		return e
	})
	if err == nil {
		t.Fatalf("expected snapshot failure on closed database")
	}
	if changes != nil {
		t.Fatalf("expected no changes reported, got %+v", changes)
	}
	if _, ok := store.GetProject("p1"); ok {
		t.Fatalf("expected failed commit to leave p1 invisible")
	}
	if got := len(store.ListProjects()); got != 1 {
		t.Fatalf("expected only the earlier project, got %d", got)
	}
}
