// Package memory provides an in-memory implementation of the core persistence
// store used for tests and ephemeral environments.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kuhu42/solar-back-sub001/pkg/domain"
)

// Compile-time contract assertions ensuring memory.Store adheres to the domain persistence interfaces.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// User aliases domain.User for in-memory persistence operations.
	User = domain.User
	// Project aliases domain.Project.
	Project = domain.Project
	// Task aliases domain.Task.
	Task = domain.Task
	// Complaint aliases domain.Complaint.
	Complaint = domain.Complaint
	// InventoryItem aliases domain.InventoryItem.
	InventoryItem = domain.InventoryItem
	// Invoice aliases domain.Invoice.
	Invoice = domain.Invoice
	// Attendance aliases domain.Attendance.
	Attendance = domain.Attendance
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

type memoryState struct {
	users       map[string]User
	projects    map[string]Project
	tasks       map[string]Task
	complaints  map[string]Complaint
	inventory   map[string]InventoryItem
	invoices    map[string]Invoice
	attendance  map[string]Attendance
	serialIndex map[string]string // serial number -> inventory item id
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Users      map[string]User          `json:"users"`
	Projects   map[string]Project       `json:"projects"`
	Tasks      map[string]Task          `json:"tasks"`
	Complaints map[string]Complaint     `json:"complaints"`
	Inventory  map[string]InventoryItem `json:"inventory"`
	Invoices   map[string]Invoice       `json:"invoices"`
	Attendance map[string]Attendance    `json:"attendance"`
}

func newMemoryState() memoryState {
	return memoryState{
		users:       make(map[string]User),
		projects:    make(map[string]Project),
		tasks:       make(map[string]Task),
		complaints:  make(map[string]Complaint),
		inventory:   make(map[string]InventoryItem),
		invoices:    make(map[string]Invoice),
		attendance:  make(map[string]Attendance),
		serialIndex: make(map[string]string),
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.users {
		cloned.users[k] = v
	}
	for k, v := range s.projects {
		cloned.projects[k] = cloneProject(v)
	}
	for k, v := range s.tasks {
		cloned.tasks[k] = cloneTask(v)
	}
	for k, v := range s.complaints {
		cloned.complaints[k] = v
	}
	for k, v := range s.inventory {
		cloned.inventory[k] = cloneInventoryItem(v)
	}
	for k, v := range s.invoices {
		cloned.invoices[k] = v
	}
	for k, v := range s.attendance {
		cloned.attendance[k] = cloneAttendance(v)
	}
	for k, v := range s.serialIndex {
		cloned.serialIndex[k] = v
	}
	return cloned
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	cloned := state.clone()
	return Snapshot{
		Users:      cloned.users,
		Projects:   cloned.projects,
		Tasks:      cloned.tasks,
		Complaints: cloned.complaints,
		Inventory:  cloned.inventory,
		Invoices:   cloned.invoices,
		Attendance: cloned.attendance,
	}
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.Users {
		state.users[k] = v
	}
	for k, v := range s.Projects {
		state.projects[k] = cloneProject(v)
	}
	for k, v := range s.Tasks {
		state.tasks[k] = cloneTask(v)
	}
	for k, v := range s.Complaints {
		state.complaints[k] = v
	}
	for k, v := range s.Inventory {
		state.inventory[k] = cloneInventoryItem(v)
		if v.SerialNumber != "" {
			state.serialIndex[v.SerialNumber] = k
		}
	}
	for k, v := range s.Invoices {
		state.invoices[k] = v
	}
	for k, v := range s.Attendance {
		state.attendance[k] = cloneAttendance(v)
	}
	return state
}

// Store provides an in-memory transactional store for the core domain.
// Transactions are serialised: each runs against a clone of the committed
// state which replaces it only when the rules engine reports no blocking
// violation.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	return uuid.NewString()
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot and
// rebuilds the serial number index.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(snapshot)
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used for record timestamps.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// SetNowFunc overrides the timestamp provider. A nil fn restores wall-clock UTC.
func (s *Store) SetNowFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn == nil {
		fn = func() time.Time { return time.Now().UTC() }
	}
	s.nowFn = fn
}

// CommitHook receives the state a transaction is about to commit. It runs
// while the store lock is held; a non-nil error aborts the commit and the
// previously committed state stays in place.
type CommitHook func(ctx context.Context, next Snapshot) error

// RunInTransaction executes fn within a transactional copy of the store state.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	res, _, err := s.run(ctx, fn, nil)
	return res, err
}

// RunInTransactionWithChanges behaves like RunInTransaction and additionally
// returns the committed change list for notification fan-out.
func (s *Store) RunInTransactionWithChanges(ctx context.Context, fn func(tx Transaction) error) (Result, []Change, error) {
	return s.run(ctx, fn, nil)
}

// RunInTransactionWithCommit behaves like RunInTransactionWithChanges and
// calls hook before the new state replaces the committed one. Durable stores
// write their snapshot from the hook.
func (s *Store) RunInTransactionWithCommit(ctx context.Context, fn func(tx Transaction) error, hook CommitHook) (Result, []Change, error) {
	return s.run(ctx, fn, hook)
}

func (s *Store) run(ctx context.Context, fn func(tx Transaction) error, hook CommitHook) (Result, []Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, nil, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, nil, err
		}
		result = res
		if res.HasBlocking() {
			return res, nil, domain.RuleViolationError{Result: res}
		}
	}

	if hook != nil {
		if err := hook(ctx, snapshotFromMemoryState(tx.state)); err != nil {
			return result, nil, err
		}
	}
	s.state = tx.state
	return result, tx.changes, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

// GetUser returns a user by ID.
func (s *Store) GetUser(id string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.state.users[id]
	return u, ok
}

// GetProject returns a project by ID.
func (s *Store) GetProject(id string) (Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.projects[id]
	if !ok {
		return Project{}, false
	}
	return cloneProject(p), true
}

// GetTask returns a task by ID.
func (s *Store) GetTask(id string) (Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.state.tasks[id]
	if !ok {
		return Task{}, false
	}
	return cloneTask(t), true
}

// GetComplaint returns a complaint by ID.
func (s *Store) GetComplaint(id string) (Complaint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.state.complaints[id]
	return c, ok
}

// GetInventoryBySerial resolves the weak serial-number reference.
func (s *Store) GetInventoryBySerial(serial string) (InventoryItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.state.serialIndex[serial]
	if !ok {
		return InventoryItem{}, false
	}
	item, ok := s.state.inventory[id]
	if !ok {
		return InventoryItem{}, false
	}
	return cloneInventoryItem(item), true
}

// ListUsers returns all users sorted by ID.
func (s *Store) ListUsers() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListUsers()
}

// ListProjects returns all projects sorted by ID.
func (s *Store) ListProjects() []Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListProjects()
}

// ListTasks returns all tasks sorted by ID.
func (s *Store) ListTasks() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListTasks()
}

// ListComplaints returns all complaints sorted by ID.
func (s *Store) ListComplaints() []Complaint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListComplaints()
}

// ListInventoryItems returns all inventory items sorted by ID.
func (s *Store) ListInventoryItems() []InventoryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListInventoryItems()
}

// ListInvoices returns all invoices sorted by ID.
func (s *Store) ListInvoices() []Invoice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListInvoices()
}

// ListAttendance returns all attendance records sorted by ID.
func (s *Store) ListAttendance() []Attendance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListAttendance()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneProject(p Project) Project {
	p.SerialNumbers = cloneStrings(p.SerialNumbers)
	return p
}

func cloneTask(t Task) Task {
	t.SerialNumbers = cloneStrings(t.SerialNumbers)
	return t
}

func cloneInventoryItem(i InventoryItem) InventoryItem {
	i.InstallDate = cloneTimePtr(i.InstallDate)
	i.WarrantyExpiry = cloneTimePtr(i.WarrantyExpiry)
	return i
}

func cloneAttendance(a Attendance) Attendance {
	a.CheckOut = cloneTimePtr(a.CheckOut)
	return a
}
