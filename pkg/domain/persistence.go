package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope. Every mutation made through a
// transaction is either committed together or discarded together.
type Transaction interface {
	Snapshot() TransactionView
	CreateUser(User) (User, error)
	UpdateUser(id string, mutator func(*User) error) (User, error)
	CreateProject(Project) (Project, error)
	UpdateProject(id string, mutator func(*Project) error) (Project, error)
	DeleteProject(id string) error
	CreateTask(Task) (Task, error)
	UpdateTask(id string, mutator func(*Task) error) (Task, error)
	DeleteTask(id string) error
	CreateComplaint(Complaint) (Complaint, error)
	UpdateComplaint(id string, mutator func(*Complaint) error) (Complaint, error)
	CreateInventoryItem(InventoryItem) (InventoryItem, error)
	UpdateInventoryItem(id string, mutator func(*InventoryItem) error) (InventoryItem, error)
	DeleteInventoryItem(id string) error
	CreateInvoice(Invoice) (Invoice, error)
	UpdateInvoice(id string, mutator func(*Invoice) error) (Invoice, error)
	CreateAttendance(Attendance) (Attendance, error)
	UpdateAttendance(id string, mutator func(*Attendance) error) (Attendance, error)
	FindUser(id string) (User, bool)
	FindProject(id string) (Project, bool)
	FindTask(id string) (Task, bool)
	FindComplaint(id string) (Complaint, bool)
	FindInventoryBySerial(serial string) (InventoryItem, bool)
	FindAttendance(userID, date string) (Attendance, bool)
}

// TransactionView provides read-only access to snapshot data for rules and
// read paths.
type TransactionView interface {
	ListUsers() []User
	ListProjects() []Project
	ListTasks() []Task
	ListComplaints() []Complaint
	ListInventoryItems() []InventoryItem
	ListInvoices() []Invoice
	ListAttendance() []Attendance
	FindUser(id string) (User, bool)
	FindProject(id string) (Project, bool)
	FindTask(id string) (Task, bool)
	FindComplaint(id string) (Complaint, bool)
	FindInventoryItem(id string) (InventoryItem, bool)
	FindInventoryBySerial(serial string) (InventoryItem, bool)
	FindAttendance(userID, date string) (Attendance, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetUser(id string) (User, bool)
	GetProject(id string) (Project, bool)
	GetTask(id string) (Task, bool)
	GetComplaint(id string) (Complaint, bool)
	ListUsers() []User
	ListProjects() []Project
	ListTasks() []Task
	ListComplaints() []Complaint
	ListInventoryItems() []InventoryItem
	ListInvoices() []Invoice
	ListAttendance() []Attendance
}
