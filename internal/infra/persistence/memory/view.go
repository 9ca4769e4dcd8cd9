package memory

import "github.com/kuhu42/solar-back-sub001/pkg/domain"

// transactionView exposes a read-only snapshot of the transactional state to rules.
type transactionView struct {
	state *memoryState
}

var _ domain.TransactionView = transactionView{}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListUsers returns all users ordered by ID.
func (v transactionView) ListUsers() []User {
	out := make([]User, 0, len(v.state.users))
	for _, k := range sortedKeys(v.state.users) {
		out = append(out, v.state.users[k])
	}
	return out
}

// ListProjects returns all projects ordered by ID.
func (v transactionView) ListProjects() []Project {
	out := make([]Project, 0, len(v.state.projects))
	for _, k := range sortedKeys(v.state.projects) {
		out = append(out, cloneProject(v.state.projects[k]))
	}
	return out
}

// ListTasks returns all tasks ordered by ID.
func (v transactionView) ListTasks() []Task {
	out := make([]Task, 0, len(v.state.tasks))
	for _, k := range sortedKeys(v.state.tasks) {
		out = append(out, cloneTask(v.state.tasks[k]))
	}
	return out
}

// ListComplaints returns all complaints ordered by ID.
func (v transactionView) ListComplaints() []Complaint {
	out := make([]Complaint, 0, len(v.state.complaints))
	for _, k := range sortedKeys(v.state.complaints) {
		out = append(out, v.state.complaints[k])
	}
	return out
}

// ListInventoryItems returns all inventory items ordered by ID.
func (v transactionView) ListInventoryItems() []InventoryItem {
	out := make([]InventoryItem, 0, len(v.state.inventory))
	for _, k := range sortedKeys(v.state.inventory) {
		out = append(out, cloneInventoryItem(v.state.inventory[k]))
	}
	return out
}

// ListInvoices returns all invoices ordered by ID.
func (v transactionView) ListInvoices() []Invoice {
	out := make([]Invoice, 0, len(v.state.invoices))
	for _, k := range sortedKeys(v.state.invoices) {
		out = append(out, v.state.invoices[k])
	}
	return out
}

// ListAttendance returns all attendance records ordered by ID.
func (v transactionView) ListAttendance() []Attendance {
	out := make([]Attendance, 0, len(v.state.attendance))
	for _, k := range sortedKeys(v.state.attendance) {
		out = append(out, cloneAttendance(v.state.attendance[k]))
	}
	return out
}

// FindUser retrieves a user by ID from the snapshot.
func (v transactionView) FindUser(id string) (User, bool) {
	u, ok := v.state.users[id]
	return u, ok
}

// FindProject retrieves a project by ID from the snapshot.
func (v transactionView) FindProject(id string) (Project, bool) {
	p, ok := v.state.projects[id]
	if !ok {
		return Project{}, false
	}
	return cloneProject(p), true
}

// FindTask retrieves a task by ID from the snapshot.
func (v transactionView) FindTask(id string) (Task, bool) {
	t, ok := v.state.tasks[id]
	if !ok {
		return Task{}, false
	}
	return cloneTask(t), true
}

// FindComplaint retrieves a complaint by ID from the snapshot.
func (v transactionView) FindComplaint(id string) (Complaint, bool) {
	c, ok := v.state.complaints[id]
	return c, ok
}

// FindInventoryItem retrieves an inventory item by ID from the snapshot.
func (v transactionView) FindInventoryItem(id string) (InventoryItem, bool) {
	item, ok := v.state.inventory[id]
	if !ok {
		return InventoryItem{}, false
	}
	return cloneInventoryItem(item), true
}

// FindInventoryBySerial resolves a serial number through the index.
func (v transactionView) FindInventoryBySerial(serial string) (InventoryItem, bool) {
	id, ok := v.state.serialIndex[serial]
	if !ok {
		return InventoryItem{}, false
	}
	return v.FindInventoryItem(id)
}

// FindAttendance returns the record for userID on the given day key.
func (v transactionView) FindAttendance(userID, date string) (Attendance, bool) {
	for _, k := range sortedKeys(v.state.attendance) {
		a := v.state.attendance[k]
		if a.UserID == userID && a.Date == date {
			return cloneAttendance(a), true
		}
	}
	return Attendance{}, false
}
