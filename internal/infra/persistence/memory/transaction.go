package memory

import (
	"time"

	"github.com/kuhu42/solar-back-sub001/pkg/domain"
)

var _ domain.Transaction = (*transaction)(nil)

// transaction represents a mutation set applied to the store state.
type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

func (tx *transaction) recordChange(entity domain.EntityType, action domain.Action, before, after any) {
	change := Change{Entity: entity, Action: action}
	if before != nil {
		change.Before = domain.MustChangePayload(before)
	}
	if after != nil {
		change.After = domain.MustChangePayload(after)
	}
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// FindUser exposes user lookup within the transaction scope.
func (tx *transaction) FindUser(id string) (User, bool) {
	return tx.Snapshot().FindUser(id)
}

// FindProject exposes project lookup within the transaction scope.
func (tx *transaction) FindProject(id string) (Project, bool) {
	return tx.Snapshot().FindProject(id)
}

// FindTask exposes task lookup within the transaction scope.
func (tx *transaction) FindTask(id string) (Task, bool) {
	return tx.Snapshot().FindTask(id)
}

// FindComplaint exposes complaint lookup within the transaction scope.
func (tx *transaction) FindComplaint(id string) (Complaint, bool) {
	return tx.Snapshot().FindComplaint(id)
}

// FindInventoryBySerial resolves a serial number through the index.
func (tx *transaction) FindInventoryBySerial(serial string) (InventoryItem, bool) {
	return tx.Snapshot().FindInventoryBySerial(serial)
}

// FindAttendance returns the record for a user on a day key.
func (tx *transaction) FindAttendance(userID, date string) (Attendance, bool) {
	return tx.Snapshot().FindAttendance(userID, date)
}

// CreateUser stores a new user.
func (tx *transaction) CreateUser(u User) (User, error) {
	if u.ID == "" {
		u.ID = tx.store.newID()
	}
	if _, exists := tx.state.users[u.ID]; exists {
		return User{}, duplicateID(domain.EntityUser, "user", u.ID)
	}
	if u.Status == "" {
		u.Status = domain.UserStatusActive
	}
	u.CreatedAt = tx.now
	u.UpdatedAt = tx.now
	tx.state.users[u.ID] = u
	tx.recordChange(domain.EntityUser, domain.ActionCreate, nil, u)
	return u, nil
}

// UpdateUser mutates an existing user.
func (tx *transaction) UpdateUser(id string, mutator func(*User) error) (User, error) {
	current, ok := tx.state.users[id]
	if !ok {
		return User{}, domain.ErrNotFound{Entity: domain.EntityUser, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return User{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.users[id] = current
	tx.recordChange(domain.EntityUser, domain.ActionUpdate, before, current)
	return current, nil
}

// CreateProject stores a new project. Empty status and stage default to the
// start of each machine.
func (tx *transaction) CreateProject(p Project) (Project, error) {
	if p.ID == "" {
		p.ID = tx.store.newID()
	}
	if _, exists := tx.state.projects[p.ID]; exists {
		return Project{}, duplicateID(domain.EntityProject, "project", p.ID)
	}
	if p.Status == "" {
		p.Status = domain.ProjectStatusPending
	}
	if p.PipelineStage == "" {
		p.PipelineStage = domain.StageLeadGenerated
	}
	p.SerialNumbers = dedupeStrings(p.SerialNumbers)
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	tx.state.projects[p.ID] = cloneProject(p)
	tx.recordChange(domain.EntityProject, domain.ActionCreate, nil, p)
	return cloneProject(p), nil
}

// UpdateProject mutates a project using the provided mutator function.
func (tx *transaction) UpdateProject(id string, mutator func(*Project) error) (Project, error) {
	current, ok := tx.state.projects[id]
	if !ok {
		return Project{}, domain.ErrNotFound{Entity: domain.EntityProject, ID: id}
	}
	before := cloneProject(current)
	if err := mutator(&current); err != nil {
		return Project{}, err
	}
	current.ID = id
	current.SerialNumbers = dedupeStrings(current.SerialNumbers)
	current.UpdatedAt = tx.now
	tx.state.projects[id] = cloneProject(current)
	tx.recordChange(domain.EntityProject, domain.ActionUpdate, before, current)
	return cloneProject(current), nil
}

// DeleteProject removes a project that no task references.
func (tx *transaction) DeleteProject(id string) error {
	current, ok := tx.state.projects[id]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityProject, ID: id}
	}
	for _, task := range tx.state.tasks {
		if task.ProjectID == id {
			return domain.Errorf(domain.KindValidation, "delete_project", domain.EntityProject, id, "project %q still referenced by task %q", id, task.ID)
		}
	}
	delete(tx.state.projects, id)
	tx.recordChange(domain.EntityProject, domain.ActionDelete, current, nil)
	return nil
}

// CreateTask stores a new task.
func (tx *transaction) CreateTask(t Task) (Task, error) {
	if t.ID == "" {
		t.ID = tx.store.newID()
	}
	if _, exists := tx.state.tasks[t.ID]; exists {
		return Task{}, duplicateID(domain.EntityTask, "task", t.ID)
	}
	if t.Status == "" {
		t.Status = domain.TaskStatusPending
	}
	t.SerialNumbers = dedupeStrings(t.SerialNumbers)
	t.CreatedAt = tx.now
	t.UpdatedAt = tx.now
	tx.state.tasks[t.ID] = cloneTask(t)
	tx.recordChange(domain.EntityTask, domain.ActionCreate, nil, t)
	return cloneTask(t), nil
}

// UpdateTask mutates an existing task.
func (tx *transaction) UpdateTask(id string, mutator func(*Task) error) (Task, error) {
	current, ok := tx.state.tasks[id]
	if !ok {
		return Task{}, domain.ErrNotFound{Entity: domain.EntityTask, ID: id}
	}
	before := cloneTask(current)
	if err := mutator(&current); err != nil {
		return Task{}, err
	}
	current.ID = id
	current.SerialNumbers = dedupeStrings(current.SerialNumbers)
	current.UpdatedAt = tx.now
	tx.state.tasks[id] = cloneTask(current)
	tx.recordChange(domain.EntityTask, domain.ActionUpdate, before, current)
	return cloneTask(current), nil
}

// DeleteTask removes a task.
func (tx *transaction) DeleteTask(id string) error {
	current, ok := tx.state.tasks[id]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityTask, ID: id}
	}
	delete(tx.state.tasks, id)
	tx.recordChange(domain.EntityTask, domain.ActionDelete, current, nil)
	return nil
}

// CreateComplaint stores a new complaint.
func (tx *transaction) CreateComplaint(c Complaint) (Complaint, error) {
	if c.ID == "" {
		c.ID = tx.store.newID()
	}
	if _, exists := tx.state.complaints[c.ID]; exists {
		return Complaint{}, duplicateID(domain.EntityComplaint, "complaint", c.ID)
	}
	if c.Status == "" {
		c.Status = domain.ComplaintStatusOpen
	}
	if c.Priority == "" {
		c.Priority = domain.PriorityMedium
	}
	c.CreatedAt = tx.now
	c.UpdatedAt = tx.now
	tx.state.complaints[c.ID] = c
	tx.recordChange(domain.EntityComplaint, domain.ActionCreate, nil, c)
	return c, nil
}

// UpdateComplaint mutates an existing complaint.
func (tx *transaction) UpdateComplaint(id string, mutator func(*Complaint) error) (Complaint, error) {
	current, ok := tx.state.complaints[id]
	if !ok {
		return Complaint{}, domain.ErrNotFound{Entity: domain.EntityComplaint, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return Complaint{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.complaints[id] = current
	tx.recordChange(domain.EntityComplaint, domain.ActionUpdate, before, current)
	return current, nil
}

// CreateInventoryItem stores a new item and indexes its serial number.
func (tx *transaction) CreateInventoryItem(item InventoryItem) (InventoryItem, error) {
	if item.SerialNumber == "" {
		return InventoryItem{}, domain.Validationf("create_inventory_item", domain.EntityInventoryItem, "serial number required")
	}
	if item.ID == "" {
		item.ID = tx.store.newID()
	}
	if _, exists := tx.state.inventory[item.ID]; exists {
		return InventoryItem{}, duplicateID(domain.EntityInventoryItem, "inventory item", item.ID)
	}
	if owner, taken := tx.state.serialIndex[item.SerialNumber]; taken {
		return InventoryItem{}, domain.Validationf("create_inventory_item", domain.EntityInventoryItem, "serial %s already registered to item %s", item.SerialNumber, owner)
	}
	if item.Status == "" {
		item.Status = domain.InventoryStatusAvailable
	}
	item.CreatedAt = tx.now
	item.UpdatedAt = tx.now
	tx.state.inventory[item.ID] = cloneInventoryItem(item)
	tx.state.serialIndex[item.SerialNumber] = item.ID
	tx.recordChange(domain.EntityInventoryItem, domain.ActionCreate, nil, item)
	return cloneInventoryItem(item), nil
}

// UpdateInventoryItem mutates an item, re-indexing when the serial changes.
func (tx *transaction) UpdateInventoryItem(id string, mutator func(*InventoryItem) error) (InventoryItem, error) {
	current, ok := tx.state.inventory[id]
	if !ok {
		return InventoryItem{}, domain.ErrNotFound{Entity: domain.EntityInventoryItem, ID: id}
	}
	before := cloneInventoryItem(current)
	if err := mutator(&current); err != nil {
		return InventoryItem{}, err
	}
	current.ID = id
	if current.SerialNumber != before.SerialNumber {
		if current.SerialNumber == "" {
			return InventoryItem{}, domain.Validationf("update_inventory_item", domain.EntityInventoryItem, "serial number required")
		}
		if owner, taken := tx.state.serialIndex[current.SerialNumber]; taken && owner != id {
			return InventoryItem{}, domain.Validationf("update_inventory_item", domain.EntityInventoryItem, "serial %s already registered to item %s", current.SerialNumber, owner)
		}
		delete(tx.state.serialIndex, before.SerialNumber)
		tx.state.serialIndex[current.SerialNumber] = id
	}
	current.UpdatedAt = tx.now
	tx.state.inventory[id] = cloneInventoryItem(current)
	tx.recordChange(domain.EntityInventoryItem, domain.ActionUpdate, before, current)
	return cloneInventoryItem(current), nil
}

// DeleteInventoryItem removes an item and its index entry. Projects and tasks
// keep their serial numbers; references are resolved lazily.
func (tx *transaction) DeleteInventoryItem(id string) error {
	current, ok := tx.state.inventory[id]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityInventoryItem, ID: id}
	}
	delete(tx.state.inventory, id)
	if tx.state.serialIndex[current.SerialNumber] == id {
		delete(tx.state.serialIndex, current.SerialNumber)
	}
	tx.recordChange(domain.EntityInventoryItem, domain.ActionDelete, current, nil)
	return nil
}

// CreateInvoice stores a new invoice.
func (tx *transaction) CreateInvoice(inv Invoice) (Invoice, error) {
	if inv.ID == "" {
		inv.ID = tx.store.newID()
	}
	if _, exists := tx.state.invoices[inv.ID]; exists {
		return Invoice{}, duplicateID(domain.EntityInvoice, "invoice", inv.ID)
	}
	if inv.Status == "" {
		inv.Status = domain.InvoiceStatusDraft
	}
	if inv.IssuedAt.IsZero() {
		inv.IssuedAt = tx.now
	}
	inv.CreatedAt = tx.now
	inv.UpdatedAt = tx.now
	tx.state.invoices[inv.ID] = inv
	tx.recordChange(domain.EntityInvoice, domain.ActionCreate, nil, inv)
	return inv, nil
}

// UpdateInvoice mutates an existing invoice.
func (tx *transaction) UpdateInvoice(id string, mutator func(*Invoice) error) (Invoice, error) {
	current, ok := tx.state.invoices[id]
	if !ok {
		return Invoice{}, domain.ErrNotFound{Entity: domain.EntityInvoice, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return Invoice{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.invoices[id] = current
	tx.recordChange(domain.EntityInvoice, domain.ActionUpdate, before, current)
	return current, nil
}

// CreateAttendance stores a new attendance record.
func (tx *transaction) CreateAttendance(a Attendance) (Attendance, error) {
	if a.ID == "" {
		a.ID = tx.store.newID()
	}
	if _, exists := tx.state.attendance[a.ID]; exists {
		return Attendance{}, duplicateID(domain.EntityAttendance, "attendance", a.ID)
	}
	a.CreatedAt = tx.now
	a.UpdatedAt = tx.now
	tx.state.attendance[a.ID] = cloneAttendance(a)
	tx.recordChange(domain.EntityAttendance, domain.ActionCreate, nil, a)
	return cloneAttendance(a), nil
}

// UpdateAttendance mutates an existing attendance record.
func (tx *transaction) UpdateAttendance(id string, mutator func(*Attendance) error) (Attendance, error) {
	current, ok := tx.state.attendance[id]
	if !ok {
		return Attendance{}, domain.ErrNotFound{Entity: domain.EntityAttendance, ID: id}
	}
	before := cloneAttendance(current)
	if err := mutator(&current); err != nil {
		return Attendance{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.attendance[id] = cloneAttendance(current)
	tx.recordChange(domain.EntityAttendance, domain.ActionUpdate, before, current)
	return cloneAttendance(current), nil
}

func dedupeStrings(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func duplicateID(entity domain.EntityType, label, id string) error {
	return domain.Errorf(domain.KindValidation, "create_"+string(entity), entity, id, "%s %q already exists", label, id)
}
