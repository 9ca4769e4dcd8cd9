package core

import (
	"context"
	"time"

	"github.com/kuhu42/solar-back-sub001/pkg/domain"
)

// CreateUser registers an account. New accounts are active unless a status
// is supplied.
func (s *Service) CreateUser(ctx context.Context, user domain.User) (domain.User, domain.Result, error) {
	var created domain.User
	res, err := s.run(ctx, opCreateUser, func(tx domain.Transaction) (string, error) {
		if !user.Role.Valid() {
			return user.ID, domain.Validationf(opCreateUser, domain.EntityUser, "unknown role %q", user.Role)
		}
		if user.Status == "" {
			user.Status = domain.UserStatusActive
		}
		if !user.Status.Valid() {
			return user.ID, domain.Validationf(opCreateUser, domain.EntityUser, "unknown user status %q", user.Status)
		}
		u, err := tx.CreateUser(user)
		if err != nil {
			return user.ID, err
		}
		created = u
		return u.ID, nil
	})
	return created, res, err
}

// SetUserStatus activates or deactivates an account.
func (s *Service) SetUserStatus(ctx context.Context, userID string, status domain.UserStatus) (domain.User, domain.Result, error) {
	var updated domain.User
	res, err := s.run(ctx, opUpdateUser, func(tx domain.Transaction) (string, error) {
		if !status.Valid() {
			return userID, domain.Validationf(opUpdateUser, domain.EntityUser, "unknown user status %q", status)
		}
		u, err := tx.UpdateUser(userID, func(u *domain.User) error {
			u.Status = status
			return nil
		})
		if err != nil {
			return userID, err
		}
		updated = u
		return userID, nil
	})
	return updated, res, err
}

// CreateProject stores a new project. A known customer's reference number
// is copied onto the project when none is given.
func (s *Service) CreateProject(ctx context.Context, project domain.Project) (domain.Project, domain.Result, error) {
	var created domain.Project
	res, err := s.run(ctx, opCreateProject, func(tx domain.Transaction) (string, error) {
		if project.CustomerRefNumber == "" && project.CustomerID != "" {
			if customer, ok := tx.FindUser(project.CustomerID); ok {
				project.CustomerRefNumber = customer.CustomerRefNumber
			}
		}
		p, err := tx.CreateProject(project)
		if err != nil {
			return project.ID, err
		}
		created = p
		return p.ID, nil
	})
	return created, res, err
}

// CreateTask stores a task directly. Installation tasks are normally created
// through AssignInstaller; the single-installation rule still applies here.
func (s *Service) CreateTask(ctx context.Context, task domain.Task) (domain.Task, domain.Result, error) {
	var created domain.Task
	res, err := s.run(ctx, opCreateTask, func(tx domain.Transaction) (string, error) {
		if task.DueDate.IsZero() {
			task.DueDate = s.clock.Now().Add(TaskDueWindow)
		}
		t, err := tx.CreateTask(task)
		if err != nil {
			return task.ID, err
		}
		created = t
		return t.ID, nil
	})
	return created, res, err
}

// CreateComplaint records a customer complaint.
func (s *Service) CreateComplaint(ctx context.Context, complaint domain.Complaint) (domain.Complaint, domain.Result, error) {
	var created domain.Complaint
	res, err := s.run(ctx, opCreateComplaint, func(tx domain.Transaction) (string, error) {
		if complaint.CustomerRefNumber == "" && complaint.CustomerID != "" {
			if customer, ok := tx.FindUser(complaint.CustomerID); ok {
				complaint.CustomerRefNumber = customer.CustomerRefNumber
			}
		}
		c, err := tx.CreateComplaint(complaint)
		if err != nil {
			return complaint.ID, err
		}
		created = c
		return c.ID, nil
	})
	return created, res, err
}

// CreateInventoryItem registers equipment under a unique serial number.
func (s *Service) CreateInventoryItem(ctx context.Context, item domain.InventoryItem) (domain.InventoryItem, domain.Result, error) {
	var created domain.InventoryItem
	res, err := s.run(ctx, opCreateInventoryItem, func(tx domain.Transaction) (string, error) {
		i, err := tx.CreateInventoryItem(item)
		if err != nil {
			return item.ID, err
		}
		created = i
		return i.ID, nil
	})
	return created, res, err
}

// UpdateInventoryStatus moves an item through its lifecycle. Moving to
// installed stamps the install date when it is unset.
func (s *Service) UpdateInventoryStatus(ctx context.Context, itemID string, status domain.InventoryStatus) (domain.InventoryItem, domain.Result, error) {
	var updated domain.InventoryItem
	res, err := s.run(ctx, opUpdateInventoryStatus, func(tx domain.Transaction) (string, error) {
		if !status.Valid() {
			return itemID, domain.Invalidf(opUpdateInventoryStatus, domain.EntityInventoryItem, itemID, "unknown inventory status %q", status)
		}
		now := s.clock.Now()
		item, err := tx.UpdateInventoryItem(itemID, func(i *domain.InventoryItem) error {
			i.Status = status
			if status == domain.InventoryStatusInstalled && i.InstallDate == nil {
				i.InstallDate = &now
			}
			return nil
		})
		if err != nil {
			return itemID, err
		}
		updated = item
		return itemID, nil
	})
	return updated, res, err
}

// DeleteInventoryItem removes an item. Projects and tasks that reference its
// serial number are left untouched.
func (s *Service) DeleteInventoryItem(ctx context.Context, itemID string) (domain.Result, error) {
	return s.run(ctx, opDeleteInventoryItem, func(tx domain.Transaction) (string, error) {
		return itemID, tx.DeleteInventoryItem(itemID)
	})
}

// CreateInvoice bills a project. The customer defaults to the project's.
func (s *Service) CreateInvoice(ctx context.Context, invoice domain.Invoice) (domain.Invoice, domain.Result, error) {
	var created domain.Invoice
	res, err := s.run(ctx, opCreateInvoice, func(tx domain.Transaction) (string, error) {
		project, ok := tx.FindProject(invoice.ProjectID)
		if !ok {
			return invoice.ID, domain.NotFound(opCreateInvoice, domain.EntityProject, invoice.ProjectID)
		}
		if invoice.Amount < 0 {
			return invoice.ID, domain.Validationf(opCreateInvoice, domain.EntityInvoice, "amount must not be negative")
		}
		if invoice.CustomerID == "" {
			invoice.CustomerID = project.CustomerID
		}
		now := s.clock.Now()
		if invoice.IssuedAt.IsZero() {
			invoice.IssuedAt = now
		}
		if invoice.DueDate.IsZero() {
			invoice.DueDate = invoice.IssuedAt.Add(30 * 24 * time.Hour)
		}
		inv, err := tx.CreateInvoice(invoice)
		if err != nil {
			return invoice.ID, err
		}
		created = inv
		return inv.ID, nil
	})
	return created, res, err
}

// UpdateInvoiceStatus applies an explicit invoice status change.
func (s *Service) UpdateInvoiceStatus(ctx context.Context, invoiceID string, status domain.InvoiceStatus) (domain.Invoice, domain.Result, error) {
	var updated domain.Invoice
	res, err := s.run(ctx, opUpdateInvoiceStatus, func(tx domain.Transaction) (string, error) {
		if !status.Valid() {
			return invoiceID, domain.Invalidf(opUpdateInvoiceStatus, domain.EntityInvoice, invoiceID, "unknown invoice status %q", status)
		}
		inv, err := tx.UpdateInvoice(invoiceID, func(i *domain.Invoice) error {
			i.Status = status
			return nil
		})
		if err != nil {
			return invoiceID, err
		}
		updated = inv
		return invoiceID, nil
	})
	return updated, res, err
}

// ListUsers returns every user sorted by id.
func (s *Service) ListUsers() []domain.User { return s.store.ListUsers() }

// ListProjects returns every project sorted by id.
func (s *Service) ListProjects() []domain.Project { return s.store.ListProjects() }

// ListTasks returns every task sorted by id.
func (s *Service) ListTasks() []domain.Task { return s.store.ListTasks() }

// ListComplaints returns every complaint sorted by id.
func (s *Service) ListComplaints() []domain.Complaint { return s.store.ListComplaints() }

// ListInventory returns every inventory item sorted by id.
func (s *Service) ListInventory() []domain.InventoryItem { return s.store.ListInventoryItems() }

// ListInvoices returns every invoice sorted by id.
func (s *Service) ListInvoices() []domain.Invoice { return s.store.ListInvoices() }

// ListAttendance returns every attendance record sorted by id.
func (s *Service) ListAttendance() []domain.Attendance { return s.store.ListAttendance() }

// GetUser returns the user or a NotFound failure.
func (s *Service) GetUser(id string) (domain.User, error) {
	if u, ok := s.store.GetUser(id); ok {
		return u, nil
	}
	return domain.User{}, domain.NotFound("get_user", domain.EntityUser, id)
}

// GetProject returns the project or a NotFound failure.
func (s *Service) GetProject(id string) (domain.Project, error) {
	if p, ok := s.store.GetProject(id); ok {
		return p, nil
	}
	return domain.Project{}, domain.NotFound("get_project", domain.EntityProject, id)
}

// GetTask returns the task or a NotFound failure.
func (s *Service) GetTask(id string) (domain.Task, error) {
	if t, ok := s.store.GetTask(id); ok {
		return t, nil
	}
	return domain.Task{}, domain.NotFound("get_task", domain.EntityTask, id)
}

// GetComplaint returns the complaint or a NotFound failure.
func (s *Service) GetComplaint(id string) (domain.Complaint, error) {
	if c, ok := s.store.GetComplaint(id); ok {
		return c, nil
	}
	return domain.Complaint{}, domain.NotFound("get_complaint", domain.EntityComplaint, id)
}

// TasksAssignedTo returns the installer's task list.
func (s *Service) TasksAssignedTo(installerID string) []domain.Task {
	return filter(s.store.ListTasks(), func(t domain.Task) bool { return t.AssignedTo == installerID })
}

// TasksForProject returns tasks whose project id matches, including
// synthetic complaint ids.
func (s *Service) TasksForProject(projectID string) []domain.Task {
	return filter(s.store.ListTasks(), func(t domain.Task) bool { return t.ProjectID == projectID })
}

// ProjectsForCustomer returns the customer's projects.
func (s *Service) ProjectsForCustomer(customerID string) []domain.Project {
	return filter(s.store.ListProjects(), func(p domain.Project) bool { return p.CustomerID == customerID })
}

// ProjectsForAgent returns projects handled by the agent.
func (s *Service) ProjectsForAgent(agentID string) []domain.Project {
	return filter(s.store.ListProjects(), func(p domain.Project) bool { return p.AssignedTo == agentID })
}

// ComplaintsForCustomer returns the customer's complaints.
func (s *Service) ComplaintsForCustomer(customerID string) []domain.Complaint {
	return filter(s.store.ListComplaints(), func(c domain.Complaint) bool { return c.CustomerID == customerID })
}

// AttendanceForUser returns the user's attendance history.
func (s *Service) AttendanceForUser(userID string) []domain.Attendance {
	return filter(s.store.ListAttendance(), func(a domain.Attendance) bool { return a.UserID == userID })
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}
