package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kuhu42/solar-back-sub001/internal/core"
	"github.com/kuhu42/solar-back-sub001/pkg/domain"
)

type createUserRequest struct {
	ID                string            `json:"id" validate:"omitempty,max=64"`
	Name              string            `json:"name" validate:"required"`
	Email             string            `json:"email" validate:"omitempty,email"`
	Phone             string            `json:"phone"`
	Role              domain.Role       `json:"role" validate:"required"`
	Status            domain.UserStatus `json:"status"`
	CustomerRefNumber string            `json:"customer_ref_number"`
}

type createProjectRequest struct {
	ID                string   `json:"id" validate:"omitempty,max=64"`
	CustomerID        string   `json:"customer_id" validate:"required"`
	CustomerRefNumber string   `json:"customer_ref_number"`
	AssignedTo        string   `json:"assigned_to"`
	Title             string   `json:"title" validate:"required"`
	Location          string   `json:"location"`
	Value             float64  `json:"value" validate:"gte=0"`
	Type              string   `json:"type"`
	SerialNumbers     []string `json:"serial_numbers" validate:"dive,required"`
}

type createTaskRequest struct {
	ID            string          `json:"id" validate:"omitempty,max=64"`
	ProjectID     string          `json:"project_id"`
	AssignedTo    string          `json:"assigned_to" validate:"required"`
	Title         string          `json:"title" validate:"required"`
	Description   string          `json:"description"`
	Type          domain.TaskType `json:"type" validate:"required"`
	DueDate       time.Time       `json:"due_date"`
	SerialNumbers []string        `json:"serial_numbers" validate:"dive,required"`
	Notes         string          `json:"notes"`
}

type createComplaintRequest struct {
	ID           string          `json:"id" validate:"omitempty,max=64"`
	CustomerID   string          `json:"customer_id" validate:"required"`
	Title        string          `json:"title" validate:"required"`
	Description  string          `json:"description"`
	Priority     domain.Priority `json:"priority"`
	SerialNumber string          `json:"serial_number"`
}

type createInventoryRequest struct {
	ID             string     `json:"id" validate:"omitempty,max=64"`
	SerialNumber   string     `json:"serial_number" validate:"required"`
	Model          string     `json:"model" validate:"required"`
	Type           string     `json:"type"`
	WarrantyExpiry *time.Time `json:"warranty_expiry"`
}

type createInvoiceRequest struct {
	ID        string    `json:"id" validate:"omitempty,max=64"`
	ProjectID string    `json:"project_id" validate:"required"`
	Amount    float64   `json:"amount" validate:"gte=0"`
	DueDate   time.Time `json:"due_date"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

type stageRequest struct {
	Stage string `json:"stage" validate:"required"`
}

type assignRequest struct {
	InstallerID string `json:"installer_id" validate:"required"`
	AgentID     string `json:"agent_id"`
}

type escalateRequest struct {
	InstallerID string `json:"installer_id" validate:"required"`
}

type attendanceRequest struct {
	UserID   string `json:"user_id" validate:"required"`
	Location string `json:"location"`
}

type resolveRequest struct {
	Serials []string `json:"serials" validate:"required,min=1,dive,required"`
}

type quoteRequest struct {
	SourceID string  `json:"source_id" validate:"required"`
	Amount   float64 `json:"amount" validate:"gte=0"`
	Phone    string  `json:"phone"`
}

// await blocks on a dispatched ticket.
func await[T any](ctx context.Context, t *core.Ticket[T]) (T, domain.Result, error) {
	value, err := t.Wait(ctx)
	return value, t.Result(), err
}

func (s *server) respondTicket(w http.ResponseWriter, r *http.Request, status int, value any, res domain.Result, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, status, value, res)
}

func (s *server) listUsers(w http.ResponseWriter, _ *http.Request) {
	writeData(w, http.StatusOK, s.svc.ListUsers(), domain.Result{})
}

func (s *server) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !s.decode(w, r, &req) {
		return
	}
	user := domain.User{
		Name:              req.Name,
		Email:             req.Email,
		Phone:             req.Phone,
		Role:              req.Role,
		Status:            req.Status,
		CustomerRefNumber: req.CustomerRefNumber,
	}
	user.ID = req.ID
	created, res, err := s.svc.CreateUser(r.Context(), user)
	s.respondTicket(w, r, http.StatusCreated, created, res, err)
}

func (s *server) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.svc.GetUser(chi.URLParam(r, "id"))
	s.respondTicket(w, r, http.StatusOK, user, domain.Result{}, err)
}

func (s *server) setUserStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !s.decode(w, r, &req) {
		return
	}
	user, res, err := s.svc.SetUserStatus(r.Context(), chi.URLParam(r, "id"), domain.UserStatus(req.Status))
	s.respondTicket(w, r, http.StatusOK, user, res, err)
}

func (s *server) listProjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch {
	case q.Get("customer") != "":
		writeData(w, http.StatusOK, s.svc.ProjectsForCustomer(q.Get("customer")), domain.Result{})
	case q.Get("agent") != "":
		writeData(w, http.StatusOK, s.svc.ProjectsForAgent(q.Get("agent")), domain.Result{})
	default:
		writeData(w, http.StatusOK, s.svc.ListProjects(), domain.Result{})
	}
}

func (s *server) createProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if !s.decode(w, r, &req) {
		return
	}
	project := domain.Project{
		CustomerID:        req.CustomerID,
		CustomerRefNumber: req.CustomerRefNumber,
		AssignedTo:        req.AssignedTo,
		Title:             req.Title,
		Location:          req.Location,
		Value:             req.Value,
		Type:              req.Type,
		SerialNumbers:     req.SerialNumbers,
	}
	project.ID = req.ID
	created, res, err := s.svc.CreateProject(r.Context(), project)
	s.respondTicket(w, r, http.StatusCreated, created, res, err)
}

func (s *server) getProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.svc.GetProject(chi.URLParam(r, "id"))
	s.respondTicket(w, r, http.StatusOK, project, domain.Result{}, err)
}

func (s *server) updatePipelineStage(w http.ResponseWriter, r *http.Request) {
	var req stageRequest
	if !s.decode(w, r, &req) {
		return
	}
	project, res, err := await(r.Context(), s.dispatch.UpdatePipelineStage(chi.URLParam(r, "id"), domain.PipelineStage(req.Stage)))
	s.respondTicket(w, r, http.StatusOK, project, res, err)
}

func (s *server) updateProjectStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !s.decode(w, r, &req) {
		return
	}
	project, res, err := await(r.Context(), s.dispatch.UpdateProjectStatus(chi.URLParam(r, "id"), domain.ProjectStatus(req.Status)))
	s.respondTicket(w, r, http.StatusOK, project, res, err)
}

func (s *server) approveInstallation(w http.ResponseWriter, r *http.Request) {
	project, res, err := await(r.Context(), s.dispatch.ApproveInstallation(chi.URLParam(r, "id")))
	s.respondTicket(w, r, http.StatusOK, project, res, err)
}

func (s *server) assignInstaller(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if !s.decode(w, r, &req) {
		return
	}
	out, res, err := await(r.Context(), s.dispatch.AssignInstaller(chi.URLParam(r, "id"), req.InstallerID, req.AgentID))
	s.respondTicket(w, r, http.StatusCreated, out, res, err)
}

func (s *server) listTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch {
	case q.Get("assignee") != "":
		writeData(w, http.StatusOK, s.svc.TasksAssignedTo(q.Get("assignee")), domain.Result{})
	case q.Get("project") != "":
		writeData(w, http.StatusOK, s.svc.TasksForProject(q.Get("project")), domain.Result{})
	default:
		writeData(w, http.StatusOK, s.svc.ListTasks(), domain.Result{})
	}
}

func (s *server) createTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if !s.decode(w, r, &req) {
		return
	}
	task := domain.Task{
		ProjectID:     req.ProjectID,
		AssignedTo:    req.AssignedTo,
		Title:         req.Title,
		Description:   req.Description,
		Type:          req.Type,
		DueDate:       req.DueDate,
		SerialNumbers: req.SerialNumbers,
		Notes:         req.Notes,
	}
	task.ID = req.ID
	created, res, err := s.svc.CreateTask(r.Context(), task)
	s.respondTicket(w, r, http.StatusCreated, created, res, err)
}

func (s *server) getTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.svc.GetTask(chi.URLParam(r, "id"))
	s.respondTicket(w, r, http.StatusOK, task, domain.Result{}, err)
}

func (s *server) updateTaskStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !s.decode(w, r, &req) {
		return
	}
	task, res, err := await(r.Context(), s.dispatch.UpdateTaskStatus(chi.URLParam(r, "id"), domain.TaskStatus(req.Status)))
	s.respondTicket(w, r, http.StatusOK, task, res, err)
}

func (s *server) listComplaints(w http.ResponseWriter, r *http.Request) {
	if customer := r.URL.Query().Get("customer"); customer != "" {
		writeData(w, http.StatusOK, s.svc.ComplaintsForCustomer(customer), domain.Result{})
		return
	}
	writeData(w, http.StatusOK, s.svc.ListComplaints(), domain.Result{})
}

func (s *server) createComplaint(w http.ResponseWriter, r *http.Request) {
	var req createComplaintRequest
	if !s.decode(w, r, &req) {
		return
	}
	complaint := domain.Complaint{
		CustomerID:   req.CustomerID,
		Title:        req.Title,
		Description:  req.Description,
		Priority:     req.Priority,
		SerialNumber: req.SerialNumber,
	}
	complaint.ID = req.ID
	created, res, err := s.svc.CreateComplaint(r.Context(), complaint)
	s.respondTicket(w, r, http.StatusCreated, created, res, err)
}

func (s *server) getComplaint(w http.ResponseWriter, r *http.Request) {
	complaint, err := s.svc.GetComplaint(chi.URLParam(r, "id"))
	s.respondTicket(w, r, http.StatusOK, complaint, domain.Result{}, err)
}

func (s *server) updateComplaintStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !s.decode(w, r, &req) {
		return
	}
	complaint, res, err := await(r.Context(), s.dispatch.UpdateComplaintStatus(chi.URLParam(r, "id"), domain.ComplaintStatus(req.Status)))
	s.respondTicket(w, r, http.StatusOK, complaint, res, err)
}

func (s *server) escalateComplaint(w http.ResponseWriter, r *http.Request) {
	var req escalateRequest
	if !s.decode(w, r, &req) {
		return
	}
	task, res, err := await(r.Context(), s.dispatch.EscalateComplaint(chi.URLParam(r, "id"), req.InstallerID))
	s.respondTicket(w, r, http.StatusCreated, task, res, err)
}

func (s *server) listInventory(w http.ResponseWriter, _ *http.Request) {
	writeData(w, http.StatusOK, s.svc.ListInventory(), domain.Result{})
}

func (s *server) createInventoryItem(w http.ResponseWriter, r *http.Request) {
	var req createInventoryRequest
	if !s.decode(w, r, &req) {
		return
	}
	item := domain.InventoryItem{
		SerialNumber:   req.SerialNumber,
		Model:          req.Model,
		Type:           req.Type,
		WarrantyExpiry: req.WarrantyExpiry,
	}
	item.ID = req.ID
	created, res, err := s.svc.CreateInventoryItem(r.Context(), item)
	s.respondTicket(w, r, http.StatusCreated, created, res, err)
}

func (s *server) inventoryBySerial(w http.ResponseWriter, r *http.Request) {
	item, err := s.svc.InventoryBySerial(r.Context(), chi.URLParam(r, "serial"))
	s.respondTicket(w, r, http.StatusOK, item, domain.Result{}, err)
}

func (s *server) resolveSerials(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if !s.decode(w, r, &req) {
		return
	}
	resolution, err := s.svc.ResolveSerials(r.Context(), req.Serials)
	s.respondTicket(w, r, http.StatusOK, resolution, domain.Result{}, err)
}

func (s *server) updateInventoryStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !s.decode(w, r, &req) {
		return
	}
	item, res, err := s.svc.UpdateInventoryStatus(r.Context(), chi.URLParam(r, "id"), domain.InventoryStatus(req.Status))
	s.respondTicket(w, r, http.StatusOK, item, res, err)
}

func (s *server) deleteInventoryItem(w http.ResponseWriter, r *http.Request) {
	if _, err := s.svc.DeleteInventoryItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) listInvoices(w http.ResponseWriter, _ *http.Request) {
	writeData(w, http.StatusOK, s.svc.ListInvoices(), domain.Result{})
}

func (s *server) createInvoice(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if !s.decode(w, r, &req) {
		return
	}
	invoice := domain.Invoice{ProjectID: req.ProjectID, Amount: req.Amount, DueDate: req.DueDate}
	invoice.ID = req.ID
	created, res, err := s.svc.CreateInvoice(r.Context(), invoice)
	s.respondTicket(w, r, http.StatusCreated, created, res, err)
}

func (s *server) updateInvoiceStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !s.decode(w, r, &req) {
		return
	}
	invoice, res, err := s.svc.UpdateInvoiceStatus(r.Context(), chi.URLParam(r, "id"), domain.InvoiceStatus(req.Status))
	s.respondTicket(w, r, http.StatusOK, invoice, res, err)
}

func (s *server) listAttendance(w http.ResponseWriter, r *http.Request) {
	if user := r.URL.Query().Get("user"); user != "" {
		writeData(w, http.StatusOK, s.svc.AttendanceForUser(user), domain.Result{})
		return
	}
	writeData(w, http.StatusOK, s.svc.ListAttendance(), domain.Result{})
}

func (s *server) checkIn(w http.ResponseWriter, r *http.Request) {
	var req attendanceRequest
	if !s.decode(w, r, &req) {
		return
	}
	record, res, err := await(r.Context(), s.dispatch.CheckIn(req.UserID, req.Location))
	s.respondTicket(w, r, http.StatusCreated, record, res, err)
}

func (s *server) checkOut(w http.ResponseWriter, r *http.Request) {
	var req attendanceRequest
	if !s.decode(w, r, &req) {
		return
	}
	record, res, err := await(r.Context(), s.dispatch.CheckOut(req.UserID, req.Location))
	s.respondTicket(w, r, http.StatusOK, record, res, err)
}

func (s *server) quoteRequest(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if !s.decode(w, r, &req) {
		return
	}
	quote, err := s.svc.QuoteRequest(r.Context(), req.SourceID, req.Amount)
	s.respondTicket(w, r, http.StatusOK, quote, domain.Result{}, err)
}

func (s *server) sendQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if !s.decode(w, r, &req) {
		return
	}
	delivery, res, err := await(r.Context(), s.dispatch.SendQuote(req.SourceID, req.Amount, req.Phone))
	s.respondTicket(w, r, http.StatusCreated, delivery, res, err)
}

func (s *server) listDocuments(w http.ResponseWriter, r *http.Request) {
	archive := s.dispatch.Archive()
	if archive == nil {
		writeData(w, http.StatusOK, []any{}, domain.Result{})
		return
	}
	docs, err := archive.ListDocuments(r.Context(), chi.URLParam(r, "sourceId"))
	s.respondTicket(w, r, http.StatusOK, docs, domain.Result{}, err)
}
