// Package seed loads YAML fixtures into a service through its regular
// operations, so every record passes the same checks as live traffic.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kuhu42/solar-back-sub001/internal/core"
	"github.com/kuhu42/solar-back-sub001/pkg/domain"
)

//go:embed demo.yaml
var demoFixture []byte

// Fixture is the on-disk seed format.
type Fixture struct {
	Users      []User      `yaml:"users"`
	Inventory  []Item      `yaml:"inventory"`
	Projects   []Project   `yaml:"projects"`
	Complaints []Complaint `yaml:"complaints"`
	Tasks      []Task      `yaml:"tasks"`
	Invoices   []Invoice   `yaml:"invoices"`
}

type User struct {
	ID                string `yaml:"id"`
	Name              string `yaml:"name"`
	Email             string `yaml:"email"`
	Phone             string `yaml:"phone"`
	Role              string `yaml:"role"`
	Status            string `yaml:"status"`
	CustomerRefNumber string `yaml:"customer_ref_number"`
}

type Item struct {
	ID             string     `yaml:"id"`
	SerialNumber   string     `yaml:"serial_number"`
	Model          string     `yaml:"model"`
	Type           string     `yaml:"type"`
	Status         string     `yaml:"status"`
	WarrantyExpiry *time.Time `yaml:"warranty_expiry"`
}

type Project struct {
	ID                   string   `yaml:"id"`
	CustomerID           string   `yaml:"customer_id"`
	AssignedTo           string   `yaml:"assigned_to"`
	Title                string   `yaml:"title"`
	Location             string   `yaml:"location"`
	Value                float64  `yaml:"value"`
	Type                 string   `yaml:"type"`
	SerialNumbers        []string `yaml:"serial_numbers"`
	Status               string   `yaml:"status"`
	PipelineStage        string   `yaml:"pipeline_stage"`
	InstallationApproved bool     `yaml:"installation_approved"`
}

type Complaint struct {
	ID           string `yaml:"id"`
	CustomerID   string `yaml:"customer_id"`
	Title        string `yaml:"title"`
	Description  string `yaml:"description"`
	Priority     string `yaml:"priority"`
	SerialNumber string `yaml:"serial_number"`
	Status       string `yaml:"status"`
}

type Task struct {
	ID            string   `yaml:"id"`
	ProjectID     string   `yaml:"project_id"`
	AssignedTo    string   `yaml:"assigned_to"`
	Title         string   `yaml:"title"`
	Description   string   `yaml:"description"`
	Type          string   `yaml:"type"`
	Status        string   `yaml:"status"`
	SerialNumbers []string `yaml:"serial_numbers"`
	Notes         string   `yaml:"notes"`
}

type Invoice struct {
	ID        string  `yaml:"id"`
	ProjectID string  `yaml:"project_id"`
	Amount    float64 `yaml:"amount"`
	Status    string  `yaml:"status"`
}

// Summary counts the records Apply created.
type Summary struct {
	Users      int `json:"users"`
	Inventory  int `json:"inventory"`
	Projects   int `json:"projects"`
	Complaints int `json:"complaints"`
	Tasks      int `json:"tasks"`
	Invoices   int `json:"invoices"`
}

// Demo returns the bundled demo fixture.
func Demo() (Fixture, error) {
	return Decode(bytes.NewReader(demoFixture))
}

// LoadFile reads a fixture from path.
func LoadFile(path string) (Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses a YAML fixture, rejecting unknown fields.
func Decode(r io.Reader) (Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var fx Fixture
	if err := dec.Decode(&fx); err != nil && err != io.EOF {
		return Fixture{}, fmt.Errorf("decode fixture: %w", err)
	}
	return fx, nil
}

// Apply creates the fixture's records in dependency order and stops at the
// first failure. Records committed before the failure stay committed.
func Apply(ctx context.Context, svc *core.Service, fx Fixture) (Summary, error) {
	var sum Summary
	for _, u := range fx.Users {
		user := domain.User{
			Name:              u.Name,
			Email:             u.Email,
			Phone:             u.Phone,
			Role:              domain.Role(u.Role),
			Status:            domain.UserStatus(u.Status),
			CustomerRefNumber: u.CustomerRefNumber,
		}
		user.ID = u.ID
		if _, _, err := svc.CreateUser(ctx, user); err != nil {
			return sum, fmt.Errorf("seed user %s: %w", u.ID, err)
		}
		sum.Users++
	}
	for _, i := range fx.Inventory {
		item := domain.InventoryItem{
			SerialNumber:   i.SerialNumber,
			Model:          i.Model,
			Type:           i.Type,
			Status:         domain.InventoryStatus(i.Status),
			WarrantyExpiry: i.WarrantyExpiry,
		}
		item.ID = i.ID
		if _, _, err := svc.CreateInventoryItem(ctx, item); err != nil {
			return sum, fmt.Errorf("seed inventory %s: %w", i.SerialNumber, err)
		}
		sum.Inventory++
	}
	for _, p := range fx.Projects {
		project := domain.Project{
			CustomerID:           p.CustomerID,
			AssignedTo:           p.AssignedTo,
			Title:                p.Title,
			Location:             p.Location,
			Value:                p.Value,
			Type:                 p.Type,
			SerialNumbers:        p.SerialNumbers,
			Status:               domain.ProjectStatus(p.Status),
			PipelineStage:        domain.PipelineStage(p.PipelineStage),
			InstallationApproved: p.InstallationApproved,
		}
		project.ID = p.ID
		if _, _, err := svc.CreateProject(ctx, project); err != nil {
			return sum, fmt.Errorf("seed project %s: %w", p.ID, err)
		}
		sum.Projects++
	}
	for _, c := range fx.Complaints {
		complaint := domain.Complaint{
			CustomerID:   c.CustomerID,
			Title:        c.Title,
			Description:  c.Description,
			Priority:     domain.Priority(c.Priority),
			SerialNumber: c.SerialNumber,
			Status:       domain.ComplaintStatus(c.Status),
		}
		complaint.ID = c.ID
		if _, _, err := svc.CreateComplaint(ctx, complaint); err != nil {
			return sum, fmt.Errorf("seed complaint %s: %w", c.ID, err)
		}
		sum.Complaints++
	}
	for _, t := range fx.Tasks {
		task := domain.Task{
			ProjectID:     t.ProjectID,
			AssignedTo:    t.AssignedTo,
			Title:         t.Title,
			Description:   t.Description,
			Type:          domain.TaskType(t.Type),
			Status:        domain.TaskStatus(t.Status),
			SerialNumbers: t.SerialNumbers,
			Notes:         t.Notes,
		}
		task.ID = t.ID
		if _, _, err := svc.CreateTask(ctx, task); err != nil {
			return sum, fmt.Errorf("seed task %s: %w", t.ID, err)
		}
		sum.Tasks++
	}
	for _, inv := range fx.Invoices {
		invoice := domain.Invoice{ProjectID: inv.ProjectID, Amount: inv.Amount, Status: domain.InvoiceStatus(inv.Status)}
		invoice.ID = inv.ID
		if _, _, err := svc.CreateInvoice(ctx, invoice); err != nil {
			return sum, fmt.Errorf("seed invoice %s: %w", inv.ID, err)
		}
		sum.Invoices++
	}
	return sum, nil
}
