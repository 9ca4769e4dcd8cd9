package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/kuhu42/solar-back-sub001/pkg/domain"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer, header ...any) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row(header))
	return tw
}

func printProjects(w io.Writer, asJSON bool, projects []domain.Project) error {
	if asJSON {
		return printJSON(w, projects)
	}
	tw := newTable(w, "ID", "Title", "Customer", "Agent", "Stage", "Status", "Approved", "Value")
	for _, p := range projects {
		tw.AppendRow(table.Row{p.ID, p.Title, p.CustomerID, p.AssignedTo, p.PipelineStage, p.Status, p.InstallationApproved, fmt.Sprintf("%.2f", p.Value)})
	}
	tw.Render()
	return nil
}

func printProject(w io.Writer, asJSON bool, p domain.Project) error {
	return printProjects(w, asJSON, []domain.Project{p})
}

func printTask(w io.Writer, asJSON bool, t domain.Task) error {
	if asJSON {
		return printJSON(w, t)
	}
	tw := newTable(w, "ID", "Project", "Type", "Assignee", "Status", "Due", "Serials")
	tw.AppendRow(table.Row{t.ID, t.ProjectID, t.Type, t.AssignedTo, t.Status, t.DueDate.Format("2006-01-02"), strings.Join(t.SerialNumbers, ",")})
	tw.Render()
	return nil
}

func printAttendance(w io.Writer, asJSON bool, a domain.Attendance) error {
	if asJSON {
		return printJSON(w, a)
	}
	out := ""
	if a.CheckOut != nil {
		out = a.CheckOut.Format("15:04:05")
	}
	tw := newTable(w, "ID", "User", "Date", "Check-in", "Check-out", "Location")
	tw.AppendRow(table.Row{a.ID, a.UserID, a.Date, a.CheckIn.Format("15:04:05"), out, a.Location})
	tw.Render()
	return nil
}

func printWarnings(w io.Writer, res domain.Result) {
	for _, v := range res.Violations {
		fmt.Fprintf(w, "warning: %s: %s\n", v.Rule, v.Message)
	}
}
