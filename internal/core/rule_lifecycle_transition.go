package core

import (
	"context"
	"fmt"

	"github.com/kuhu42/solar-back-sub001/pkg/domain"
)

// LifecycleTransitionRule blocks writes that leave a stateful entity in a
// state outside its closed enumeration.
func LifecycleTransitionRule() domain.Rule {
	return lifecycleTransitionRule{}
}

type lifecycleTransitionRule struct{}

type stateField struct {
	label string
	valid map[string]struct{}
}

type lifecycleMachine struct {
	entity    domain.EntityType
	label     string
	fields    []stateField
	extractor func(payload domain.ChangePayload) (id string, states []string, ok bool)
}

var lifecycleMachines = map[domain.EntityType]lifecycleMachine{
	domain.EntityProject: {
		entity: domain.EntityProject,
		label:  "project",
		fields: []stateField{
			{label: "status", valid: toSet(
				string(domain.ProjectStatusPending),
				string(domain.ProjectStatusApproved),
				string(domain.ProjectStatusInProgress),
				string(domain.ProjectStatusCompleted),
				string(domain.ProjectStatusCancelled),
			)},
			{label: "pipeline stage", valid: stageSet()},
		},
		extractor: func(payload domain.ChangePayload) (string, []string, bool) {
			project, ok := domain.DecodeChangePayload[domain.Project](payload)
			if !ok {
				return "", nil, false
			}
			return project.ID, []string{string(project.Status), string(project.PipelineStage)}, true
		},
	},
	domain.EntityTask: {
		entity: domain.EntityTask,
		label:  "task",
		fields: []stateField{
			{label: "status", valid: toSet(
				string(domain.TaskStatusPending),
				string(domain.TaskStatusInProgress),
				string(domain.TaskStatusCompleted),
			)},
			{label: "type", valid: toSet(
				string(domain.TaskTypeInstallation),
				string(domain.TaskTypeMaintenance),
				string(domain.TaskTypeInspection),
				string(domain.TaskTypeSurvey),
			)},
		},
		extractor: func(payload domain.ChangePayload) (string, []string, bool) {
			task, ok := domain.DecodeChangePayload[domain.Task](payload)
			if !ok {
				return "", nil, false
			}
			return task.ID, []string{string(task.Status), string(task.Type)}, true
		},
	},
	domain.EntityComplaint: {
		entity: domain.EntityComplaint,
		label:  "complaint",
		fields: []stateField{
			{label: "status", valid: toSet(
				string(domain.ComplaintStatusOpen),
				string(domain.ComplaintStatusInProgress),
				string(domain.ComplaintStatusResolved),
			)},
			{label: "priority", valid: toSet(
				string(domain.PriorityLow),
				string(domain.PriorityMedium),
				string(domain.PriorityHigh),
				string(domain.PriorityUrgent),
			)},
		},
		extractor: func(payload domain.ChangePayload) (string, []string, bool) {
			complaint, ok := domain.DecodeChangePayload[domain.Complaint](payload)
			if !ok {
				return "", nil, false
			}
			return complaint.ID, []string{string(complaint.Status), string(complaint.Priority)}, true
		},
	},
	domain.EntityInventoryItem: {
		entity: domain.EntityInventoryItem,
		label:  "inventory item",
		fields: []stateField{
			{label: "status", valid: toSet(
				string(domain.InventoryStatusAvailable),
				string(domain.InventoryStatusAssigned),
				string(domain.InventoryStatusInstalled),
				string(domain.InventoryStatusMaintenance),
			)},
		},
		extractor: func(payload domain.ChangePayload) (string, []string, bool) {
			item, ok := domain.DecodeChangePayload[domain.InventoryItem](payload)
			if !ok {
				return "", nil, false
			}
			return item.ID, []string{string(item.Status)}, true
		},
	},
	domain.EntityInvoice: {
		entity: domain.EntityInvoice,
		label:  "invoice",
		fields: []stateField{
			{label: "status", valid: toSet(
				string(domain.InvoiceStatusDraft),
				string(domain.InvoiceStatusSent),
				string(domain.InvoiceStatusPaid),
			)},
		},
		extractor: func(payload domain.ChangePayload) (string, []string, bool) {
			invoice, ok := domain.DecodeChangePayload[domain.Invoice](payload)
			if !ok {
				return "", nil, false
			}
			return invoice.ID, []string{string(invoice.Status)}, true
		},
	},
}

func (lifecycleTransitionRule) Name() string { return ruleLifecycleTransition }

func (lifecycleTransitionRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		machine, ok := lifecycleMachines[change.Entity]
		if !ok {
			continue
		}
		id, states, ok := machine.extractor(change.After)
		if !ok {
			continue
		}
		for i, field := range machine.fields {
			if _, valid := field.valid[states[i]]; valid {
				continue
			}
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     ruleLifecycleTransition,
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("%s %s has invalid %s %q", machine.label, id, field.label, states[i]),
				Entity:   machine.entity,
				EntityID: id,
			})
		}
	}
	return res, nil
}

func stageSet() map[string]struct{} {
	values := make([]string, 0, len(domain.PipelineStages))
	for _, stage := range domain.PipelineStages {
		values = append(values, string(stage))
	}
	return toSet(values...)
}

func toSet(values ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
