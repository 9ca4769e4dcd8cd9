package core

import (
	"context"
	"fmt"

	"github.com/kuhu42/solar-back-sub001/pkg/domain"
)

// NewTaskSerialReferenceRule warns when a written task references a serial
// number that is not in inventory. Serials are weak references, so the write
// still commits.
func NewTaskSerialReferenceRule() domain.Rule {
	return taskSerialReferenceRule{}
}

type taskSerialReferenceRule struct{}

func (taskSerialReferenceRule) Name() string { return ruleTaskSerialReference }

func (taskSerialReferenceRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityTask || change.Action == domain.ActionDelete {
			continue
		}
		task, ok := domain.DecodeChangePayload[domain.Task](change.After)
		if !ok {
			continue
		}
		for _, serial := range task.SerialNumbers {
			if _, found := view.FindInventoryBySerial(serial); found {
				continue
			}
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     ruleTaskSerialReference,
				Severity: domain.SeverityWarn,
				Message:  fmt.Sprintf("task %s references unknown serial %s", task.ID, serial),
				Entity:   domain.EntityTask,
				EntityID: task.ID,
			})
		}
	}
	return res, nil
}
