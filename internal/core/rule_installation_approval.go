package core

import (
	"context"
	"fmt"

	"github.com/kuhu42/solar-back-sub001/pkg/domain"
)

// NewInstallationApprovalRule blocks projects reaching completed before their
// installation was approved.
func NewInstallationApprovalRule() domain.Rule {
	return installationApprovalRule{}
}

type installationApprovalRule struct{}

func (installationApprovalRule) Name() string { return ruleInstallationApproval }

func (installationApprovalRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityProject || change.Action == domain.ActionDelete {
			continue
		}
		project, ok := domain.DecodeChangePayload[domain.Project](change.After)
		if !ok {
			continue
		}
		if project.Status != domain.ProjectStatusCompleted || project.InstallationApproved {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     ruleInstallationApproval,
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("project %s cannot be completed before installation is approved", project.ID),
			Entity:   domain.EntityProject,
			EntityID: project.ID,
		})
	}
	return res, nil
}
