package core

import (
	"context"
	"fmt"
	"sort"

	"github.com/kuhu42/solar-back-sub001/pkg/domain"
)

// NewSingleInstallationTaskRule blocks a second installation task for the
// same project.
func NewSingleInstallationTaskRule() domain.Rule {
	return singleInstallationTaskRule{}
}

type singleInstallationTaskRule struct{}

func (singleInstallationTaskRule) Name() string { return ruleSingleInstallation }

func (singleInstallationTaskRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	touched := make(map[string]struct{})
	for _, change := range changes {
		if change.Entity != domain.EntityTask {
			continue
		}
		if task, ok := domain.DecodeChangePayload[domain.Task](change.After); ok && task.Type == domain.TaskTypeInstallation {
			touched[task.ProjectID] = struct{}{}
		}
	}
	if len(touched) == 0 {
		return domain.Result{}, nil
	}

	counts := make(map[string]int)
	for _, task := range view.ListTasks() {
		if task.Type != domain.TaskTypeInstallation || task.ProjectID == "" {
			continue
		}
		counts[task.ProjectID]++
	}

	projects := make([]string, 0, len(counts))
	for id, n := range counts {
		if _, ok := touched[id]; ok && n > 1 {
			projects = append(projects, id)
		}
	}
	sort.Strings(projects)

	res := domain.Result{}
	for _, id := range projects {
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     ruleSingleInstallation,
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("project %s already has an installation task (%d found)", id, counts[id]),
			Entity:   domain.EntityProject,
			EntityID: id,
		})
	}
	return res, nil
}
