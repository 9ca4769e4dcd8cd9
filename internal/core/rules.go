package core

import "github.com/kuhu42/solar-back-sub001/pkg/domain"

// Built-in rule names. Blocking rules map to the error kinds in ruleKinds.
const (
	ruleLifecycleTransition   = "lifecycle_transition"
	ruleInstallationApproval  = "installation_approval"
	ruleSingleInstallation    = "single_installation_task"
	ruleAttendanceDailyUnique = "attendance_daily_unique"
	ruleTaskSerialReference   = "task_serial_reference"
)

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *domain.RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(LifecycleTransitionRule())
	engine.Register(NewInstallationApprovalRule())
	engine.Register(NewSingleInstallationTaskRule())
	engine.Register(NewAttendanceDailyUniqueRule())
	engine.Register(NewTaskSerialReferenceRule())
	return engine
}
