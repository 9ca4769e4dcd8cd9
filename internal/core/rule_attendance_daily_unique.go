package core

import (
	"context"
	"fmt"
	"sort"

	"github.com/kuhu42/solar-back-sub001/pkg/domain"
)

// NewAttendanceDailyUniqueRule blocks more than one attendance record per
// user and calendar day.
func NewAttendanceDailyUniqueRule() domain.Rule {
	return attendanceDailyUniqueRule{}
}

type attendanceDailyUniqueRule struct{}

type attendanceKey struct {
	user string
	date string
}

func (attendanceDailyUniqueRule) Name() string { return ruleAttendanceDailyUnique }

func (attendanceDailyUniqueRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	touched := make(map[attendanceKey]struct{})
	for _, change := range changes {
		if change.Entity != domain.EntityAttendance {
			continue
		}
		if rec, ok := domain.DecodeChangePayload[domain.Attendance](change.After); ok {
			touched[attendanceKey{user: rec.UserID, date: rec.Date}] = struct{}{}
		}
	}
	if len(touched) == 0 {
		return domain.Result{}, nil
	}

	counts := make(map[attendanceKey]int)
	for _, rec := range view.ListAttendance() {
		counts[attendanceKey{user: rec.UserID, date: rec.Date}]++
	}

	var dupes []attendanceKey
	for key, n := range counts {
		if _, ok := touched[key]; ok && n > 1 {
			dupes = append(dupes, key)
		}
	}
	sort.Slice(dupes, func(i, j int) bool {
		if dupes[i].user != dupes[j].user {
			return dupes[i].user < dupes[j].user
		}
		return dupes[i].date < dupes[j].date
	})

	res := domain.Result{}
	for _, key := range dupes {
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     ruleAttendanceDailyUnique,
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("user %s already checked in on %s", key.user, key.date),
			Entity:   domain.EntityAttendance,
			EntityID: key.user,
		})
	}
	return res, nil
}
