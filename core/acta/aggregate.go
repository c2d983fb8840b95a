package acta

import (
	"context"
	"fmt"
	"strings"

	"github.com/uautonoma/actgen/core"
)

// selfEvalKey flags self-evaluation assignments, which never hold a grade back.
var selfEvalKey = core.Normalize("Autoevaluación")

type (
	// StudentGrade is one student's grade pair in one course.
	StudentGrade struct {
		First   string
		Last    string
		Email   string
		Final   *float64
		Current *float64
	}

	// CourseResult is the self-contained aggregation output for one course.
	CourseResult struct {
		CourseID string
		Students map[string]StudentGrade // keyed by SIS user id
		Pending  map[string][]string     // SIS user id -> pending assignment names
		// Order keeps the SIS ids in enrollment order so merging stays
		// deterministic across runs.
		Order []string
	}
)

// excludedAssignment reports whether an assignment takes no part in the
// pending-task check.
func excludedAssignment(a Assignment) bool {
	if a.PointsPossible == nil || *a.PointsPossible == 0 {
		return true
	}
	switch a.GradingType {
	case "not_graded", "pass_fail":
		return true
	}
	return strings.Contains(core.Normalize(a.Name), selfEvalKey)
}

// aggregateCourse collects enrollments, the id roster and per-assignment
// submissions for one course. Fetch failures here degrade into empty data
// for that step; they never abort the run.
func (svc *Service) aggregateCourse(ctx context.Context, courseID string) CourseResult {
	res := CourseResult{
		CourseID: courseID,
		Students: make(map[string]StudentGrade),
		Pending:  make(map[string][]string),
	}

	enrollments, err := svc.api.ListActiveEnrollments(ctx, courseID)
	if err != nil {
		svc.log.Warn(fmt.Sprintf("course %s: listing enrollments: %v", courseID, err))
	}
	for _, e := range enrollments {
		if _, ok := res.Students[e.SISUserID]; !ok {
			res.Order = append(res.Order, e.SISUserID)
		}
		res.Students[e.SISUserID] = StudentGrade{
			First:   e.First,
			Last:    e.Last,
			Email:   e.Email,
			Final:   e.Final,
			Current: e.Current,
		}
	}

	users, err := svc.api.ListStudents(ctx, courseID)
	if err != nil {
		svc.log.Warn(fmt.Sprintf("course %s: listing students: %v", courseID, err))
	}
	sisByUserID := make(map[int]string, len(users))
	for _, u := range users {
		if u.SISUserID == "" {
			continue
		}
		sisByUserID[u.ID] = u.SISUserID
	}

	assignments, err := svc.api.ListAssignments(ctx, courseID)
	if err != nil {
		svc.log.Warn(fmt.Sprintf("course %s: listing assignments: %v", courseID, err))
	}
	for _, a := range assignments {
		if excludedAssignment(a) {
			continue
		}
		submissions, err := svc.api.ListSubmissions(ctx, courseID, a.ID)
		if err != nil {
			svc.log.Warn(fmt.Sprintf("course %s: listing submissions of %d: %v", courseID, a.ID, err))
			continue
		}
		for _, sub := range submissions {
			sis, ok := sisByUserID[sub.UserID]
			if !ok {
				continue
			}
			// Excused submissions get no exemption here: justifications
			// are not accepted for these programs.
			if sub.Score == nil || !sub.GradeMatchesCurrentSubmission {
				res.Pending[sis] = append(res.Pending[sis], a.Name)
			}
		}
	}

	return res
}
