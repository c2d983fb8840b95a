package acta

import (
	"context"
	"errors"
	"time"

	"github.com/uautonoma/actgen/core"
)

// poolSize bounds concurrent per-course fetches; the remote API rate-limits
// aggressive clients.
const poolSize = 5

const (
	minCourses = 1
	maxCourses = 20
)

var errCourseCount = errors.New("Ingresa todos los IDs de cursos del magister (entre 1 y 20)")

// Service runs the whole pipeline: parse ids, validate the batch, aggregate
// every course and build the acta. It is stateless; each call is one full
// rebuild from the remote API.
type Service struct {
	api API
	log core.Logger
}

func NewService(api API, log core.Logger) *Service {
	return &Service{api: api, log: log}
}

// Generate produces the acta for the courses listed in raw, in dictation
// order. Aborts before touching the API when the id count is out of range,
// and during validation when ids are invalid or signatures conflict;
// aggregation-phase fetch failures degrade into empty cells instead.
func (svc *Service) Generate(ctx context.Context, raw string) (*Report, error) {
	start := time.Now()

	ids := core.ParseIDList(raw)
	if len(ids) < minCourses || len(ids) > maxCourses {
		return nil, core.NewValidationError(
			errCourseCount,
			core.FieldError{Field: "course_ids", Error: errCourseCount.Error()},
		)
	}

	courses, signature, account, err := svc.validateCourses(ctx, ids)
	if err != nil {
		return nil, err
	}

	results := fanOut(poolSize, ids, func(id string) CourseResult {
		return svc.aggregateCourse(ctx, id)
	})

	rep := BuildReport(account, signature, courses, results)
	rep.Elapsed = time.Since(start)
	return rep, nil
}
