package acta

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/uautonoma/actgen/core"
)

// courseMarkerRegex matches the course-position segment of a SIS course id,
// e.g. the "-C3-" in "ADB-MDIR2025-C3-1". Wildcarding it yields the program
// signature shared by every course of one program run.
var courseMarkerRegex = regexp.MustCompile(`-C\d+-`)

const signatureWildcard = "-CX-"

// InvalidCoursesError reports the requested ids whose metadata fetch failed.
type InvalidCoursesError struct {
	IDs []string
}

func (e *InvalidCoursesError) Error() string {
	return fmt.Sprintf("IDs inválidos: %s", strings.Join(e.IDs, ", "))
}

// SignatureMismatchError reports courses reducing to more than one program
// signature; such courses must never be merged into one acta.
type SignatureMismatchError struct {
	Signatures []string
}

func (e *SignatureMismatchError) Error() string {
	return fmt.Sprintf("Cursos de diplomados distintos: %s", strings.Join(e.Signatures, ", "))
}

// WrongProgramError reports a batch whose signature does not belong to the
// Magister family this tool handles.
type WrongProgramError struct {
	Signature string
}

func (e *WrongProgramError) Error() string {
	return fmt.Sprintf(
		"%s: Los cursos no pertenecen a un Magister, usa la versión correcta. Si crees que hay un error contacta a soporte (%s)",
		e.Signature, core.Conf.GetString("supportEmail"),
	)
}

// Signature wildcards the course-position marker of a SIS course id.
func Signature(sisCourseID string) string {
	return courseMarkerRegex.ReplaceAllString(sisCourseID, signatureWildcard)
}

// validateCourses fetches metadata for every requested id concurrently and
// confirms the batch forms exactly one Magister program run. Any failure
// here aborts the whole run before aggregation starts.
func (svc *Service) validateCourses(ctx context.Context, ids []string) ([]CourseRef, string, Account, error) {
	type result struct {
		ref CourseRef
		err error
	}
	results := fanOut(poolSize, ids, func(id string) result {
		ref, err := svc.api.GetCourse(ctx, id)
		return result{ref: ref, err: err}
	})

	courses := make([]CourseRef, 0, len(ids))
	var invalid []string
	for i, res := range results {
		if res.err != nil {
			svc.log.Warn(fmt.Sprintf("course %s: metadata fetch failed: %v", ids[i], res.err))
			invalid = append(invalid, ids[i])
			continue
		}
		courses = append(courses, res.ref)
	}
	if len(invalid) > 0 {
		return nil, "", Account{}, &InvalidCoursesError{IDs: invalid}
	}

	seen := make(map[string]struct{}, 1)
	var signatures []string
	for _, c := range courses {
		sig := Signature(c.SISCourseID)
		if _, ok := seen[sig]; !ok {
			seen[sig] = struct{}{}
			signatures = append(signatures, sig)
		}
	}
	if len(signatures) != 1 {
		sort.Strings(signatures)
		return nil, "", Account{}, &SignatureMismatchError{Signatures: signatures}
	}

	signature := signatures[0]
	segments := strings.Split(signature, "-")
	if len(segments) < 2 || !strings.HasPrefix(segments[1], "M") {
		return nil, "", Account{}, &WrongProgramError{Signature: signature}
	}

	account, err := svc.api.GetAccount(ctx, courses[0].AccountID)
	if err != nil {
		return nil, "", Account{}, errors.Wrapf(err, "fetching account %d", courses[0].AccountID)
	}
	return courses, signature, account, nil
}
