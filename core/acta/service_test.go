package acta

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uautonoma/actgen/core"
)

// fakeAPI serves canned data; a nil entry means "endpoint fails".
type fakeAPI struct {
	courses     map[string]CourseRef
	accounts    map[int]Account
	enrollments map[string][]Enrollment
	students    map[string][]CourseUser
	assignments map[string][]Assignment
	submissions map[string]map[int][]Submission

	enrollmentErrs map[string]error
	studentErrs    map[string]error
	assignmentErrs map[string]error
	submissionErrs map[string]error
}

var errFakeNotFound = errors.New("not found")

func (f *fakeAPI) GetCourse(_ context.Context, courseID string) (CourseRef, error) {
	ref, ok := f.courses[courseID]
	if !ok {
		return CourseRef{}, errFakeNotFound
	}
	return ref, nil
}

func (f *fakeAPI) GetAccount(_ context.Context, accountID int) (Account, error) {
	acc, ok := f.accounts[accountID]
	if !ok {
		return Account{}, errFakeNotFound
	}
	return acc, nil
}

func (f *fakeAPI) ListActiveEnrollments(_ context.Context, courseID string) ([]Enrollment, error) {
	if err := f.enrollmentErrs[courseID]; err != nil {
		return nil, err
	}
	return f.enrollments[courseID], nil
}

func (f *fakeAPI) ListStudents(_ context.Context, courseID string) ([]CourseUser, error) {
	if err := f.studentErrs[courseID]; err != nil {
		return nil, err
	}
	return f.students[courseID], nil
}

func (f *fakeAPI) ListAssignments(_ context.Context, courseID string) ([]Assignment, error) {
	if err := f.assignmentErrs[courseID]; err != nil {
		return nil, err
	}
	return f.assignments[courseID], nil
}

func (f *fakeAPI) ListSubmissions(_ context.Context, courseID string, assignmentID int) ([]Submission, error) {
	if err := f.submissionErrs[courseID]; err != nil {
		return nil, err
	}
	return f.submissions[courseID][assignmentID], nil
}

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func floatPtr(v float64) *float64 { return &v }

// programFake returns a two-course Magister program with one student in
// both courses and one student only in C1.
func programFake() *fakeAPI {
	return &fakeAPI{
		courses: map[string]CourseRef{
			"101": {ID: 101, AccountID: 7, Name: "Curso Uno", CourseCode: "ADB-MDIR2025-C1-1", SISCourseID: "ADB-MDIR2025-C1-1"},
			"102": {ID: 102, AccountID: 7, Name: "Curso Dos", CourseCode: "ADB-MDIR2025-C2-1", SISCourseID: "ADB-MDIR2025-C2-1"},
		},
		accounts: map[int]Account{7: {ID: 7, Name: "Magister en Dirección"}},
		enrollments: map[string][]Enrollment{
			"101": {
				{SISUserID: "193745040", First: "Ana", Last: "Soto", Email: "ana@example.cl", Final: floatPtr(5.5), Current: floatPtr(5.5)},
				{SISUserID: "12345K", First: "Beto", Last: "Rojas", Email: "beto@example.cl", Final: floatPtr(4.0), Current: floatPtr(4.0)},
			},
			"102": {
				{SISUserID: "193745040", First: "Ana", Last: "Soto", Email: "ana@example.cl", Final: floatPtr(6.2), Current: floatPtr(6.2)},
			},
		},
		students: map[string][]CourseUser{
			"101": {{ID: 1, SISUserID: "193745040"}, {ID: 2, SISUserID: "12345K"}},
			"102": {{ID: 9, SISUserID: "193745040"}},
		},
		assignments: map[string][]Assignment{},
		submissions: map[string]map[int][]Submission{},
	}
}

func TestGenerateCourseCountValidation(t *testing.T) {
	svc := NewService(&fakeAPI{}, nopLogger{})

	_, err := svc.Generate(context.Background(), "   ")
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "course_ids", vErr.Fields[0].Field)

	many := ""
	for i := 0; i < 21; i++ {
		many += "1 "
	}
	_, err = svc.Generate(context.Background(), many)
	require.ErrorAs(t, err, &vErr)
}

func TestGenerateFullRun(t *testing.T) {
	svc := NewService(programFake(), nopLogger{})

	rep, err := svc.Generate(context.Background(), "101, 102")
	require.NoError(t, err)

	assert.Equal(t, "Magister en Dirección", rep.Account.Name)
	assert.Equal(t, "ADB-MDIR2025-CX-1", rep.Signature)
	assert.Equal(t, []string{"C1", "C2"}, rep.Columns)
	require.Len(t, rep.Rows, 2)

	ana := rep.Rows[0]
	assert.Equal(t, "Ana Soto", ana.FullName)
	assert.Equal(t, "19.374.504-0", ana.RUT)
	assert.Equal(t, GradeCell(5.9), ana.Average) // (5.5+6.2)/2 = 5.85 -> 5.9
	assert.Equal(t, EstadoAprobado, ana.Estado)

	beto := rep.Rows[1]
	assert.Equal(t, "12.345-K", beto.RUT)
	assert.Equal(t, Cell{Kind: KindNoExiste}, beto.Cells[1])
	assert.Equal(t, EstadoRegularizar, beto.Estado)

	assert.Equal(t, "Magister en Dirección-MDIR2025.xlsx", rep.Filename())
}

func TestGenerateIdempotent(t *testing.T) {
	svc := NewService(programFake(), nopLogger{})

	first, err := svc.Generate(context.Background(), "101 102")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		rep, err := svc.Generate(context.Background(), "101 102")
		require.NoError(t, err)
		assert.Equal(t, first.Rows, rep.Rows)
		assert.Equal(t, first.Columns, rep.Columns)
	}
}
