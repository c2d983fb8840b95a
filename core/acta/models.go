package acta

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/uautonoma/actgen/core"
)

// Estado values, in priority order.
const (
	EstadoPendiente   = "Pendiente"
	EstadoRegularizar = "Regularizar"
	EstadoSinNotas    = "Sin notas"
	EstadoReprobado   = "Reprobado"
	EstadoAprobado    = "Aprobado"
)

// Cell sentinels.
const (
	cellPendiente   = "Pendiente"
	cellNoExiste    = "No existe"
	cellSinCalcular = "Sin calcular"
)

const passingGrade = 4.0

type (
	// CourseRef is the basic course metadata used for validation and labeling.
	CourseRef struct {
		ID          int    `json:"id"`
		AccountID   int    `json:"account_id"`
		Name        string `json:"name"`
		CourseCode  string `json:"course_code"`
		SISCourseID string `json:"sis_course_id"`
	}

	Account struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}

	// Enrollment is one active student enrollment in a course; Final and
	// Current are nil when the grade is absent or unparseable.
	Enrollment struct {
		SISUserID string
		First     string
		Last      string
		Email     string
		Final     *float64
		Current   *float64
	}

	// CourseUser maps a course-local numeric user id to the stable SIS id.
	CourseUser struct {
		ID        int
		SISUserID string
	}

	Assignment struct {
		ID             int
		Name           string
		PointsPossible *float64
		GradingType    string
	}

	Submission struct {
		AssignmentID                  int
		UserID                        int
		Score                         *float64
		GradeMatchesCurrentSubmission bool
	}
)

// API is the remote gradebook surface the aggregation pipeline consumes.
type API interface {
	GetCourse(ctx context.Context, courseID string) (CourseRef, error)
	GetAccount(ctx context.Context, accountID int) (Account, error)
	ListActiveEnrollments(ctx context.Context, courseID string) ([]Enrollment, error)
	ListStudents(ctx context.Context, courseID string) ([]CourseUser, error)
	ListAssignments(ctx context.Context, courseID string) ([]Assignment, error)
	ListSubmissions(ctx context.Context, courseID string, assignmentID int) ([]Submission, error)
}

// ReportStore holds generated reports for redisplay and export until the
// next run overwrites them.
type ReportStore interface {
	Save(rep *Report) string
	Get(id string) (*Report, bool)
}

// CellKind discriminates the variants a course cell can take.
type CellKind int

const (
	KindGrade CellKind = iota // a definite final grade, counted in the average
	KindZero                  // enrolled without a final grade; displayed as 0, excluded from the average
	KindPendiente
	KindNoExiste
	KindSinCalcular // average sentinel when no course resolved to a grade
)

// Cell is a tagged variant: either a numeric grade or one of the sentinels.
type Cell struct {
	Kind  CellKind
	Grade float64
}

func GradeCell(v float64) Cell { return Cell{Kind: KindGrade, Grade: v} }

// Numeric reports the value participating in numeric comparisons; Zero
// cells count here even though they never enter the average.
func (c Cell) Numeric() (float64, bool) {
	switch c.Kind {
	case KindGrade:
		return c.Grade, true
	case KindZero:
		return 0, true
	}
	return 0, false
}

func (c Cell) String() string {
	switch c.Kind {
	case KindGrade:
		return strconv.FormatFloat(c.Grade, 'f', 1, 64)
	case KindZero:
		return "0.0"
	case KindPendiente:
		return cellPendiente
	case KindNoExiste:
		return cellNoExiste
	default:
		return cellSinCalcular
	}
}

// Value returns what the cell exports as: a float for numeric cells, the
// sentinel string otherwise.
func (c Cell) Value() interface{} {
	if v, ok := c.Numeric(); ok {
		return v
	}
	return c.String()
}

type (
	// Row is one student line of the acta.
	Row struct {
		SISUserID     string
		FullName      string
		RUT           string
		Cells         []Cell
		Average       Cell
		Estado        string
		Observaciones string
		Email         string
		// PendingTasks maps a course column key to the assignment names
		// still holding the grade back there.
		PendingTasks map[string][]string
	}

	Report struct {
		Account   Account
		Signature string
		Courses   []CourseRef
		Columns   []string // C1..Cn, dictation order
		Rows      []Row
		Elapsed   time.Duration
	}
)

// Filename is "<account name>-<second segment of the first course's code>.xlsx".
func (r *Report) Filename() string {
	seg := ""
	if len(r.Courses) > 0 {
		seg = r.Courses[0].CourseCode
		if parts := strings.Split(seg, "-"); len(parts) > 1 {
			seg = parts[1]
		}
	}
	return r.Account.Name + "-" + seg + ".xlsx"
}

// SplitSortableName breaks a "Last, First" name apart; both parts are empty
// when there is no comma.
func SplitSortableName(sortable string) (last, first string) {
	if !strings.Contains(sortable, ",") {
		return "", ""
	}
	parts := strings.SplitN(sortable, ",", 2)
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
}

// DisplayRUT formats the stable identifier for presentation.
func DisplayRUT(sisUserID string) string {
	if sisUserID == "" {
		return "Sin Rut"
	}
	return core.FormatRUT(sisUserID)
}
