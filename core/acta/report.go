package acta

import (
	"fmt"
	"math"
	"strings"
)

// RoundHalfUp rounds to one decimal, half away from zero, floor-based to
// dodge banker's-rounding artifacts: 5.85 -> 5.9.
func RoundHalfUp(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}

type mergedStudent struct {
	first   string
	last    string
	email   string
	grades  map[int]StudentGrade
	pending map[int][]string
}

// BuildReport merges per-course results in dictation order and derives each
// student's cells, average and Estado.
func BuildReport(account Account, signature string, courses []CourseRef, results []CourseResult) *Report {
	n := len(results)
	columns := make([]string, n)
	for i := range columns {
		columns[i] = fmt.Sprintf("C%d", i+1)
	}

	// Merge: first course occurrence supplies name and email; student order
	// is first-encounter order.
	students := make(map[string]*mergedStudent)
	var order []string
	for i, res := range results {
		for _, sis := range res.Order {
			grade := res.Students[sis]
			rec, ok := students[sis]
			if !ok {
				rec = &mergedStudent{
					first:   grade.First,
					last:    grade.Last,
					email:   grade.Email,
					grades:  make(map[int]StudentGrade),
					pending: make(map[int][]string),
				}
				students[sis] = rec
				order = append(order, sis)
			}
			rec.grades[i] = grade
		}
		for sis, tasks := range res.Pending {
			if rec, ok := students[sis]; ok {
				rec.pending[i] = tasks
			}
		}
	}

	rows := make([]Row, 0, len(order))
	for _, sis := range order {
		rec := students[sis]
		row := Row{
			SISUserID:    sis,
			FullName:     strings.TrimSpace(rec.first + " " + rec.last),
			RUT:          DisplayRUT(sis),
			Email:        rec.email,
			Cells:        make([]Cell, 0, n),
			PendingTasks: make(map[string][]string),
		}

		var grades []float64
		pendiente := false
		missing := 0
		for i := 0; i < n; i++ {
			grade, enrolled := rec.grades[i]
			switch {
			case !enrolled:
				row.Cells = append(row.Cells, Cell{Kind: KindNoExiste})
				missing++
			case len(rec.pending[i]) > 0:
				row.Cells = append(row.Cells, Cell{Kind: KindPendiente})
				row.PendingTasks[columns[i]] = rec.pending[i]
				pendiente = true
			case grade.Final != nil && grade.Current != nil && *grade.Final != *grade.Current:
				// Grade still in flight: a resubmission changed the current
				// grade but the final one has not caught up.
				row.Cells = append(row.Cells, Cell{Kind: KindPendiente})
				pendiente = true
			case grade.Final != nil:
				row.Cells = append(row.Cells, GradeCell(*grade.Final))
				grades = append(grades, *grade.Final)
			default:
				// Enrolled with no final grade and nothing pending: shown as
				// a zero but kept out of the average.
				row.Cells = append(row.Cells, Cell{Kind: KindZero})
			}
		}

		if len(grades) > 0 {
			sum := 0.0
			for _, g := range grades {
				sum += g
			}
			row.Average = GradeCell(RoundHalfUp(sum / float64(len(grades))))
		} else {
			row.Average = Cell{Kind: KindSinCalcular}
		}

		switch {
		case pendiente:
			row.Estado = EstadoPendiente
		case missing > 0:
			row.Estado = EstadoRegularizar
		case row.Average.Kind == KindSinCalcular:
			row.Estado = EstadoSinNotas
		case anyNumericBelow(row.Cells, passingGrade):
			row.Estado = EstadoReprobado
		default:
			row.Estado = EstadoAprobado
		}

		rows = append(rows, row)
	}

	return &Report{
		Account:   account,
		Signature: signature,
		Courses:   courses,
		Columns:   columns,
		Rows:      rows,
	}
}

// anyNumericBelow checks the course cells that surface as numbers, Zero
// cells included.
func anyNumericBelow(cells []Cell, limit float64) bool {
	for _, c := range cells {
		if v, ok := c.Numeric(); ok && v < limit {
			return true
		}
	}
	return false
}
