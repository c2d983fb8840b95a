// Package export writes generated actas as spreadsheets.
package export

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/uautonoma/actgen/core/acta"
)

const (
	SheetName = "Actas"

	// MIMEType is the xlsx content type served on download.
	MIMEType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	gradeNumFmt = "0.0"
)

// WriteXLSX renders the report as a one-sheet workbook: numeric cells stay
// numbers with a one-decimal format, sentinel cells stay strings.
func WriteXLSX(rep *acta.Report) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, errors.Wrap(err, "naming sheet")
	}

	headers := make([]string, 0, len(rep.Columns)+6)
	headers = append(headers, "Nombre Completo", "RUT")
	headers = append(headers, rep.Columns...)
	headers = append(headers, "Promedio", "Estado", "Observaciones", "Email")

	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return nil, err
		}
	}

	for i, row := range rep.Rows {
		values := make([]interface{}, 0, len(headers))
		values = append(values, row.FullName, row.RUT)
		for _, c := range row.Cells {
			values = append(values, c.Value())
		}
		values = append(values, row.Average.Value(), row.Estado, row.Observaciones, row.Email)

		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return nil, err
			}
		}
	}

	if err := formatGradeColumns(f, len(rep.Columns)); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "writing workbook")
	}
	return buf, nil
}

// formatGradeColumns applies the one-decimal number format to C1..Cn and
// Promedio.
func formatGradeColumns(f *excelize.File, courseCount int) error {
	fmtStr := gradeNumFmt
	styleID, err := f.NewStyle(&excelize.Style{CustomNumFmt: &fmtStr})
	if err != nil {
		return errors.Wrap(err, "creating grade style")
	}

	first, err := excelize.ColumnNumberToName(3) // first course column
	if err != nil {
		return err
	}
	last, err := excelize.ColumnNumberToName(3 + courseCount) // Promedio
	if err != nil {
		return err
	}
	return f.SetColStyle(SheetName, fmt.Sprintf("%s:%s", first, last), styleID)
}
