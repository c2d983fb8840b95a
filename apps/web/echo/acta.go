package echoapi

import (
	"fmt"
	"net/http"
	"net/mail"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/uautonoma/actgen/core"
	"github.com/uautonoma/actgen/core/acta"
	"github.com/uautonoma/actgen/services/export"
)

type (
	GenerateRequest struct {
		CourseIDs string `json:"course_ids" validate:"required"`
	}

	EmailRequest struct {
		To string `json:"to" validate:"required,email"`
	}

	courseInfo struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
		Code string `json:"course_code"`
	}

	rowPayload struct {
		Cells        map[string]string   `json:"cells"`
		Colors       map[string]string   `json:"colors,omitempty"`
		PendingTasks map[string][]string `json:"pending_tasks,omitempty"`
	}

	reportPayload struct {
		ID             string       `json:"id"`
		Account        string       `json:"account"`
		Signature      string       `json:"signature"`
		Courses        []courseInfo `json:"courses"`
		Columns        []string     `json:"columns"`
		Rows           []rowPayload `json:"rows"`
		Filename       string       `json:"filename"`
		ElapsedSeconds float64      `json:"elapsed_seconds"`
	}
)

type actaApi struct {
	deps ServerDeps
}

func registerActaAPI(g *echo.Group, deps ServerDeps) {
	api := actaApi{deps: deps}

	ag := g.Group("/actas")
	ag.POST("", api.actaGenerate)
	ag.GET("/:id", api.actaRetrieve)
	ag.GET("/:id/download", api.actaDownload)
	ag.POST("/:id/email", api.actaEmail)
}

// Handlers

func (api *actaApi) actaGenerate(ctx echo.Context) error {
	data := new(GenerateRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := api.deps.Validate.Struct(data); err != nil {
		return err
	}

	rep, err := api.deps.ActaSvc.Generate(ctx.Request().Context(), data.CourseIDs)
	if err != nil {
		return err
	}
	id := api.deps.Store.Save(rep)

	return ctx.JSON(http.StatusCreated, newReportPayload(id, rep))
}

func (api *actaApi) actaRetrieve(ctx echo.Context) error {
	id := ctx.Param("id")
	rep, ok := api.deps.Store.Get(id)
	if !ok {
		return errReportNotFound
	}
	return ctx.JSON(http.StatusOK, newReportPayload(id, rep))
}

func (api *actaApi) actaDownload(ctx echo.Context) error {
	rep, ok := api.deps.Store.Get(ctx.Param("id"))
	if !ok {
		return errReportNotFound
	}

	buf, err := export.WriteXLSX(rep)
	if err != nil {
		return err
	}
	ctx.Response().Header().Set(
		echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", rep.Filename()),
	)
	return ctx.Blob(http.StatusOK, export.MIMEType, buf.Bytes())
}

func (api *actaApi) actaEmail(ctx echo.Context) error {
	data := new(EmailRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := api.deps.Validate.Struct(data); err != nil {
		return err
	}

	rep, ok := api.deps.Store.Get(ctx.Param("id"))
	if !ok {
		return errReportNotFound
	}

	buf, err := export.WriteXLSX(rep)
	if err != nil {
		return err
	}
	msg := &core.EmailMessage{
		To:      []mail.Address{{Address: data.To}},
		Subject: "Acta " + rep.Signature,
		BodyStr: fmt.Sprintf("Se adjunta el acta de %s (%s).", rep.Account.Name, rep.Signature),
	}
	if err := msg.Attach(buf, rep.Filename(), export.MIMEType); err != nil {
		return err
	}
	api.deps.MailSvc.SendMessages(msg)

	return ctx.JSON(http.StatusAccepted, echo.Map{"sent_to": data.To})
}

// Payload helpers

func newReportPayload(id string, rep *acta.Report) reportPayload {
	courses := make([]courseInfo, 0, len(rep.Courses))
	for _, c := range rep.Courses {
		courses = append(courses, courseInfo{ID: c.ID, Name: c.Name, Code: c.CourseCode})
	}

	columns := make([]string, 0, len(rep.Columns)+6)
	columns = append(columns, "Nombre Completo", "RUT")
	columns = append(columns, rep.Columns...)
	columns = append(columns, "Promedio", "Estado", "Observaciones", "Email")

	rows := make([]rowPayload, 0, len(rep.Rows))
	for _, row := range rep.Rows {
		cells := map[string]string{
			"Nombre Completo": row.FullName,
			"RUT":             row.RUT,
			"Promedio":        row.Average.String(),
			"Estado":          row.Estado,
			"Observaciones":   row.Observaciones,
			"Email":           row.Email,
		}
		colors := make(map[string]string)
		for i, key := range rep.Columns {
			cells[key] = row.Cells[i].String()
			if color := statusColor(cells[key]); color != "" {
				colors[key] = color
			}
		}
		if color := statusColor(cells["Promedio"]); color != "" {
			colors["Promedio"] = color
		}
		if color := statusColor(row.Estado); color != "" {
			colors["Estado"] = color
		}

		payload := rowPayload{Cells: cells, Colors: colors}
		if len(row.PendingTasks) > 0 {
			payload.PendingTasks = row.PendingTasks
		}
		rows = append(rows, payload)
	}

	return reportPayload{
		ID:             id,
		Account:        rep.Account.Name,
		Signature:      rep.Signature,
		Courses:        courses,
		Columns:        columns,
		Rows:           rows,
		Filename:       rep.Filename(),
		ElapsedSeconds: rep.Elapsed.Seconds(),
	}
}

// statusColor is the display-only color hint for a rendered cell value.
func statusColor(val string) string {
	switch val {
	case acta.EstadoAprobado:
		return "lightgreen"
	case acta.EstadoReprobado:
		return "salmon"
	case acta.EstadoPendiente:
		return "orange"
	case "Sin calcular", "No existe", acta.EstadoRegularizar:
		return "red"
	}
	if num, err := strconv.ParseFloat(val, 64); err == nil && num < 4.0 {
		return "salmon"
	}
	return ""
}
