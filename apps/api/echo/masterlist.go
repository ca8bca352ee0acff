package echoapi

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/torneros/elms/core/sheet"
	"github.com/torneros/elms/core/student"
)

type studentApi struct {
	svc      *student.Service
	validate *validator.Validate
}

func registerStudentAPI(g *echo.Group, svc *student.Service, validate *validator.Validate) {
	api := studentApi{svc: svc, validate: validate}

	sg := g.Group("/students")
	sg.GET("", api.query)
	sg.POST("/import", api.importMasterlist)
	sg.POST("/reset", api.reset)
}

type (
	ImportTextRequest struct {
		Text string `json:"text" validate:"required"`
	}

	ImportResponse struct {
		Imported int `json:"imported"`
	}

	ResetResponse struct {
		Removed int64 `json:"removed"`
	}
)

func (r *ImportTextRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}

// Handlers

func (api *studentApi) query(ctx echo.Context) error {
	students, err := api.svc.QueryActive(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, students)
}

// importMasterlist accepts either an uploaded workbook (multipart "file",
// read from the Students sheet) or a pasted tab-separated block as JSON.
func (api *studentApi) importMasterlist(ctx echo.Context) error {
	var rows []sheet.StudentRow

	if isMultipart(ctx) {
		sheetRows, err := workbookRows(ctx, sheet.StudentsSheet)
		if err != nil {
			return err
		}
		if rows, err = sheet.ExtractStudents(sheetRows); err != nil {
			return err
		}
	} else {
		var data ImportTextRequest
		if err := ctx.Bind(&data); err != nil {
			return errors.Wrap(err, "binding to ImportTextRequest")
		}
		if err := data.Validate(api.validate); err != nil {
			return err
		}
		rows = sheet.ParseStudentsTSV(data.Text)
	}

	count, err := api.svc.Import(ctx.Request().Context(), rows)
	if err != nil {
		return errors.Wrap(err, "importing students")
	}
	return ctx.JSON(http.StatusOK, ImportResponse{Imported: count})
}

func (api *studentApi) reset(ctx echo.Context) error {
	removed, err := api.svc.ResetAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "resetting students")
	}
	return ctx.JSON(http.StatusOK, ResetResponse{Removed: removed})
}

// Upload helpers, shared with the grade endpoints.

func isMultipart(ctx echo.Context) bool {
	return strings.HasPrefix(ctx.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

func workbookRows(ctx echo.Context, sheetName string) ([][]string, error) {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "file upload required")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, errors.Wrap(err, "opening uploaded file")
	}
	defer f.Close()

	wb, err := sheet.ReadWorkbook(f)
	if err != nil {
		return nil, errors.Wrap(err, "reading workbook")
	}
	defer wb.Close()

	return wb.SheetRows(sheetName)
}
