package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/torneros/elms/core/grade"
	"github.com/torneros/elms/core/sheet"
)

type gradeApi struct {
	svc      *grade.Service
	validate *validator.Validate
}

func registerGradeAPI(g *echo.Group, svc *grade.Service, validate *validator.Validate) {
	api := gradeApi{svc: svc, validate: validate}

	gg := g.Group("/grades")
	gg.GET("", api.query)
	gg.POST("/import", api.importSubjects)
	gg.POST("/import-history", api.importHistory)
	gg.POST("/reset", api.reset)
}

type GradeImportRequest struct {
	Text string `json:"text"`
	// Overwrite tombstones existing subject rows first; without it a
	// re-import of the same sheet duplicates rows.
	Overwrite bool `json:"overwrite" query:"overwrite"`
}

// Handlers

func (api *gradeApi) query(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	subjects, err := api.svc.QueryActive(ctx.Request().Context(), ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *gradeApi) importSubjects(ctx echo.Context) error {
	rows, overwrite, err := api.bindRows(ctx)
	if err != nil {
		return err
	}

	if overwrite {
		if _, err = api.svc.ResetAll(ctx.Request().Context()); err != nil {
			return errors.Wrap(err, "resetting subjects")
		}
	}

	count, err := api.svc.ImportSubjects(ctx.Request().Context(), rows)
	if err != nil {
		return errors.Wrap(err, "importing subjects")
	}
	return ctx.JSON(http.StatusOK, ImportResponse{Imported: count})
}

// importHistory feeds the legacy grades table; unlike the subject import it
// dedupes on (student, subject, school year, semester).
func (api *gradeApi) importHistory(ctx echo.Context) error {
	rows, _, err := api.bindRows(ctx)
	if err != nil {
		return err
	}

	count, err := api.svc.ImportGradeHistory(ctx.Request().Context(), rows)
	if err != nil {
		return errors.Wrap(err, "importing grade history")
	}
	return ctx.JSON(http.StatusOK, ImportResponse{Imported: count})
}

func (api *gradeApi) reset(ctx echo.Context) error {
	removed, err := api.svc.ResetAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "resetting subjects")
	}
	return ctx.JSON(http.StatusOK, ResetResponse{Removed: removed})
}

func (api *gradeApi) bindRows(ctx echo.Context) ([]sheet.SubjectRow, bool, error) {
	if isMultipart(ctx) {
		overwrite := ctx.QueryParam("overwrite") == "true"
		sheetRows, err := workbookRows(ctx, sheet.SubjectsSheet)
		if err != nil {
			return nil, false, err
		}
		rows, err := sheet.ExtractSubjects(sheetRows)
		if err != nil {
			return nil, false, err
		}
		return rows, overwrite, nil
	}

	var data GradeImportRequest
	if err := ctx.Bind(&data); err != nil {
		return nil, false, errors.Wrap(err, "binding to GradeImportRequest")
	}
	if data.Text == "" {
		return nil, false, echo.NewHTTPError(http.StatusBadRequest, "text or file required")
	}
	return sheet.ParseSubjectsTSV(data.Text), data.Overwrite, nil
}
