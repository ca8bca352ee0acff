package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/torneros/elms/core"
	"github.com/torneros/elms/core/grade"
	"github.com/torneros/elms/core/student"
	"github.com/torneros/elms/core/token"
)

type portalApi struct {
	tokenSvc *token.Service
	gradeSvc *grade.Service
	validate *validator.Validate
}

func registerPortalAPI(g *echo.Group, tokenSvc *token.Service, gradeSvc *grade.Service, validate *validator.Validate) {
	api := portalApi{tokenSvc: tokenSvc, gradeSvc: gradeSvc, validate: validate}

	g.POST("/portal", api.resolve)
}

type (
	PortalRequest struct {
		Token string `json:"token" validate:"required"`
	}

	PortalResponse struct {
		Student student.Student      `json:"student"`
		Grades  []grade.SubjectGrade `json:"grades"`
	}
)

func (r *PortalRequest) Validate(validate *validator.Validate) error {
	r.Token = core.CleanString(r.Token)
	return validate.Struct(r)
}

// resolve exchanges a guest token for the owning student and their grades.
// The grade join is by full name; see grade.SubjectGrade.
func (api *portalApi) resolve(ctx echo.Context) error {
	var data PortalRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PortalRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	stu, err := api.tokenSvc.ResolveGuest(ctx.Request().Context(), data.Token)
	if err != nil {
		return err
	}

	grades, err := api.gradeSvc.ForStudentName(ctx.Request().Context(), stu.FullName)
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}

	return ctx.JSON(http.StatusOK, PortalResponse{Student: stu, Grades: grades})
}
