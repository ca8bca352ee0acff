package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/torneros/elms/core"
	"github.com/torneros/elms/core/token"
)

type tokenApi struct {
	svc      *token.Service
	validate *validator.Validate
}

// registerTokenAPI mounts the token endpoints on the root. The paths and
// response shapes are a frozen contract with deployed admin clients.
func registerTokenAPI(e *echo.Echo, svc *token.Service, validate *validator.Validate) {
	api := tokenApi{svc: svc, validate: validate}

	e.POST("/send-tokens", api.sendTokens)
	e.POST("/reroll-token", api.rerollToken)
	e.POST("/delete-token", api.deleteToken)
}

type (
	SendTokensRequest struct {
		Mode       string   `json:"mode" validate:"omitempty,oneof=reuse new both selected"`
		StudentIDs []string `json:"student_ids"`
	}

	SendTokensResponse struct {
		Message string `json:"message"`
		Sent    *int   `json:"sent,omitempty"`
	}

	RerollTokenRequest struct {
		StudentID string `json:"student_id" validate:"required"`
	}

	RerollTokenResponse struct {
		Token string `json:"token"`
	}

	DeleteTokenRequest struct {
		StudentID  string   `json:"student_id"`
		StudentIDs []string `json:"student_ids"`
	}

	DeleteTokenResponse struct {
		Deleted int64 `json:"deleted"`
	}
)

func (r *SendTokensRequest) Validate(validate *validator.Validate) error {
	r.Mode = core.CleanString(r.Mode, true /* lower */)
	for i, id := range r.StudentIDs {
		r.StudentIDs[i] = core.CleanString(id)
	}
	return validate.Struct(r)
}

func (r *RerollTokenRequest) Validate(validate *validator.Validate) error {
	r.StudentID = core.CleanString(r.StudentID)
	return validate.Struct(r)
}

// TargetIDs merges the single and plural forms; either satisfies the request.
func (r *DeleteTokenRequest) TargetIDs() []string {
	ids := make([]string, 0, len(r.StudentIDs)+1)
	if id := core.CleanString(r.StudentID); id != "" {
		ids = append(ids, id)
	}
	for _, id := range r.StudentIDs {
		if id = core.CleanString(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Handlers

func (api *tokenApi) sendTokens(ctx echo.Context) error {
	var data SendTokensRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SendTokensRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sent, err := api.svc.SendTokenEmails(ctx.Request().Context(), data.Mode, data.StudentIDs)
	if err != nil {
		if errors.Cause(err) == token.ErrNoStudents {
			return ctx.JSON(http.StatusOK, SendTokensResponse{Message: token.ErrNoStudents.Error()})
		}
		return errors.Wrap(err, "sending token emails")
	}

	return ctx.JSON(http.StatusOK, SendTokensResponse{
		Message: "Tokens generated and emails sent.",
		Sent:    &sent,
	})
}

func (api *tokenApi) rerollToken(ctx echo.Context) error {
	var data RerollTokenRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RerollTokenRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	newToken, err := api.svc.Reroll(ctx.Request().Context(), data.StudentID)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, RerollTokenResponse{Token: newToken})
}

func (api *tokenApi) deleteToken(ctx echo.Context) error {
	var data DeleteTokenRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DeleteTokenRequest")
	}
	ids := data.TargetIDs()
	if len(ids) == 0 {
		return core.NewValidationError(errors.New("student_id(s) required"))
	}

	deleted, err := api.svc.Revoke(ctx.Request().Context(), ids...)
	if err != nil {
		return errors.Wrap(err, "revoking tokens")
	}

	return ctx.JSON(http.StatusOK, DeleteTokenResponse{Deleted: deleted})
}
