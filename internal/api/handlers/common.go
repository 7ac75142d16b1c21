package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/jobboard/internal/api/middleware"
	"github.com/yoockh/jobboard/internal/models"
	"github.com/yoockh/jobboard/internal/services"
	"github.com/yoockh/jobboard/internal/utils"
	"github.com/yoockh/jobboard/internal/validation"
)

type APIError struct {
	Code    utils.Code             `json:"code"`
	Message string                 `json:"message"`
	Fields  validation.FieldErrors `json:"fields,omitempty"`
}

func writeError(c *gin.Context, err error) {
	status := utils.HTTPStatus(err)

	var ae *utils.AppError
	if errors.As(err, &ae) {
		c.JSON(status, APIError{
			Code:    ae.Code,
			Message: ae.Message,
		})
		return
	}

	c.JSON(status, APIError{
		Code:    utils.CodeInternal,
		Message: http.StatusText(status),
	})
}

func writeFieldErrors(c *gin.Context, fe validation.FieldErrors) {
	c.JSON(http.StatusBadRequest, APIError{
		Code:    utils.CodeInvalidArgument,
		Message: "Please fix the highlighted fields",
		Fields:  fe,
	})
}

// writeResult renders an ActionResult with a status derived from its code.
func writeResult(c *gin.Context, res services.ActionResult) {
	if res.Success {
		c.JSON(http.StatusOK, res)
		return
	}
	c.JSON(utils.HTTPStatus(utils.E(res.Code, "", res.Error, nil)), res)
}

// bind decodes the JSON body into dst and validates it. It writes the error
// response itself and reports whether the handler should continue.
func bind(c *gin.Context, op string, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return false
	}
	if fe := validation.Validate(dst); fe != nil {
		writeFieldErrors(c, fe)
		return false
	}
	return true
}

func requireUserID(c *gin.Context) (string, bool) {
	if u := middleware.CurrentUser(c); u != nil {
		return u.ID, true
	}

	writeError(c, utils.E(utils.CodeUnauthorized, "Auth", "Not authenticated", nil))
	return "", false
}

func requireUser(c *gin.Context) (*models.User, bool) {
	if u := middleware.CurrentUser(c); u != nil {
		return u, true
	}

	writeError(c, utils.E(utils.CodeUnauthorized, "Auth", "Not authenticated", nil))
	return nil, false
}

// currentUserOrNil leaves the unauthenticated case to the service, which
// reports it in its ActionResult.
func currentUserOrNil(c *gin.Context) *models.User {
	return middleware.CurrentUser(c)
}
