// Package handlers implements the HTTP endpoints of the triage API.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lexintel/LexTriage/pkg/errors"
)

// ErrorBody is the JSON error envelope returned on every failure.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// respondError renders an error with its mapped HTTP status.  Server-side
// failures are masked; the structured detail stays in the logs.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var ae *errors.AppError
	if !errors.As(err, &ae) {
		c.JSON(http.StatusInternalServerError, ErrorBody{
			Code:    errors.ErrCodeInternal.String(),
			Message: "internal server error",
		})
		return
	}

	status := errors.HTTPStatusForCode(ae.Code)
	body := ErrorBody{Code: ae.Code.String(), Message: ae.Message, Detail: ae.Detail}
	if errors.IsServerError(ae.Code) {
		body.Message = errors.DefaultMessageForCode(ae.Code)
		body.Detail = ""
	}
	c.JSON(status, body)
}

// bindJSON decodes the request body, translating bind failures into the
// standard envelope.
func bindJSON(c *gin.Context, out interface{}) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "malformed request body"))
		return false
	}
	return true
}
