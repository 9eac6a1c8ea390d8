package handler

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/healthmate/api/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

func RespondWithSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, NewSuccessResponse(data))
}

// RespondWithError writes the envelope for err and records it on the context
// for the error middleware to log. Internal errors keep their cause in the
// message; clients show it as a short notice.
func RespondWithError(c *gin.Context, err error) {
	_ = c.Error(err)

	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(err.Error()))
		return
	}

	message := appErr.Message
	if appErr.Code == errors.ErrInternal && appErr.Err != nil {
		message = appErr.Error()
	}
	c.JSON(appErr.HTTPStatus(), NewErrorResponse(message))
}

// BindJSON decodes the body into obj and answers 400 itself on failure.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		RespondWithError(c, errors.BadRequest("invalid request body", err))
		return false
	}
	return true
}
