package handler

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/rehab-api/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Current interface{} `json:"current,omitempty"`
}

func RespondSuccess(c *gin.Context, code int, data interface{}) {
	c.JSON(code, Response{
		Status: "success",
		Data:   data,
	})
}

// RespondError maps application errors onto HTTP statuses. State conflicts
// carry the stored state so the client can reload and retry.
func RespondError(c *gin.Context, err error) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		c.JSON(http.StatusInternalServerError, Response{
			Status:  "error",
			Message: "internal error",
		})
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Code {
	case errors.ErrNotFound:
		status = http.StatusNotFound
	case errors.ErrValidation:
		status = http.StatusBadRequest
	case errors.ErrAuthorization:
		status = http.StatusForbidden
	case errors.ErrStateConflict:
		status = http.StatusConflict
	}

	c.JSON(status, Response{
		Status:  "error",
		Message: appErr.Message,
		Current: appErr.Current,
	})
}
