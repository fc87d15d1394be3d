package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"eventhub/internal/app"
	"eventhub/internal/transport/http/response"
)

// writeError maps a service error onto an HTTP status and envelope code.
// Anything without an app.ErrorKind is an infrastructure failure: it is
// logged and the client only sees a generic message.
func writeError(c *gin.Context, err error) {
	status, code := statusOf(err)
	if status == http.StatusInternalServerError {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).
			Str("method", c.Request.Method).
			Str("route", c.FullPath()).
			Msg("request failed")
		response.Error(c, status, code, "internal server error")
		return
	}
	response.Error(c, status, code, err.Error())
}

func statusOf(err error) (int, int) {
	if errors.Is(err, app.ErrUserSuspended) {
		return http.StatusUnauthorized, response.CodeUserSuspended
	}
	switch app.KindOf(err) {
	case app.KindValidation:
		return http.StatusBadRequest, response.CodeValidation
	case app.KindAuth:
		return http.StatusUnauthorized, response.CodeUnauthorized
	case app.KindForbidden:
		return http.StatusForbidden, response.CodeForbidden
	case app.KindNotFound:
		return http.StatusNotFound, response.CodeNotFound
	case app.KindConflict:
		return http.StatusConflict, response.CodeConflict
	default:
		return http.StatusInternalServerError, response.CodeInternalServer
	}
}
