package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"eventhub/internal/app"
	"eventhub/internal/transport/http/response"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   int
	}{
		{app.ErrInvalidEmail, http.StatusBadRequest, response.CodeValidation},
		{app.ErrInvalidCredential, http.StatusUnauthorized, response.CodeUnauthorized},
		{app.ErrUserSuspended, http.StatusUnauthorized, response.CodeUserSuspended},
		{app.ErrNotEventEditor, http.StatusForbidden, response.CodeForbidden},
		{app.ErrEventNotFound, http.StatusNotFound, response.CodeNotFound},
		{fmt.Errorf("join: %w", app.ErrEventFull), http.StatusConflict, response.CodeConflict},
		{errors.New("connection reset"), http.StatusInternalServerError, response.CodeInternalServer},
	}
	for _, tt := range tests {
		status, code := statusOf(tt.err)
		assert.Equal(t, tt.wantStatus, status, tt.err.Error())
		assert.Equal(t, tt.wantCode, code, tt.err.Error())
	}
}
