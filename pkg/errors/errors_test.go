package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NotFound("slot", nil), http.StatusNotFound},
		{"bad request", BadRequest("invalid date", nil), http.StatusBadRequest},
		{"unauthorized", Unauthorized(nil), http.StatusUnauthorized},
		{"forbidden", Forbidden("not your appointment"), http.StatusForbidden},
		{"conflict", Conflict("slot already booked", nil), http.StatusConflict},
		{"internal", Internal("failed to book", fmt.Errorf("boom")), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("outer: %w", NotFound("doctor", nil)), http.StatusNotFound},
		{"plain", fmt.Errorf("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}

func TestAppErrorMessage(t *testing.T) {
	err := Internal("failed to cancel appointment", fmt.Errorf("connection reset"))
	assert.Equal(t, "failed to cancel appointment: connection reset", err.Error())
	assert.True(t, Is(err, ErrInternal))
	assert.False(t, Is(err, ErrNotFound))
	assert.Equal(t, "doctor not found", NotFound("doctor", nil).Error())
}
