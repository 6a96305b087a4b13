package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutorbook/internal/domain"
)

type envelope struct {
	Success bool `json:"success"`
	Error   struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func render(t *testing.T, err error) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rr := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rr)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	FromError(c, nil, err)

	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return rr, env
}

func TestFromError_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", fmt.Errorf("op: %w", domain.ErrBookingNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"invalid input", fmt.Errorf("%w: bad date", domain.ErrInvalidInput), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"invalid duration", domain.ErrInvalidDuration, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"transition", domain.ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION"},
		{"reviewed", domain.ErrAlreadyReviewed, http.StatusConflict, "ALREADY_REVIEWED"},
		{"not completed", domain.ErrBookingNotCompleted, http.StatusConflict, "BOOKING_NOT_COMPLETED"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, env := render(t, tt.err)
			assert.Equal(t, tt.status, rr.Code)
			assert.False(t, env.Success)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestFromError_TypedDetails(t *testing.T) {
	rr, env := render(t, fmt.Errorf("op: %w", &domain.OutsideWindowError{WindowStart: "09:00", WindowEnd: "12:00"}))
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "OUTSIDE_WINDOW", env.Error.Code)
	assert.Equal(t, "09:00", env.Error.Details["window_start"])
	assert.Equal(t, "12:00", env.Error.Details["window_end"])

	_, env = render(t, &domain.NoAvailabilityError{Weekday: time.Sunday})
	assert.Equal(t, "NO_AVAILABILITY", env.Error.Code)
	assert.Equal(t, "Sunday", env.Error.Details["weekday"])

	_, env = render(t, &domain.DoubleBookingError{Party: "tutor", BookingID: 7, StartTime: "10:00", EndTime: "11:00"})
	assert.Equal(t, "DOUBLE_BOOKING", env.Error.Code)
	assert.Equal(t, "tutor", env.Error.Details["party"])
	assert.Equal(t, float64(7), env.Error.Details["booking_id"])
}

func TestFromError_TransientSetsRetryAfter(t *testing.T) {
	rr, env := render(t, fmt.Errorf("%w: database is locked", domain.ErrTransient))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "TEMPORARILY_UNAVAILABLE", env.Error.Code)
	assert.Equal(t, RetryAfterSeconds, rr.Header().Get("Retry-After"))
}
