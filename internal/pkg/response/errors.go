package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"tutorbook/internal/domain"
)

// RetryAfterSeconds is advertised on TEMPORARILY_UNAVAILABLE responses.
const RetryAfterSeconds = "1"

// FromError maps a service error onto the HTTP error envelope. Errors that do
// not match a domain kind are logged and reported as INTERNAL.
func FromError(c *gin.Context, log *slog.Logger, err error) {
	var (
		noAvail *domain.NoAvailabilityError
		outside *domain.OutsideWindowError
		double  *domain.DoubleBookingError
	)

	switch {
	case errors.As(err, &noAvail):
		ErrorWithDetails(c, http.StatusConflict, "NO_AVAILABILITY", noAvail.Error(), gin.H{
			"weekday": noAvail.Weekday.String(),
		})
	case errors.As(err, &outside):
		ErrorWithDetails(c, http.StatusConflict, "OUTSIDE_WINDOW", outside.Error(), gin.H{
			"window_start": outside.WindowStart,
			"window_end":   outside.WindowEnd,
		})
	case errors.As(err, &double):
		details := gin.H{"party": double.Party}
		if double.StartTime != "" {
			details["start_time"] = double.StartTime
			details["end_time"] = double.EndTime
		}
		if double.BookingID != 0 {
			details["booking_id"] = double.BookingID
		}
		ErrorWithDetails(c, http.StatusConflict, "DOUBLE_BOOKING", double.Error(), details)

	case errors.Is(err, domain.ErrTransient):
		c.Header("Retry-After", RetryAfterSeconds)
		Error(c, http.StatusServiceUnavailable, "TEMPORARILY_UNAVAILABLE", "Please retry the request")
	case errors.Is(err, domain.ErrNotFound):
		Error(c, http.StatusNotFound, "NOT_FOUND", notFoundMessage(err))
	case errors.Is(err, domain.ErrForbidden):
		Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied")
	case errors.Is(err, domain.ErrInvalidDuration):
		Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Session duration must be positive")
	case errors.Is(err, domain.ErrInvalidInput):
		Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, domain.ErrNoAvailability):
		Error(c, http.StatusConflict, "NO_AVAILABILITY", "Tutor is not available on that day")
	case errors.Is(err, domain.ErrOutsideWindow):
		Error(c, http.StatusConflict, "OUTSIDE_WINDOW", "Requested time is outside tutor availability")
	case errors.Is(err, domain.ErrDoubleBooking):
		Error(c, http.StatusConflict, "DOUBLE_BOOKING", "Slot is already booked")
	case errors.Is(err, domain.ErrInvalidTransition):
		Error(c, http.StatusConflict, "INVALID_TRANSITION", "Booking is no longer confirmed")
	case errors.Is(err, domain.ErrAlreadyReviewed):
		Error(c, http.StatusConflict, "ALREADY_REVIEWED", "Booking already has a review")
	case errors.Is(err, domain.ErrBookingNotCompleted):
		Error(c, http.StatusConflict, "BOOKING_NOT_COMPLETED", "Only completed bookings can be reviewed")

	default:
		if log != nil {
			log.Error("request failed",
				slog.String("method", c.Request.Method),
				slog.String("path", c.FullPath()),
				slog.String("error", err.Error()),
			)
		}
		_ = c.Error(err)
		Error(c, http.StatusInternalServerError, "INTERNAL", "Internal server error")
	}
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrTutorNotFound):
		return "Tutor not found"
	case errors.Is(err, domain.ErrTutorProfileNotFound):
		return "Tutor profile not found"
	case errors.Is(err, domain.ErrBookingNotFound):
		return "Booking not found"
	default:
		return "Resource not found"
	}
}
