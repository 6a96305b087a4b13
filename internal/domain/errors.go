package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound             = errors.New("not_found")
	ErrTutorNotFound        = fmt.Errorf("tutor %w", ErrNotFound)
	ErrTutorProfileNotFound = fmt.Errorf("tutor profile %w", ErrNotFound)
	ErrBookingNotFound      = fmt.Errorf("booking %w", ErrNotFound)
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidInput         = errors.New("invalid_input")
	ErrInvalidDuration      = errors.New("invalid_duration")

	ErrNoAvailability = errors.New("no_availability")
	ErrOutsideWindow  = errors.New("outside_window")
	ErrDoubleBooking  = errors.New("double_booking")

	ErrInvalidTransition   = errors.New("invalid_transition")
	ErrAlreadyReviewed     = errors.New("already_reviewed")
	ErrBookingNotCompleted = errors.New("booking_not_completed")

	// ErrTransient marks store timeouts and contention. Safe to retry.
	ErrTransient = errors.New("transient")
)

// NoAvailabilityError is returned when the tutor has no active window on the
// requested weekday.
type NoAvailabilityError struct {
	Weekday time.Weekday
}

func (e *NoAvailabilityError) Error() string {
	return fmt.Sprintf("tutor has no availability on %s", e.Weekday)
}

func (e *NoAvailabilityError) Is(target error) bool { return target == ErrNoAvailability }

// OutsideWindowError carries the window closest to the rejected slot.
type OutsideWindowError struct {
	WindowStart string
	WindowEnd   string
}

func (e *OutsideWindowError) Error() string {
	return fmt.Sprintf("requested time is outside tutor availability %s-%s", e.WindowStart, e.WindowEnd)
}

func (e *OutsideWindowError) Is(target error) bool { return target == ErrOutsideWindow }

// DoubleBookingError describes the booking that already holds the range.
// Party is "tutor" or "student".
type DoubleBookingError struct {
	Party     string
	BookingID int64
	StartTime string
	EndTime   string
}

func (e *DoubleBookingError) Error() string {
	if e.StartTime == "" {
		return fmt.Sprintf("%s already has a booking for this slot", e.Party)
	}
	return fmt.Sprintf("%s already has a booking %s-%s", e.Party, e.StartTime, e.EndTime)
}

func (e *DoubleBookingError) Is(target error) bool { return target == ErrDoubleBooking }
