package booking

import (
	"fmt"
	"time"

	"tutorbook/internal/domain"
	"tutorbook/internal/pkg/timeutil"
)

// Slot is a proposed (date, start, end) range for a tutor and a student.
type Slot struct {
	TutorID   int64
	StudentID int64
	Date      string
	StartTime string
	EndTime   string
}

func (s Slot) minutes() (int, int, error) {
	start, err := timeutil.ParseClock(s.StartTime)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: start_time: %v", domain.ErrInvalidInput, err)
	}
	end, err := timeutil.ParseClock(s.EndTime)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: end_time: %v", domain.ErrInvalidInput, err)
	}
	if start >= end {
		return 0, 0, fmt.Errorf("%w: start_time must be before end_time", domain.ErrInvalidInput)
	}
	return start, end, nil
}

// CheckAdmissible decides whether slot may become a booking. It returns nil
// when the slot is admissible. windows are the tutor's availability rows and
// existing is a snapshot of bookings touching the tutor or the student; rows
// for other days, inactive windows and cancelled bookings are ignored.
func CheckAdmissible(now time.Time, slot Slot, windows []domain.AvailabilityWindow, existing []domain.Booking) error {
	date, err := timeutil.ParseDate(slot.Date)
	if err != nil {
		return fmt.Errorf("%w: session_date: %v", domain.ErrInvalidInput, err)
	}
	if date.Before(timeutil.Today(now)) {
		return fmt.Errorf("%w: session_date is in the past", domain.ErrInvalidInput)
	}

	start, end, err := slot.minutes()
	if err != nil {
		return err
	}

	weekday := date.Weekday()
	if err := checkWindows(weekday, start, end, windows); err != nil {
		return err
	}

	return checkOverlaps(slot, start, end, existing)
}

func checkWindows(weekday time.Weekday, start, end int, windows []domain.AvailabilityWindow) error {
	var (
		nearest *domain.AvailabilityWindow
		bestGap = -1
		found   bool
	)

	for i := range windows {
		w := &windows[i]
		if !w.IsActive || w.DayOfWeek != int(weekday) {
			continue
		}
		ws, err1 := timeutil.ParseClock(w.StartTime)
		we, err2 := timeutil.ParseClock(w.EndTime)
		if err1 != nil || err2 != nil || ws >= we {
			continue
		}
		found = true

		if ws <= start && end <= we {
			return nil
		}

		// how far the slot sticks out of this window
		gap := max(0, ws-start) + max(0, end-we)
		if bestGap < 0 || gap < bestGap {
			bestGap = gap
			nearest = w
		}
	}

	if !found {
		return &domain.NoAvailabilityError{Weekday: weekday}
	}
	return &domain.OutsideWindowError{WindowStart: nearest.StartTime, WindowEnd: nearest.EndTime}
}

func checkOverlaps(slot Slot, start, end int, existing []domain.Booking) error {
	for _, b := range existing {
		if b.Status == domain.BookingCancelled || b.SessionDate != slot.Date {
			continue
		}

		var party string
		switch {
		case b.TutorID == slot.TutorID:
			party = "tutor"
		case b.StudentID == slot.StudentID:
			party = "student"
		default:
			continue
		}

		bs, err1 := timeutil.ParseClock(b.StartTime)
		be, err2 := timeutil.ParseClock(b.EndTime)
		if err1 != nil || err2 != nil {
			continue
		}

		if bs < end && start < be {
			return &domain.DoubleBookingError{
				Party:     party,
				BookingID: b.ID,
				StartTime: b.StartTime,
				EndTime:   b.EndTime,
			}
		}
	}
	return nil
}
