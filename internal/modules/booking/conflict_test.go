package booking

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutorbook/internal/domain"
)

// 2030-01-07 is a Monday.
var (
	testNow    = time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	testMonday = "2030-01-07"
)

func mondayWindow(start, end string) domain.AvailabilityWindow {
	return domain.AvailabilityWindow{ID: 1, TutorID: 10, DayOfWeek: int(time.Monday), StartTime: start, EndTime: end, IsActive: true}
}

func slot(start, end string) Slot {
	return Slot{TutorID: 10, StudentID: 20, Date: testMonday, StartTime: start, EndTime: end}
}

func TestCheckAdmissible_InsideWindow(t *testing.T) {
	windows := []domain.AvailabilityWindow{mondayWindow("09:00", "17:00")}
	assert.NoError(t, CheckAdmissible(testNow, slot("10:00", "11:00"), windows, nil))
	assert.NoError(t, CheckAdmissible(testNow, slot("09:00", "17:00"), windows, nil), "window edges are inclusive")
}

func TestCheckAdmissible_OutsideWindowCarriesBounds(t *testing.T) {
	windows := []domain.AvailabilityWindow{mondayWindow("09:00", "17:00")}

	err := CheckAdmissible(testNow, slot("18:00", "19:00"), windows, nil)

	var outside *domain.OutsideWindowError
	require.True(t, errors.As(err, &outside))
	assert.Equal(t, "09:00", outside.WindowStart)
	assert.Equal(t, "17:00", outside.WindowEnd)
	assert.ErrorIs(t, err, domain.ErrOutsideWindow)
}

func TestCheckAdmissible_NearestWindow(t *testing.T) {
	windows := []domain.AvailabilityWindow{
		mondayWindow("08:00", "10:00"),
		mondayWindow("13:00", "15:00"),
	}

	var outside *domain.OutsideWindowError
	err := CheckAdmissible(testNow, slot("12:30", "14:00"), windows, nil)
	require.True(t, errors.As(err, &outside))
	assert.Equal(t, "13:00", outside.WindowStart)

	err = CheckAdmissible(testNow, slot("09:30", "10:15"), windows, nil)
	require.True(t, errors.As(err, &outside))
	assert.Equal(t, "08:00", outside.WindowStart)
}

func TestCheckAdmissible_NoAvailability(t *testing.T) {
	tuesday := domain.AvailabilityWindow{TutorID: 10, DayOfWeek: int(time.Tuesday), StartTime: "09:00", EndTime: "17:00", IsActive: true}
	inactive := mondayWindow("09:00", "17:00")
	inactive.IsActive = false

	err := CheckAdmissible(testNow, slot("10:00", "11:00"), []domain.AvailabilityWindow{tuesday, inactive}, nil)

	var noAvail *domain.NoAvailabilityError
	require.True(t, errors.As(err, &noAvail))
	assert.Equal(t, time.Monday, noAvail.Weekday)
}

func TestCheckAdmissible_OverlappingWindowsTolerated(t *testing.T) {
	windows := []domain.AvailabilityWindow{
		mondayWindow("09:00", "12:00"),
		mondayWindow("11:00", "14:00"),
	}
	assert.NoError(t, CheckAdmissible(testNow, slot("11:30", "13:30"), windows, nil))
}

func TestCheckAdmissible_InvalidInput(t *testing.T) {
	windows := []domain.AvailabilityWindow{mondayWindow("09:00", "17:00")}

	tests := []struct {
		name string
		slot Slot
	}{
		{"past date", Slot{TutorID: 10, StudentID: 20, Date: "2029-12-31", StartTime: "10:00", EndTime: "11:00"}},
		{"bad date", Slot{TutorID: 10, StudentID: 20, Date: "2030-13-01", StartTime: "10:00", EndTime: "11:00"}},
		{"start equals end", slot("10:00", "10:00")},
		{"start after end", slot("11:00", "10:00")},
		{"bad clock", slot("9:00", "10:00")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckAdmissible(testNow, tt.slot, windows, nil)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestCheckAdmissible_TodayIsAllowed(t *testing.T) {
	now := time.Date(2030, 1, 7, 23, 0, 0, 0, time.UTC)
	windows := []domain.AvailabilityWindow{mondayWindow("09:00", "17:00")}
	assert.NoError(t, CheckAdmissible(now, slot("10:00", "11:00"), windows, nil))
}

func TestCheckAdmissible_DoubleBooking(t *testing.T) {
	windows := []domain.AvailabilityWindow{mondayWindow("09:00", "17:00")}

	tutorBusy := domain.Booking{ID: 1, TutorID: 10, StudentID: 99, SessionDate: testMonday, StartTime: "10:00", EndTime: "11:00", Status: domain.BookingConfirmed}
	studentBusy := domain.Booking{ID: 2, TutorID: 77, StudentID: 20, SessionDate: testMonday, StartTime: "13:00", EndTime: "14:00", Status: domain.BookingCompleted}

	var double *domain.DoubleBookingError

	err := CheckAdmissible(testNow, slot("10:30", "11:30"), windows, []domain.Booking{tutorBusy})
	require.True(t, errors.As(err, &double))
	assert.Equal(t, "tutor", double.Party)
	assert.Equal(t, int64(1), double.BookingID)
	assert.Equal(t, "10:00", double.StartTime)
	assert.Equal(t, "11:00", double.EndTime)

	err = CheckAdmissible(testNow, slot("13:30", "14:30"), windows, []domain.Booking{studentBusy})
	require.True(t, errors.As(err, &double))
	assert.Equal(t, "student", double.Party)
}

func TestCheckAdmissible_NonOverlappingOrIgnored(t *testing.T) {
	windows := []domain.AvailabilityWindow{mondayWindow("09:00", "17:00")}
	existing := []domain.Booking{
		// touching ranges do not overlap
		{ID: 1, TutorID: 10, StudentID: 99, SessionDate: testMonday, StartTime: "09:00", EndTime: "10:00", Status: domain.BookingConfirmed},
		{ID: 2, TutorID: 10, StudentID: 99, SessionDate: testMonday, StartTime: "10:00", EndTime: "11:00", Status: domain.BookingCancelled},
		{ID: 3, TutorID: 10, StudentID: 99, SessionDate: "2030-01-14", StartTime: "10:00", EndTime: "11:00", Status: domain.BookingConfirmed},
		{ID: 4, TutorID: 55, StudentID: 66, SessionDate: testMonday, StartTime: "10:00", EndTime: "11:00", Status: domain.BookingConfirmed},
	}
	assert.NoError(t, CheckAdmissible(testNow, slot("10:00", "11:00"), windows, existing))
}
