package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCompleted BookingStatus = "COMPLETED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// IsTerminal reports whether no lifecycle transition may leave the status.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingConfirmed, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

type CancelledBy string

const (
	CancelledByStudent CancelledBy = "student"
	CancelledByTutor   CancelledBy = "tutor"
)

type Booking struct {
	ID          int64           `json:"id"`
	StudentID   int64           `json:"student_id"`
	TutorID     int64           `json:"tutor_id"`
	Subject     string          `json:"subject"`
	SessionDate string          `json:"session_date"`
	StartTime   string          `json:"start_time"`
	EndTime     string          `json:"end_time"`
	Price       decimal.Decimal `json:"price"`
	Status      BookingStatus   `json:"status"`
	Notes       string          `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	CancelledAt *time.Time      `json:"cancelled_at,omitempty"`

	CancelledBy        CancelledBy `json:"cancelled_by,omitempty"`
	CancellationReason string      `json:"cancellation_reason,omitempty"`
}
