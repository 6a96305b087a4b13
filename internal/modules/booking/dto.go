package booking

import (
	"fmt"

	"tutorbook/internal/domain"
	"tutorbook/internal/repository"
)

type CreateBookingRequest struct {
	TutorID     int64  `json:"tutor_id" binding:"required" validate:"required,gt=0"`
	Subject     string `json:"subject" binding:"required" validate:"required,max=255"`
	SessionDate string `json:"session_date" binding:"required" validate:"required,isodate"`
	StartTime   string `json:"start_time" binding:"required" validate:"required,hhmm"`
	EndTime     string `json:"end_time" binding:"required" validate:"required,hhmm"`
	Notes       string `json:"notes" validate:"max=2000"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

// ListBookingsQuery is bound from the query string of GET /bookings.
type ListBookingsQuery struct {
	Status string `form:"status" validate:"omitempty,oneof=CONFIRMED COMPLETED CANCELLED"`
	From   string `form:"from" validate:"omitempty,isodate"`
	To     string `form:"to" validate:"omitempty,isodate"`
	Limit  int    `form:"limit" validate:"omitempty,min=1,max=100"`
	Offset int    `form:"offset" validate:"omitempty,min=0"`
}

func (q ListBookingsQuery) filter() (repository.BookingFilter, error) {
	f := repository.BookingFilter{
		FromDate: q.From,
		ToDate:   q.To,
		Limit:    q.Limit,
		Offset:   q.Offset,
	}
	if q.Status != "" {
		st := domain.BookingStatus(q.Status)
		if !st.Valid() {
			return f, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, q.Status)
		}
		f.Status = &st
	}
	if q.From != "" && q.To != "" && q.To < q.From {
		return f, fmt.Errorf("%w: to is before from", domain.ErrInvalidInput)
	}
	return f, nil
}

type BookingResponse struct {
	Booking *domain.Booking `json:"booking"`
}

type BookingListResponse struct {
	Bookings []domain.Booking `json:"bookings"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}
