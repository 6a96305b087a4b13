package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TutorProfile struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	Headline      string          `json:"headline,omitempty"`
	Bio           string          `json:"bio,omitempty"`
	HourlyRate    decimal.Decimal `json:"hourly_rate"`
	Rating        float64         `json:"rating"`
	TotalReviews  int             `json:"total_reviews"`
	TotalSessions int             `json:"total_sessions"`
	TotalEarnings decimal.Decimal `json:"total_earnings"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TutorStats is the read-only dashboard projection for a tutor.
type TutorStats struct {
	TutorID          int64           `json:"tutor_id"`
	Confirmed        int64           `json:"confirmed"`
	Completed        int64           `json:"completed"`
	Cancelled        int64           `json:"cancelled"`
	UpcomingSessions int64           `json:"upcoming_sessions"`
	TotalSessions    int             `json:"total_sessions"`
	TotalEarnings    decimal.Decimal `json:"total_earnings"`
	Rating           float64         `json:"rating"`
	TotalReviews     int             `json:"total_reviews"`
}
