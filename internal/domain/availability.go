package domain

import "time"

// AvailabilityWindow is a weekly recurring open range. DayOfWeek follows
// time.Weekday, Sunday is 0.
type AvailabilityWindow struct {
	ID        int64     `json:"id"`
	TutorID   int64     `json:"tutor_id"`
	DayOfWeek int       `json:"day_of_week"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
