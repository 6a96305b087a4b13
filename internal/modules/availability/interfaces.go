package availability

import (
	"context"
	"time"

	"tutorbook/internal/domain"
)

type WindowRepository interface {
	Create(ctx context.Context, w *domain.AvailabilityWindow) error
	GetByID(ctx context.Context, id int64) (*domain.AvailabilityWindow, error)
	Update(ctx context.Context, w *domain.AvailabilityWindow) error
	FindActive(ctx context.Context, tutorID int64, day time.Weekday) ([]domain.AvailabilityWindow, error)
	ListByTutor(ctx context.Context, tutorID int64) ([]domain.AvailabilityWindow, error)
}

type ProfileLookup interface {
	GetByUserID(ctx context.Context, userID int64) (*domain.TutorProfile, error)
}
