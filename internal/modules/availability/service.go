package availability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tutorbook/internal/domain"
	"tutorbook/internal/pkg/logger"
	"tutorbook/internal/pkg/timeutil"
	"tutorbook/internal/repository"
)

// Service owns tutors' weekly availability windows.
type Service struct {
	windows WindowRepository
	tutors  ProfileLookup
	timeout time.Duration
	log     *slog.Logger
}

func NewService(windows WindowRepository, tutors ProfileLookup, timeout time.Duration, log *slog.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Service{windows: windows, tutors: tutors, timeout: timeout, log: log}
}

// FindWindows returns the active windows for one weekday, ordered by start.
// An unknown tutor has no windows.
func (s *Service) FindWindows(ctx context.Context, tutorID int64, day time.Weekday) ([]domain.AvailabilityWindow, error) {
	if day < time.Sunday || day > time.Saturday {
		return nil, fmt.Errorf("%w: day_of_week must be 0-6", domain.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.windows.FindActive(ctx, tutorID, day)
	return out, repository.Classify(err)
}

func (s *Service) ListWindows(ctx context.Context, tutorID int64) ([]domain.AvailabilityWindow, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.windows.ListByTutor(ctx, tutorID)
	return out, repository.Classify(err)
}

func (s *Service) CreateWindow(ctx context.Context, tutorUserID int64, day int, start, end string) (*domain.AvailabilityWindow, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	profile, err := s.profile(ctx, tutorUserID)
	if err != nil {
		return nil, err
	}

	w := &domain.AvailabilityWindow{
		TutorID:   profile.ID,
		DayOfWeek: day,
		StartTime: start,
		EndTime:   end,
		IsActive:  true,
	}
	if err := s.checkWindow(ctx, w); err != nil {
		return nil, err
	}

	if err := s.windows.Create(ctx, w); err != nil {
		return nil, repository.Classify(err)
	}

	s.log.Info("availability window created",
		slog.Int64("tutor_id", w.TutorID),
		slog.Int64("window_id", w.ID),
		slog.Int("day_of_week", w.DayOfWeek),
	)
	return w, nil
}

func (s *Service) UpdateWindow(ctx context.Context, tutorUserID, windowID int64, day int, start, end string, active bool) (*domain.AvailabilityWindow, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	w, err := s.owned(ctx, tutorUserID, windowID)
	if err != nil {
		return nil, err
	}

	w.DayOfWeek = day
	w.StartTime = start
	w.EndTime = end
	w.IsActive = active
	if err := s.checkWindow(ctx, w); err != nil {
		return nil, err
	}

	if err := s.windows.Update(ctx, w); err != nil {
		return nil, repository.Classify(err)
	}
	return w, nil
}

// DeactivateWindow hides the window from booking admission. Existing
// bookings are not touched.
func (s *Service) DeactivateWindow(ctx context.Context, tutorUserID, windowID int64) (*domain.AvailabilityWindow, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	w, err := s.owned(ctx, tutorUserID, windowID)
	if err != nil {
		return nil, err
	}
	if !w.IsActive {
		return w, nil
	}

	w.IsActive = false
	if err := s.windows.Update(ctx, w); err != nil {
		return nil, repository.Classify(err)
	}

	s.log.Info("availability window deactivated",
		slog.Int64("tutor_id", w.TutorID),
		slog.Int64("window_id", w.ID),
	)
	return w, nil
}

func (s *Service) profile(ctx context.Context, tutorUserID int64) (*domain.TutorProfile, error) {
	p, err := s.tutors.GetByUserID(ctx, tutorUserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrTutorProfileNotFound
		}
		return nil, repository.Classify(err)
	}
	return p, nil
}

func (s *Service) owned(ctx context.Context, tutorUserID, windowID int64) (*domain.AvailabilityWindow, error) {
	profile, err := s.profile(ctx, tutorUserID)
	if err != nil {
		return nil, err
	}

	w, err := s.windows.GetByID(ctx, windowID)
	if err != nil {
		return nil, repository.Classify(err)
	}
	if w.TutorID != profile.ID {
		return nil, domain.ErrForbidden
	}
	return w, nil
}

// checkWindow validates the range and rejects overlap with the tutor's other
// active windows on the same day.
func (s *Service) checkWindow(ctx context.Context, w *domain.AvailabilityWindow) error {
	if w.DayOfWeek < 0 || w.DayOfWeek > 6 {
		return fmt.Errorf("%w: day_of_week must be 0-6", domain.ErrInvalidInput)
	}
	start, err := timeutil.ParseClock(w.StartTime)
	if err != nil {
		return fmt.Errorf("%w: start_time: %v", domain.ErrInvalidInput, err)
	}
	end, err := timeutil.ParseClock(w.EndTime)
	if err != nil {
		return fmt.Errorf("%w: end_time: %v", domain.ErrInvalidInput, err)
	}
	if start >= end {
		return fmt.Errorf("%w: start_time must be before end_time", domain.ErrInvalidInput)
	}
	if !w.IsActive {
		return nil
	}

	existing, err := s.windows.FindActive(ctx, w.TutorID, time.Weekday(w.DayOfWeek))
	if err != nil {
		return repository.Classify(err)
	}
	for _, other := range existing {
		if other.ID == w.ID {
			continue
		}
		os, _ := timeutil.ParseClock(other.StartTime)
		oe, _ := timeutil.ParseClock(other.EndTime)
		if os < end && start < oe {
			return fmt.Errorf("%w: overlaps window %s-%s", domain.ErrInvalidInput, other.StartTime, other.EndTime)
		}
	}
	return nil
}
